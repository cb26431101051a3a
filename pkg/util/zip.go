package util

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/boyter/gocodewalker"
)

// copyBufferSize is the chunk size used when streaming file bytes into an archive.
const copyBufferSize = 4096

// ZipStats tracks statistics about a zipping operation
type ZipStats struct {
	Entries int
	Bytes   int64
	Names   []string
}

func (s *ZipStats) add(name string, bytes int64) {
	s.Entries++
	s.Bytes += bytes
	s.Names = append(s.Names, name)
}

// EntryName derives the archive entry name for path inside root. The root
// prefix is stripped by length (plus one for the separator when root does
// not already end with one), slashes are normalized and an absolute drive
// prefix is dropped.
func EntryName(root, path string) string {
	offset := len(root)
	if !strings.HasSuffix(root, string(os.PathSeparator)) && !strings.HasSuffix(root, "/") {
		offset++
	}
	if offset > len(path) {
		return ""
	}
	name := filepath.ToSlash(path[offset:])
	if hasDrivePrefix(name) {
		name = name[2:]
	}
	return strings.TrimLeft(name, "/")
}

// hasDrivePrefix reports whether name starts with an absolute drive such as
// "C:/". A relative name like "c:foo.js" is a plain file name.
func hasDrivePrefix(name string) bool {
	if len(name) < 3 || name[1] != ':' || name[2] != '/' {
		return false
	}
	c := name[0] | 0x20
	return c >= 'a' && c <= 'z'
}

// ZipDirectory zips every regular file under srcDir into destZip. Entries are
// written in directory-listing order: the files of a directory come first,
// then each subdirectory in turn. Each entry header is written immediately
// before the file's bytes, which are streamed in fixed-size chunks.
func ZipDirectory(srcDir, destZip string) (*ZipStats, error) {
	srcDir = filepath.Clean(srcDir)
	files, err := listFiles(srcDir)
	if err != nil {
		return nil, err
	}

	zipFile, err := os.Create(destZip)
	if err != nil {
		return nil, err
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	stats := &ZipStats{}
	buf := make([]byte, copyBufferSize)
	for _, path := range files {
		name := EntryName(srcDir, path)
		written, err := addFileToZip(zipWriter, path, name, buf)
		if err != nil {
			zipWriter.Close()
			return stats, fmt.Errorf("failed to add %s: %w", name, err)
		}
		stats.add(name, written)
	}

	if err := zipWriter.Close(); err != nil {
		return stats, err
	}
	return stats, zipFile.Sync()
}

func addFileToZip(zipWriter *zip.Writer, path, name string, buf []byte) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}

	// Modified is truncated to 2-second precision by the zip format.
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zipWriter.CreateHeader(header)
	if err != nil {
		return 0, err
	}
	return io.CopyBuffer(w, file, buf)
}

// listFiles walks srcDir with gocodewalker and returns the regular files in
// directory-listing order. The walker fans out across directories, so the
// order is re-established afterwards.
func listFiles(srcDir string) ([]string, error) {
	fileQueue := make(chan *gocodewalker.File, 256)
	walker := gocodewalker.NewFileWalker(srcDir, fileQueue)
	walker.IncludeHidden = true
	walker.IgnoreGitIgnore = true
	walker.IgnoreIgnoreFile = true

	errChan := make(chan error, 1)
	go func() {
		errChan <- walker.Start()
	}()

	var files []string
	for f := range fileQueue {
		info, err := os.Lstat(f.Location)
		if err != nil {
			// drain so the walker goroutine can finish
			for range fileQueue {
			}
			<-errChan
			return nil, err
		}
		if info.Mode().IsRegular() {
			files = append(files, f.Location)
		}
	}

	if err := <-errChan; err != nil {
		return nil, fmt.Errorf("directory walk failed: %w", err)
	}

	sortListingOrder(srcDir, files)
	return files, nil
}

// sortListingOrder orders paths so that, within every directory, files come
// before subdirectories and each group is sorted by name.
func sortListingOrder(root string, paths []string) {
	split := make(map[string][]string, len(paths))
	for _, p := range paths {
		split[p] = strings.Split(EntryName(root, p), "/")
	}
	sort.SliceStable(paths, func(i, j int) bool {
		a, b := split[paths[i]], split[paths[j]]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] == b[k] {
				continue
			}
			aFile, bFile := k == len(a)-1, k == len(b)-1
			if aFile != bFile {
				return aFile
			}
			return a[k] < b[k]
		}
		return len(a) < len(b)
	})
}

// Unzip extracts a zip file into destDir, which must not already exist.
func Unzip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip file: %w", err)
	}
	defer reader.Close()

	if err := os.Mkdir(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	cleanDest := filepath.Clean(destDir) + string(os.PathSeparator)
	for _, file := range reader.File {
		destPath := filepath.Join(destDir, file.Name)

		// Security check: prevent zip slip
		if !strings.HasPrefix(destPath, cleanDest) {
			return fmt.Errorf("illegal file path: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}

		if err := extractFile(file, destPath); err != nil {
			return fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
	}

	return nil
}

func extractFile(file *zip.File, destPath string) error {
	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode|0200)
	if err != nil {
		return err
	}

	fileReader, err := file.Open()
	if err != nil {
		destFile.Close()
		return err
	}

	_, err = io.Copy(destFile, fileReader)
	fileReader.Close()
	if closeErr := destFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	// Keep the archived timestamp so an unchanged entry repacks identically.
	if !file.Modified.IsZero() {
		_ = os.Chtimes(destPath, file.Modified, file.Modified)
	}
	return nil
}
