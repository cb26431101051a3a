package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AtomicCopy copies src to dst through a temp file in dst's directory, so a
// reader of dst sees either its previous content or the complete copy.
func AtomicCopy(src, dst string) error {
	tmpName, err := stageCopy(src, filepath.Dir(dst), "."+filepath.Base(dst)+"-*")
	if err != nil {
		return err
	}

	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", dst, err)
	}
	return nil
}

// ReplaceWithBackup puts replacement's content at target and leaves target's
// previous content at backup.
//
// The backup is refreshed first with an atomic copy, then replacement is
// staged beside target (it may live on another volume) and renamed over it.
// A crash at any point leaves target holding either the old or the new file.
// replacement itself is left for the caller to remove.
func ReplaceWithBackup(replacement, target, backup string) error {
	if _, err := os.Stat(replacement); err != nil {
		return fmt.Errorf("replacement not found: %w", err)
	}

	if backup != "" {
		if err := AtomicCopy(target, backup); err != nil {
			return fmt.Errorf("failed to back up %s: %w", target, err)
		}
	}

	staged, err := stageCopy(replacement, filepath.Dir(target), "."+filepath.Base(target)+"-*")
	if err != nil {
		return fmt.Errorf("failed to stage replacement: %w", err)
	}

	if info, err := os.Stat(target); err == nil {
		_ = os.Chmod(staged, info.Mode()) // best-effort permission sync
	}

	if err := os.Rename(staged, target); err != nil {
		_ = os.Remove(staged) // best-effort cleanup
		return fmt.Errorf("rename staged file to %s: %w", target, err)
	}
	return nil
}

// stageCopy copies src into a new temp file in dir and syncs it to disk.
// It returns the temp file's path.
func stageCopy(src, dir, pattern string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp: %w", err)
	}
	return tmpName, nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
