package patcher

import (
	"archive/zip"
	"errors"
	"os"
	"time"
)

// ArchiveStatus describes one bundle file on disk.
type ArchiveStatus struct {
	Path    string     `json:"path"`
	Exists  bool       `json:"exists"`
	Size    int64      `json:"size"`
	ModTime *time.Time `json:"mod_time,omitempty"`
	Entries int        `json:"entries"`
	Patched bool       `json:"patched"`
	// Error is set when the file exists but is not a readable archive
	Error string `json:"error,omitempty"`
}

// Status is a read-only view of the target and the backup slot.
type Status struct {
	Target ArchiveStatus `json:"target"`
	Backup ArchiveStatus `json:"backup"`
}

// Inspect reads the target and backup archives without modifying anything.
func (p *Patcher) Inspect() (*Status, error) {
	target, err := inspectArchive(p.cfg.Paths.Target)
	if err != nil {
		return nil, err
	}
	backup, err := inspectArchive(p.cfg.Paths.Backup)
	if err != nil {
		return nil, err
	}
	return &Status{Target: target, Backup: backup}, nil
}

func inspectArchive(path string) (ArchiveStatus, error) {
	st := ArchiveStatus{Path: path}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.Exists = true
	st.Size = info.Size()
	mod := info.ModTime()
	st.ModTime = &mod

	r, err := zip.OpenReader(path)
	if err != nil {
		st.Error = err.Error()
		return st, nil
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		st.Entries++
		if f.Name == WorkerEntry {
			st.Patched = true
		}
	}
	return st, nil
}
