package client

import (
	"io"
	"os"
	"path/filepath"
)

// Saver stores a downloaded export. Isolating the save step keeps the
// download flow testable without touching the filesystem.
type Saver interface {
	Save(name string, content io.Reader) error
}

// DirSaver writes exports into a directory. Files land under a temporary
// name first and are renamed into place, so a failed download never leaves
// a truncated file behind.
type DirSaver struct {
	Dir string
}

// Save writes content to Dir/name atomically.
func (s DirSaver) Save(name string, content io.Reader) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, "."+name+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(s.Dir, name))
}
