// Package fsops performs file reads, listings and writes confined to a sandbox.
package fsops

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/petasbytes/cybercog/internal/safety"
)

// Sandbox holds the resolved read and write roots.
type Sandbox struct {
	readRoot  string
	writeRoot string
}

// New resolves the roots once; see safety.ResolveRoots for defaults.
func New(readRoot, writeRoot string) (*Sandbox, error) {
	r, w, err := safety.ResolveRoots(readRoot, writeRoot)
	if err != nil {
		return nil, err
	}
	return &Sandbox{readRoot: r, writeRoot: w}, nil
}

func (s *Sandbox) ReadRoot() string  { return s.readRoot }
func (s *Sandbox) WriteRoot() string { return s.writeRoot }

// ReadFile returns the content of a regular file under the read root.
func (s *Sandbox) ReadFile(relPath string) (string, error) {
	absPath, err := s.readable(relPath)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Sandbox) readable(relPath string) (string, error) {
	absPath, err := safety.ValidateRelPath(s.readRoot, relPath)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(absPath)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", safety.PathError{Code: safety.CodeNotAFile, Message: "path is a directory"}
	}
	return absPath, nil
}

// ListDir returns the names of the direct entries of a directory under the
// read root; directories carry a trailing "/".
func (s *Sandbox) ListDir(relDir string) ([]string, error) {
	if relDir == "" {
		relDir = "."
	}
	absDir, err := safety.ValidateRelPath(s.readRoot, relDir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return names, nil
}

// WriteFile writes content under the write root, creating parents as needed.
func (s *Sandbox) WriteFile(relPath, content string) error {
	absPath, err := safety.ValidateWritePath(s.writeRoot, relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(absPath, []byte(content), 0o644)
}

// IsNotExist reports whether err means the target file is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
