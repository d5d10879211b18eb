// Package safety resolves model-supplied relative paths against sandbox roots.
package safety

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/sjson"
)

// Error codes surfaced to the model inside tool error payloads.
const (
	CodeOutsideSandbox = "ERR_PATH_OUTSIDE_SANDBOX"
	CodeDeniedRead     = "ERR_DENIED_READ"
	CodeDeniedWrite    = "ERR_DENIED_WRITE"
	CodeNotAFile       = "ERR_NOT_A_FILE"
)

// deniedDirs may be neither read nor written at the sandbox top level.
var deniedDirs = []string{".git", ".cybercog"}

// deniedWriteNames are basenames that may not be written at any depth.
var deniedWriteNames = []string{"go.mod", "go.sum"}

// PathError is a machine-readable policy violation.
type PathError struct {
	Code    string
	Message string
}

// Error renders a compact JSON object so tool payloads stay small.
func (e PathError) Error() string {
	s, _ := sjson.Set(`{}`, "code", e.Code)
	s, _ = sjson.Set(s, "message", e.Message)
	return s
}

// ResolveRoots returns absolute, symlink-resolved read and write roots.
// An empty read root means the working directory; an empty write root
// falls back to the read root.
func ResolveRoots(readRoot, writeRoot string) (string, string, error) {
	if readRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("getwd: %w", err)
		}
		readRoot = cwd
	}
	if writeRoot == "" {
		writeRoot = readRoot
	}
	r, err := absResolved(readRoot)
	if err != nil {
		return "", "", fmt.Errorf("read root: %w", err)
	}
	w, err := absResolved(writeRoot)
	if err != nil {
		return "", "", fmt.Errorf("write root: %w", err)
	}
	return r, w, nil
}

func absResolved(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// ValidateRelPath returns the absolute path of relPath under absRoot for
// reading. Absolute input, parent traversal and symlink escapes are rejected,
// as are reads below the denied directories.
func ValidateRelPath(absRoot, relPath string) (string, error) {
	candidate, rel, err := resolve(absRoot, relPath)
	if err != nil {
		return "", err
	}
	if underDenied(rel) {
		return "", PathError{Code: CodeDeniedRead, Message: "reads under " + strings.Join(deniedDirs, "/ or ") + "/ are not allowed"}
	}
	return candidate, nil
}

// ValidateWritePath is ValidateRelPath for writes: it also refuses module
// files anywhere in the tree.
func ValidateWritePath(absRoot, relPath string) (string, error) {
	candidate, rel, err := resolve(absRoot, relPath)
	if err != nil {
		return "", err
	}
	if underDenied(rel) {
		return "", PathError{Code: CodeDeniedWrite, Message: "writes under protected directories are not allowed"}
	}
	base := filepath.Base(rel)
	for _, name := range deniedWriteNames {
		if base == name {
			return "", PathError{Code: CodeDeniedWrite, Message: "writes to " + name + " are not allowed"}
		}
	}
	return candidate, nil
}

// resolve joins relPath to absRoot, follows symlinks on the target or its
// parent, and checks the result is still inside absRoot. It returns the
// candidate and its slash-separated form relative to the root.
func resolve(absRoot, relPath string) (string, string, error) {
	if filepath.IsAbs(relPath) {
		return "", "", PathError{Code: CodeOutsideSandbox, Message: "absolute paths are not allowed"}
	}
	candidate := filepath.Join(absRoot, filepath.Clean(relPath))

	// A leaf that does not exist yet may still escape through its parent.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		candidate = filepath.Join(parent, filepath.Base(candidate))
	}

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", "", PathError{Code: CodeOutsideSandbox, Message: "requested path resolves outside the sandbox root"}
	}
	return candidate, filepath.ToSlash(rel), nil
}

func underDenied(rel string) bool {
	for _, d := range deniedDirs {
		if rel == d || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	return false
}
