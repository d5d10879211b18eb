package memory

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const stampLayout = "2006-01-02 15:04:05.000000"

// History is an append-only list of entered lines backed by a file.
type History struct {
	mu      sync.Mutex
	path    string
	entries []string
	now     func() time.Time
}

// Load reads the history at path. A missing file yields an empty history.
func Load(path string) (*History, error) {
	h := &History{path: path, now: time.Now}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return h, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var cur []string
	flush := func() {
		if len(cur) > 0 {
			h.entries = append(h.entries, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if rest, ok := strings.CutPrefix(line, "+"); ok {
			cur = append(cur, rest)
			continue
		}
		flush()
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return h, nil
}

// Entries returns the stored lines, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

func (h *History) Path() string { return h.path }

// Append records entry in memory and on disk. Blank entries are ignored.
func (h *History) Append(entry string) error {
	if strings.TrimSpace(entry) == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)

	if err := os.MkdirAll(filepath.Dir(h.path), 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(h.path), err)
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n# %s\n", h.now().Format(stampLayout))
	for _, line := range strings.Split(entry, "\n") {
		b.WriteString("+" + line + "\n")
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("write history: %w", err)
	}
	return f.Close()
}
