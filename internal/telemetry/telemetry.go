// Package telemetry appends opt-in JSONL events describing model calls, tool
// executions and queries. Events carry sizes and timings only; prompts,
// arguments and results are never written.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const eventsFile = "events.jsonl"

// Sink writes events to <dir>/events.jsonl. A nil *Sink drops everything.
type Sink struct {
	mu     sync.Mutex
	path   string
	errOut io.Writer
}

// New returns a sink writing under dir, or nil when observation is off.
func New(dir string, enabled bool) *Sink {
	if !enabled {
		return nil
	}
	if dir == "" {
		dir = ".cybercog"
	}
	return &Sink{path: filepath.Join(dir, eventsFile), errOut: os.Stderr}
}

// Path is the events file, empty for a disabled sink.
func (s *Sink) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Enabled reports whether events are written.
func (s *Sink) Enabled() bool { return s != nil }

// Emit writes a single JSON line augmented with RFC3339Nano time and the
// event name. Failures go to stderr and are otherwise ignored.
func (s *Sink) Emit(name string, fields map[string]any) {
	if s == nil {
		return
	}

	// Shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(s.errOut, "telemetry: marshal: %v\n", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(s.errOut, "telemetry: mkdir %s: %v\n", dir, err)
		return
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(s.errOut, "telemetry: open %s: %v\n", s.path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		fmt.Fprintf(s.errOut, "telemetry: write %s: %v\n", s.path, err)
	}
}
