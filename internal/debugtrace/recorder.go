// Package debugtrace captures raw request/response transcripts to disk
// when a corresponding LLM_DEBUG_* flag is set, grounded on the
// teacher's pkg/llm/debugger.go StreamDebugger: lazy file open, one
// append-only file per component (and optional label), each Recorder's
// writes starting after a round delimiter.
package debugtrace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Recorder appends raw bytes to a debug log file under debug/<component>/.
// A disabled Recorder (the zero value, or one built with enabled=false)
// is a safe no-op.
type Recorder struct {
	mu       sync.Mutex
	enabled  bool
	dir      string
	filename string
	file     *os.File
}

// New returns a Recorder for component, enabled only if enabled is true.
// label further scopes the log file (e.g. a conversation id) so
// concurrent conversations don't interleave into one file.
func New(component, label string, enabled bool) *Recorder {
	if !enabled {
		return &Recorder{enabled: false}
	}
	dir := filepath.Join("debug", component)
	if label != "" {
		dir = filepath.Join(dir, label)
	}
	r := &Recorder{
		enabled:  true,
		dir:      dir,
		filename: filepath.Join(dir, "trace.log"),
	}
	r.writeLocked(fmt.Sprintf("\n--- ROUND START: %s ---\n", time.Now().Format(time.RFC3339)))
	return r
}

func (r *Recorder) ensureOpen() error {
	if r.file != nil {
		return nil
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		slog.Error("debugtrace: failed to create directory", "dir", r.dir, "error", err)
		r.enabled = false
		return err
	}
	f, err := os.OpenFile(r.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("debugtrace: failed to open file", "file", r.filename, "error", err)
		r.enabled = false
		return err
	}
	r.file = f
	return nil
}

// Write appends a string followed by a newline, if enabled.
func (r *Recorder) Write(s string) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeLocked(s) != nil {
		return
	}
}

func (r *Recorder) writeLocked(s string) error {
	if err := r.ensureOpen(); err != nil || r.file == nil {
		return err
	}
	if _, err := r.file.WriteString(s); err != nil {
		slog.Warn("debugtrace: write failed", "error", err)
		return err
	}
	_, err := r.file.WriteString("\n")
	return err
}

// Close releases the underlying file handle, if any is open.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
}
