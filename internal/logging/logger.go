// Package logging sets up gamal's process-wide slog logger with a
// compact, single-line handler, styled after the teacher's terminal
// monitor output rather than slog's default multi-line JSON/text forms.
package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type traceIDKey struct{}

// WithTraceID returns a context carrying id, which Handle renders
// inline on every log line emitted through that context — useful for
// correlating a pipeline run's log lines with its debug-trace file.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// Handler implements slog.Handler, formatting records as
// "[time] [LEVEL] [trace] message key="value" ...".
type Handler struct {
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
}

// NewHandler constructs a Handler writing to w at the given level.
func NewHandler(w io.Writer, level slog.Level) *Handler {
	return &Handler{w: w, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	buf := bytes.NewBuffer(nil)
	fmt.Fprintf(buf, "[%s] [%s]", r.Time.Format("2006-01-02 15:04:05"), r.Level)

	if ctx != nil {
		if id, ok := ctx.Value(traceIDKey{}).(string); ok && id != "" {
			fmt.Fprintf(buf, " [%s]", id)
		}
	}

	fmt.Fprintf(buf, " %s", r.Message)

	for _, a := range h.attrs {
		h.appendAttr(buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(buf, a)
		return true
	})
	buf.WriteByte('\n')

	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *Handler) appendAttr(buf *bytes.Buffer, a slog.Attr) {
	buf.WriteByte(' ')
	buf.WriteString(a.Key)
	buf.WriteByte('=')

	val := a.Value.Resolve()
	switch val.Kind() {
	case slog.KindString:
		fmt.Fprintf(buf, "%q", val.String())
	case slog.KindTime:
		buf.WriteString(val.Time().Format(time.RFC3339))
	default:
		fmt.Fprintf(buf, "%v", val.Any())
	}
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{w: h.w, level: h.level, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *Handler) WithGroup(_ string) slog.Handler {
	return h
}

// Setup installs a Handler as the process-wide default logger, parsing
// levelStr ("debug", "info", "warn", "error"; anything else is "info").
func Setup(levelStr string) {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(NewHandler(os.Stderr, level)))
}

const banner = `
   ____                       _
  / ___| __ _ _ __ ___   __ _| |
 | |  _ / _` + "`" + ` | '_ ` + "`" + ` _ \ / _` + "`" + ` | |
 | |_| | (_| | | | | | | (_| | |
  \____|\__,_|_| |_| |_|\__,_|_|
`

// PrintBanner writes the startup banner to stdout.
func PrintBanner() {
	fmt.Println(banner)
}
