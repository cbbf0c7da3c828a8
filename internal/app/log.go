package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// qHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<operation>\t<message>\t<key=value ...>
type qHandler struct {
	w     io.Writer
	op    string
	attrs []slog.Attr
}

func (h *qHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *qHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, level, h.op, r.Message)
	if err != nil {
		return err
	}

	// Write pre-set attrs.
	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}

	// Write per-record attrs.
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *qHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &qHandler{
		w:     h.w,
		op:    h.op,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *qHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that appends to logDir/q.log.
// The CLI prints queue content on stdout, so log output never goes to the
// terminal. It returns the slog.Logger, the open log file (for cleanup),
// and any error.
func newLogger(logDir string, operation string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "q.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := &qHandler{w: f, op: operation}
	return slog.New(handler), f, nil
}
