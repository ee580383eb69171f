package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"folio/internal/folio"
)

// newLogger creates a zerolog logger writing JSON lines to logDir/folio.log
// and human-readable lines to console. Every line carries the operation id.
// It returns the logger, the open log file (for cleanup), and any error.
func newLogger(logDir, level string, op *Operation, console io.Writer) (zerolog.Logger, *os.File, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "folio.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
	}

	var w io.Writer = f
	if console != nil {
		w = zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339})
	}

	logger := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("op_id", op.ID).
		Str("operation", op.Name).
		Logger()
	return logger, f, nil
}

func parseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// zerologAdapter wraps zerolog.Logger to satisfy the folio.Logger interface.
// Arguments are alternating key/value pairs.
type zerologAdapter struct {
	l zerolog.Logger
}

var _ folio.Logger = (*zerologAdapter)(nil)

func (a *zerologAdapter) Debug(msg string, args ...any) { a.emit(a.l.Debug(), msg, args) }
func (a *zerologAdapter) Info(msg string, args ...any)  { a.emit(a.l.Info(), msg, args) }
func (a *zerologAdapter) Warn(msg string, args ...any)  { a.emit(a.l.Warn(), msg, args) }
func (a *zerologAdapter) Error(msg string, args ...any) { a.emit(a.l.Error(), msg, args) }

func (a *zerologAdapter) emit(e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}
	if len(args)%2 == 1 {
		args = append(args, "!MISSING")
	}
	e.Fields(args).Msg(msg)
}
