// Package logger provides a simple, clean logging interface.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Constants for logging operations.
const (
	callerSkipFrames = 2 // Skip frames: getCaller -> logging method -> actual caller
	stackSkipFrames  = 3 // Skip frames: runtime.Callers -> stackTrace -> logging method
	maxStackFrames   = 32

	// TimeLayout is the timestamp prefix of every line.
	TimeLayout = "2006-01-02 15:04:05"

	defaultFileMode = 0o644
)

// Logger defines the logging interface.
type Logger interface {
	// Context-aware variants
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
	With(fields ...Field) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field     { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field       { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }
func Error(err error) Field                 { return Field{Key: "error", Value: err} }

// Option configures New.
type Option func(*options)

type options struct {
	level    zerolog.Level
	path     string
	out      io.Writer
	fileMode os.FileMode
	exit     func(int)
}

// WithLevel sets the minimum level.
func WithLevel(level zerolog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithFile appends log lines to path, creating the file and its directory if needed.
func WithFile(path string) Option {
	return func(o *options) { o.path = path }
}

// WithWriter sends log lines to w. Ignored when WithFile is also given.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithExitFunc replaces os.Exit for Fatal.
func WithExitFunc(exit func(int)) Option {
	return func(o *options) {
		if exit != nil {
			o.exit = exit
		}
	}
}

// zeroLogger implements Logger using zerolog.
type zeroLogger struct {
	zl   zerolog.Logger
	exit func(int)
}

// New builds a Logger. Lines look like
//
//	2026-10-17 11:00:02 - INFO-Done: 0.42 seconds run_id=...
//
// The returned close function releases the log file, if one was opened.
func New(opts ...Option) (Logger, func() error, error) {
	o := options{
		level:    zerolog.DebugLevel,
		out:      os.Stderr,
		fileMode: defaultFileMode,
		exit:     os.Exit,
	}
	for _, opt := range opts {
		opt(&o)
	}

	closer := func() error { return nil }
	out := o.out
	if o.path != "" {
		if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(o.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, o.fileMode)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = f.Close
	}

	zl := zerolog.New(newLineWriter(out)).Level(o.level).With().Timestamp().Logger()
	return &zeroLogger{zl: zl, exit: o.exit}, closer, nil
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zeroLogger{zl: zerolog.Nop(), exit: func(int) {}}
}

// newLineWriter renders events as "<time> - <LEVEL>-<message> k=v ...".
func newLineWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FormatPrepare: func(evt map[string]interface{}) error {
			level := strings.ToUpper(fmt.Sprint(evt[zerolog.LevelFieldName]))
			msg, _ := evt[zerolog.MessageFieldName].(string)
			evt[zerolog.MessageFieldName] = level + "-" + msg
			return nil
		},
		FormatTimestamp: func(i interface{}) string {
			s := fmt.Sprint(i)
			if t, err := time.Parse(zerolog.TimeFieldFormat, s); err == nil {
				s = t.Local().Format(TimeLayout)
			}
			return s + " -"
		},
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i)
		},
	}
}

func (l *zeroLogger) Named(name string) Logger {
	return &zeroLogger{zl: l.zl.With().Str("component", name).Logger(), exit: l.exit}
}

func (l *zeroLogger) With(fields ...Field) Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &zeroLogger{zl: ctx.Logger(), exit: l.exit}
}

func (l *zeroLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.write(l.zl.Info().Ctx(ctx), msg, fields)
}

func (l *zeroLogger) Error(ctx context.Context, msg string, fields ...Field) {
	caller := getCaller()
	fields = append(fields, String("source", caller))
	if hasError(fields) {
		fields = append(fields, String("stack", stackTrace(stackSkipFrames)))
	}
	l.write(l.zl.Error().Ctx(ctx), msg, fields)
}

func (l *zeroLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.write(l.zl.Debug().Ctx(ctx), msg, fields)
}

func (l *zeroLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	caller := getCaller()
	fields = append(fields, String("source", caller))
	l.write(l.zl.Warn().Ctx(ctx), msg, fields)
}

func (l *zeroLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	caller := getCaller()
	fields = append(fields, String("source", caller))
	if hasError(fields) {
		fields = append(fields, String("stack", stackTrace(stackSkipFrames)))
	}
	// WithLevel avoids zerolog's own os.Exit so the exit hook stays in charge.
	l.write(l.zl.WithLevel(zerolog.FatalLevel).Ctx(ctx), msg, fields)
	l.exit(1)
}

func (l *zeroLogger) write(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			e = e.AnErr(f.Key, err)
			continue
		}
		e = e.Interface(f.Key, f.Value)
	}
	e.Msg(msg)
}

// getCaller returns the caller location in format relative/path/file.go:line (IDE-friendly).
func getCaller() string {
	_, file, line, ok := runtime.Caller(callerSkipFrames)
	if !ok {
		return "unknown:0"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	relPath, err := filepath.Rel(cwd, file)
	if err != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	return fmt.Sprintf("%s:%d", relPath, line)
}

// ParseLevel parses a level name.
// Accepts: debug, info, warn/warning, error (case-insensitive). Empty means debug.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

func hasError(fields []Field) bool {
	for _, f := range fields {
		if _, ok := f.Value.(error); ok {
			return true
		}
	}
	return false
}

// stackTrace lists the goroutine's frames above the logging call, innermost
// first, as "pkg.Func(file.go:line)" joined by " < ". Runtime frames are dropped.
func stackTrace(skip int) string {
	pcs := make([]uintptr, maxStackFrames)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var parts []string
	for {
		f, more := frames.Next()
		if f.Function != "" && !strings.HasPrefix(f.Function, "runtime.") {
			fn := f.Function
			if i := strings.LastIndex(fn, "/"); i >= 0 {
				fn = fn[i+1:]
			}
			parts = append(parts, fmt.Sprintf("%s(%s:%d)", fn, filepath.Base(f.File), f.Line))
		}
		if !more {
			break
		}
	}
	return strings.Join(parts, " < ")
}
