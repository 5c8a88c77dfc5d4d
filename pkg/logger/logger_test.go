package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - [A-Z]+-`)

func TestLoggerLineFormat(t *testing.T) {
	var buf bytes.Buffer
	log, closeLog, err := New(WithWriter(&buf), WithLevel(zerolog.DebugLevel))
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := closeLog(); err != nil {
			t.Errorf("failed to close logger: %v", err)
		}
	}()

	log.Info(context.Background(), "Done: 0.42 seconds")

	line := strings.TrimSpace(buf.String())
	if !linePattern.MatchString(line) {
		t.Fatalf("unexpected line format: %q", line)
	}
	if !strings.Contains(line, " - INFO-Done: 0.42 seconds") {
		t.Fatalf("level and message not joined: %q", line)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(WithWriter(&buf), WithLevel(zerolog.WarnLevel))
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	log.Debug(ctx, "hidden debug")
	log.Info(ctx, "hidden info")
	log.Warn(ctx, "shown warn")
	log.Error(ctx, "shown error", Error(errors.New("boom")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("lines below the minimum level were written: %q", out)
	}
	if !strings.Contains(out, "WARN-shown warn") || !strings.Contains(out, "ERROR-shown error") {
		t.Fatalf("expected warn and error lines, got %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("error field missing: %q", out)
	}
	if !strings.Contains(out, "source=") {
		t.Fatalf("caller source missing: %q", out)
	}
}

func TestLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "user_stats.log")
	log, closeLog, err := New(WithFile(path))
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	log.Named("collector").With(String("run_id", "abc")).Info(context.Background(), "hello")
	if err := closeLog(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{"INFO-hello", "component=collector", "run_id=abc"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}

	// A second logger on the same path appends.
	log2, closeLog2, err := New(WithFile(path))
	if err != nil {
		t.Fatalf("failed to reopen logger: %v", err)
	}
	log2.Info(context.Background(), "again")
	_ = closeLog2()

	data, _ = os.ReadFile(path)
	if strings.Count(string(data), "\n") != 2 {
		t.Fatalf("expected two lines, got %q", string(data))
	}
}

func TestLoggerFatalUsesExitHook(t *testing.T) {
	var buf bytes.Buffer
	code := -1
	log, _, err := New(WithWriter(&buf), WithExitFunc(func(c int) { code = c }))
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	log.Fatal(context.Background(), "cannot continue")

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "FATAL-cannot continue") {
		t.Fatalf("fatal line missing: %q", buf.String())
	}
}

func TestLoggerNop(t *testing.T) {
	log := Nop()
	log.Info(context.Background(), "discarded")
	log.Named("x").Fatal(context.Background(), "discarded")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.DebugLevel,
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		" warn ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func reportFailure(log Logger, err error) {
	log.Error(context.Background(), "Exception occurred", Error(err))
}

func TestLoggerErrorStack(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(WithWriter(&buf))
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	reportFailure(log, errors.New("fetch: dial tcp: connection refused"))
	line := buf.String()
	if !strings.Contains(line, "stack=") {
		t.Fatalf("stack missing: %q", line)
	}
	if !strings.Contains(line, "logger.reportFailure(logger_test.go:") {
		t.Fatalf("innermost frame missing: %q", line)
	}
	if !strings.Contains(line, "logger.TestLoggerErrorStack(logger_test.go:") {
		t.Fatalf("calling frame missing: %q", line)
	}
	if strings.Contains(line, "zeroLogger") {
		t.Fatalf("logger frames leaked into the stack: %q", line)
	}

	buf.Reset()
	log.Error(context.Background(), "no error value")
	if strings.Contains(buf.String(), "stack=") {
		t.Fatalf("stack added without an error: %q", buf.String())
	}
}
