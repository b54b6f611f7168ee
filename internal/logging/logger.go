// Package logging writes the execution log and the console messages of a run.
//
// Every record in the log file carries the run id so the lines of one
// invocation can be told apart in the shared exec.log. Console output is
// colored and goes through the same Logger so that what the user saw is also
// what was logged.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// FileName is the execution log inside the log directory.
const FileName = "exec.log"

// NewRunID returns a short random id for one process.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// Options configure a Logger.
type Options struct {
	// Dir holds exec.log. Empty disables the log file.
	Dir   string
	RunID string
	// Verbose shows debug lines on the console and logs them to file.
	Verbose bool
	// Headless suppresses all console output.
	Headless bool

	Stdout io.Writer
	Stderr io.Writer
}

// Logger writes structured records to the log file and colored lines to the
// console.
type Logger struct {
	mu       sync.Mutex
	logger   *slog.Logger
	file     *os.File
	path     string
	runID    string
	verbose  bool
	headless bool
	stdout   io.Writer
	stderr   io.Writer
}

// New opens the log file and returns a logger. Failing to open the file is
// reported on stderr and the logger carries on without it.
func New(opts Options) *Logger {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}

	l := &Logger{
		runID:    opts.RunID,
		verbose:  opts.Verbose,
		headless: opts.Headless,
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler = slog.DiscardHandler
	if opts.Dir != "" {
		f, err := openLogFile(opts.Dir)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "Warning: %v, continuing without a log file\n", err)
		} else {
			l.file = f
			l.path = f.Name()
			handler = slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
		}
	}
	l.logger = slog.New(handler).With("run_id", opts.RunID)
	return l
}

func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// Slog returns the structured logger for packages that log records rather
// than messages.
func (l *Logger) Slog() *slog.Logger { return l.logger }

// RunID returns the id tagged on every record.
func (l *Logger) RunID() string { return l.runID }

// Path returns the log file path, empty when there is none.
func (l *Logger) Path() string { return l.path }

// Verbose reports whether debug output is on.
func (l *Logger) Verbose() bool { return l.verbose }

// Headless reports whether console output is suppressed.
func (l *Logger) Headless() bool { return l.headless }

func (l *Logger) console(w io.Writer, prefix, msg string) {
	if l.headless {
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", prefix, msg)
}

// Info logs and prints an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.logger.Info(msg)
	cyan := color.New(color.FgCyan).SprintFunc()
	l.console(l.stdout, cyan("▶"), msg)
}

// Success logs and prints a success message.
func (l *Logger) Success(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.logger.Info(msg)
	green := color.New(color.FgGreen).SprintFunc()
	l.console(l.stdout, green("✓"), msg)
}

// Warn logs and prints a warning.
func (l *Logger) Warn(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.logger.Warn(msg)
	yellow := color.New(color.FgYellow).SprintFunc()
	l.console(l.stderr, yellow("!"), msg)
}

// Error logs and prints an error.
func (l *Logger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.logger.Error(msg)
	red := color.New(color.FgRed).SprintFunc()
	l.console(l.stderr, red("✗"), msg)
}

// Debug logs a message and prints it only in verbose mode.
func (l *Logger) Debug(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.logger.Debug(msg)
	if l.verbose {
		gray := color.New(color.FgHiBlack).SprintFunc()
		l.console(l.stdout, gray("·"), msg)
	}
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
