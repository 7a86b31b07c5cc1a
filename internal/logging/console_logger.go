package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleLogger writes log messages to a writer, one line per message.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	w       io.Writer
	verbose bool
	mu      sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger writing to w. A nil w means
// os.Stderr. If verbose is false, Verbose calls are no-ops.
func NewConsoleLogger(w io.Writer, verbose bool) *ConsoleLogger {
	if w == nil {
		w = os.Stderr
	}

	return &ConsoleLogger{
		w:       w,
		verbose: verbose,
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...any) {
	if !l.verbose {
		return
	}

	l.write("[VERBOSE] ", format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...any) {
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...any) {
	l.write("[ERROR] ", format, args)
}

func (l *ConsoleLogger) write(prefix, format string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(args) > 0 {
		fmt.Fprintf(l.w, prefix+format+"\n", args...)
	} else {
		fmt.Fprint(l.w, prefix+format+"\n")
	}
}
