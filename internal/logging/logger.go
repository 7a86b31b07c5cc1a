// Package logging provides the CLI's loggers.
//
// Available implementations:
//   - ConsoleLogger: writes formatted messages to a writer (stderr by default)
//   - NullLogger: discards all messages
//
// All implementations are safe for concurrent use by multiple goroutines.
// The scandir library itself never logs.
package logging

// Logger is the logging surface used by the CLI commands.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...any)

	// Info logs informational messages about normal operations.
	Info(format string, args ...any)

	// Error logs failures that did not stop the command.
	Error(format string, args ...any)
}

var (
	_ Logger = (*ConsoleLogger)(nil)
	_ Logger = (*NullLogger)(nil)
)
