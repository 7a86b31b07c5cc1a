package logging

// NullLogger discards all log messages.
type NullLogger struct{}

// NewNullLogger creates a new NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

// Verbose is a no-op.
func (l *NullLogger) Verbose(string, ...any) {}

// Info is a no-op.
func (l *NullLogger) Info(string, ...any) {}

// Error is a no-op.
func (l *NullLogger) Error(string, ...any) {}
