// Package logging wraps the standard library logger with a
// bracketed-level convention ([INFO]/[WARN]/[ERROR]/[DEBUG]) so
// callers don't repeat the prefix by hand. Output goes to stderr;
// stdout belongs to the stdio RPC transport.
package logging

import (
	"log"
	"os"
)

// Logger is a thin wrapper around *log.Logger.
type Logger struct {
	std *log.Logger
}

// New creates a Logger writing to stderr with a component prefix.
func New(component string) *Logger {
	return &Logger{std: log.New(os.Stderr, "["+component+"] ", log.LstdFlags)}
}

func (l *Logger) Info(format string, args ...interface{})  { l.std.Printf("[INFO] "+format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.std.Printf("[WARN] "+format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.std.Printf("[ERROR] "+format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.std.Printf("[DEBUG] "+format, args...) }
