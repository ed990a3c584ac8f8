package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// sessionLoggerKey is the context key for storing a per-call logger.
type sessionLoggerKey struct{}

// ContextWithSessionLogger returns a new context carrying the session logger.
func ContextWithSessionLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, sessionLoggerKey{}, logger)
}

// SessionLoggerFromContext extracts the session logger from the context, or nil.
func SessionLoggerFromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(sessionLoggerKey{}).(*Logger); ok {
		return l
	}
	return nil
}

// CallLogMetadata is the first JSON line in each call log file.
type CallLogMetadata struct {
	CallSid   string `json:"call_sid"`
	Direction string `json:"direction,omitempty"`
	StartedAt string `json:"started_at"`
}

// LogEntry is a single JSON log line written after the metadata line.
type LogEntry struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Message   string                 `json:"msg"`
	Attrs     map[string]interface{} `json:"attrs,omitempty"`
}

// CallLogWriter writes structured log lines to a per-call .jsonl file so a
// single call's history can be pulled up without grepping the process log.
type CallLogWriter struct {
	mu      sync.Mutex
	file    *os.File
	logDir  string
	callSid string
}

// NewCallLogWriter creates the log directory and call log file and writes
// the metadata first line.
func NewCallLogWriter(logDir, callSid, direction string) (*CallLogWriter, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("call logger: mkdir %q: %w", logDir, err)
	}

	filePath := filepath.Join(logDir, callSid+".jsonl")
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("call logger: create %q: %w", filePath, err)
	}

	// Write metadata first line.
	meta := CallLogMetadata{
		CallSid:   callSid,
		Direction: direction,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, _ := sonic.Marshal(meta)
	f.Write(data)
	f.Write([]byte("\n"))

	return &CallLogWriter{
		file:    f,
		logDir:  logDir,
		callSid: callSid,
	}, nil
}

// Write appends a structured log line to the call file.
func (w *CallLogWriter) Write(level, msg string, attrs map[string]interface{}) {
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   msg,
		Attrs:     attrs,
	}
	data, err := sonic.Marshal(entry)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		w.file.Write(data)
		w.file.Write([]byte("\n"))
	}
}

// Close flushes and closes the log file.
func (w *CallLogWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
}

// NewSessionLogger creates a Logger that tees output to both the base logger
// (console) and the provided writer. All child loggers created via With()
// inherit this behaviour automatically.
func NewSessionLogger(baseLogger *Logger, writer *CallLogWriter) *Logger {
	handler := func(level string, msg string, attrs map[string]interface{}) {
		// Console output via the base logger's handler.
		if baseLogger.handlerFunc != nil {
			baseLogger.handlerFunc(level, msg, attrs)
		}
		writer.Write(level, msg, attrs)
	}

	return &Logger{
		handlerFunc: handler,
		attrs:       make(map[string]interface{}),
	}
}
