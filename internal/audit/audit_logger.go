// Package audit writes one JSON line per merge request.
package audit

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Entry is one finished merge.
type Entry struct {
	RequestID  string        `json:"request_id,omitempty"`
	OutputName string        `json:"output_name"`
	Inputs     int           `json:"inputs"`
	Segments   int           `json:"segments,omitempty"`
	Format     string        `json:"format,omitempty"`
	Processing bool          `json:"processing"`
	Result     string        `json:"result"` // success, failed, rejected
	ErrorKind  string        `json:"error_kind,omitempty"`
	Error      string        `json:"error_message,omitempty"`
	FinalURL   string        `json:"final_url,omitempty"`
	Duration   time.Duration `json:"-"`
}

// Logger records merge entries with automatic log rotation.
type Logger struct {
	mu     sync.Mutex
	closer io.Closer
	logger *log.Logger
}

// NewLogger writes to logPath, rotated by size and age.
func NewLogger(logPath string) *Logger {
	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    100, // MB
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}
	l := NewWithWriter(writer)
	l.closer = writer
	return l
}

// NewWithWriter writes entries to w.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{logger: log.New(w, "", 0)}
}

// Record serializes e with a timestamp.
func (l *Logger) Record(e Entry) {
	record := struct {
		Timestamp  string `json:"timestamp"`
		DurationMs int64  `json:"duration_ms"`
		Entry
	}{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		DurationMs: e.Duration.Milliseconds(),
		Entry:      e,
	}

	data, _ := json.Marshal(record)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Println(string(data))
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
