package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"visionserver/internal/model"
)

// Logger provides leveled logging (debug/info/success/warning/error) to files
// and stdout/stderr, and keeps the most recent entries in a bounded ring for
// replay to late stream subscribers.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	logDir     string

	mu      sync.Mutex
	limit   int
	entries []model.LogEntry
	sink    func(model.LogEntry)
}

// New creates a Logger and ensures the log directory exists. bufferLimit
// bounds the in-memory ring; older entries are evicted first.
func New(logDir string, bufferLimit int) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if bufferLimit <= 0 {
		bufferLimit = 100
	}

	l := &Logger{
		logDir:  logDir,
		limit:   bufferLimit,
		entries: make([]model.LogEntry, 0, bufferLimit),
	}
	if err := l.setupLoggers(); err != nil {
		return nil, err
	}
	return l, nil
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers() error {
	infoFile, err := l.openLogFile(filepath.Join(l.logDir, "info.log"))
	if err != nil {
		return err
	}
	warningFile, err := l.openLogFile(filepath.Join(l.logDir, "warning.log"))
	if err != nil {
		return err
	}
	errorFile, err := l.openLogFile(filepath.Join(l.logDir, "error.log"))
	if err != nil {
		return err
	}

	l.infoLog = log.New(io.MultiWriter(os.Stdout, infoFile), "INFO    ", log.Ldate|log.Ltime)
	l.warningLog = log.New(io.MultiWriter(os.Stdout, warningFile), "WARNING ", log.Ldate|log.Ltime)
	l.errorLog = log.New(io.MultiWriter(os.Stderr, errorFile), "ERROR   ", log.Ldate|log.Ltime)
	return nil
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(filename string) (*os.File, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filename, err)
	}
	return file, nil
}

// SetSink attaches a consumer called once per appended entry, after the entry
// has been added to the ring. Used to push log_message events to the hub.
func (l *Logger) SetSink(sink func(model.LogEntry)) {
	l.mu.Lock()
	l.sink = sink
	l.mu.Unlock()
}

// Snapshot returns a copy of the ring contents in append order.
func (l *Logger) Snapshot() []model.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Logger) Debug(module, format string, v ...interface{}) {
	l.emit(model.LevelDebug, l.infoLog, module, format, v...)
}

func (l *Logger) Info(module, format string, v ...interface{}) {
	l.emit(model.LevelInfo, l.infoLog, module, format, v...)
}

func (l *Logger) Success(module, format string, v ...interface{}) {
	l.emit(model.LevelSuccess, l.infoLog, module, format, v...)
}

func (l *Logger) Warning(module, format string, v ...interface{}) {
	l.emit(model.LevelWarning, l.warningLog, module, format, v...)
}

func (l *Logger) Error(module, format string, v ...interface{}) {
	l.emit(model.LevelError, l.errorLog, module, format, v...)
}

func (l *Logger) emit(level model.LogLevel, out *log.Logger, module, format string, v ...interface{}) {
	entry := model.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Module:    module,
		Message:   fmt.Sprintf(format, v...),
	}

	l.mu.Lock()
	if len(l.entries) >= l.limit {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, entry)
	sink := l.sink
	l.mu.Unlock()

	out.Printf("[%s] %s", module, entry.Message)
	if sink != nil {
		sink(entry)
	}
}
