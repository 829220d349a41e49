// MIT License
//
// Copyright (c) 2025 nexus-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/log/logger.go
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel defines the severity level of the log message.
type LogLevel int

// Log level constants starting from 0 with iota.
const (
	DEBUG LogLevel = iota // Detailed debug information.
	INFO                  // General informational messages.
	WARN                  // Warnings about potential issues.
	ERROR                 // Error messages.
)

// levelNames associates LogLevel constants with string labels.
var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// currentLevel holds the minimum log level to output.
var currentLevel = INFO

// buffer holds the in-memory copy of log messages, kept so daemon logs
// can be inspected without scraping stdout.
var buffer = &LogBuffer{}

// mu protects the log output to avoid interleaving log messages.
var mu sync.Mutex

// loggerOut writes logs both to stdout and the buffer.
var loggerOut io.Writer = io.MultiWriter(os.Stdout, buffer)

// LogBuffer is a thread-safe bytes.Buffer storing logs in memory.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer for LogBuffer.
func (l *LogBuffer) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

// String returns the current contents of the buffer.
func (l *LogBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// SetLevel sets the global logging level. Messages below this level are
// ignored.
func SetLevel(lvl LogLevel) {
	currentLevel = lvl
}

// logf formats and writes one log line, prefixed with timestamp and
// level name.
func logf(level LogLevel, format string, args ...any) {
	if level < currentLevel {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	ts := time.Now().Format("2006-01-02 15:04:05.000")
	prefix := fmt.Sprintf("%s [%s] ", ts, levelNames[level])
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	_, _ = fmt.Fprint(loggerOut, prefix+msg)
}

// Debug logs a DEBUG level message.
func Debug(format string, args ...any) { logf(DEBUG, format, args...) }

// Info logs an INFO level message.
func Info(format string, args ...any) { logf(INFO, format, args...) }

// Warn logs a WARN level message.
func Warn(format string, args ...any) { logf(WARN, format, args...) }

// Error logs an ERROR level message.
func Error(format string, args ...any) { logf(ERROR, format, args...) }

// Fatalf logs at ERROR level and terminates the process.
func Fatalf(format string, args ...any) {
	logf(ERROR, format, args...)
	os.Exit(1)
}

// GetLogs returns the full log content accumulated in the in-memory
// buffer, useful for inspection and tests.
func GetLogs() string {
	return buffer.String()
}
