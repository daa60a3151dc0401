package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

var (
	verbose     = false
	disableLogs = false
	forceStdErr = false
	logPrefixes = map[int]string{
		levelDebug: "\033[37m[DBG]\033[0m", // White
		levelInfo:  "\033[36m[INF]\033[0m", // Cyan
		levelWarn:  "\033[33m[WRN]\033[0m", // Yellow
		levelError: "\033[31m[ERR]\033[0m", // Red
	}
	levelNames = map[int]string{
		levelDebug: "DEBUG",
		levelInfo:  "INFO",
		levelWarn:  "WARN",
		levelError: "ERROR",
	}

	hooksMu sync.RWMutex
	hooks   = map[int]Hook{}
	hookSeq = 0
)

// Record is a single log entry delivered to hooks.
type Record struct {
	Time  time.Time `json:"time"`
	Level string    `json:"level"`
	File  string    `json:"file"`
	Msg   string    `json:"msg"`
}

// Hook receives every record, including debug records, regardless of
// verbosity and of DisableLogs.
type Hook func(Record)

// SetVerbose sets the logging verbosity. If true, all log levels are displayed.
func SetVerbose(v bool) {
	verbose = v
}

// IsVerbose returns true if verbose logging is enabled.
func IsVerbose() bool {
	return verbose
}

// DisableLogs disables console output. Hooks still receive records.
func DisableLogs() {
	disableLogs = true
}

// IsDisabled returns true if console logging is disabled.
func IsDisabled() bool {
	return disableLogs
}

// SetForceStdErr sends all console output to stderr.
func SetForceStdErr(v bool) {
	forceStdErr = v
}

// AddHook registers h and returns a function removing it.
func AddHook(h Hook) (remove func()) {
	hooksMu.Lock()
	hookSeq++
	id := hookSeq
	hooks[id] = h
	hooksMu.Unlock()

	return func() {
		hooksMu.Lock()
		delete(hooks, id)
		hooksMu.Unlock()
	}
}

// Debugf logs a debug message if verbose is true.
func Debugf(format string, args ...interface{}) {
	logMessage(levelDebug, format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	logMessage(levelInfo, format, args...)
}

// Warnf logs a warning message.
func Warnf(format string, args ...interface{}) {
	logMessage(levelWarn, format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	logMessage(levelError, format, args...)
}

// Fatalf logs an error message and exits the program.
func Fatalf(format string, args ...interface{}) {
	logMessage(levelError, format, args...)
	os.Exit(1)
}

// logMessage formats and writes a log message with the specified log level.
func logMessage(level int, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	dispatch(level, message)

	if disableLogs || (level == levelDebug && !verbose) {
		return
	}
	output := logPrefixes[level] + " " + message + "\n"

	// Write the output to the appropriate stream
	if forceStdErr || level == levelError {
		_, _ = os.Stderr.WriteString(output)
	} else {
		_, _ = os.Stdout.WriteString(output)
	}
}

func dispatch(level int, message string) {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	if len(hooks) == 0 {
		return
	}

	rec := Record{
		Time:  time.Now().UTC(),
		Level: levelNames[level],
		Msg:   message,
	}
	// logMessage <- Xxxf <- caller
	if _, file, line, ok := runtime.Caller(3); ok {
		rec.File = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	for _, h := range hooks {
		h(rec)
	}
}
