package logging

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"imageprep/types"
)

// level is the prefix written in front of every line
type level string

const (
	levelDebug   level = "DEBUG"
	levelInfo    level = "INFO"
	levelWarning level = "WARNING"
	levelError   level = "ERROR"
)

var (
	mu      sync.Mutex
	logFile *os.File
	logger  *log.Logger
)

// SetupLogger opens path for appending and starts writing debug lines to it.
// Calling it again while a file is open is a no-op.
func SetupLogger(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %v", err)
	}

	logFile = f
	logger = log.New(f, "", log.LstdFlags)
	logger.Printf("--- ImagePrep Debug Log Started at %s ---", time.Now().Format(time.RFC3339))
	return nil
}

// CloseLogger writes the closing banner and closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logger == nil {
		return
	}
	logger.Printf("--- ImagePrep Debug Log Closed at %s ---", time.Now().Format(time.RFC3339))
	logFile.Close()
	logFile = nil
	logger = nil
}

// IsEnabled reports whether a debug log file is open. Callers use it to
// avoid building messages nobody will read.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return logger != nil
}

func logf(l level, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		logger.Printf("%s: %s", l, fmt.Sprintf(format, args...))
	}
}

// LogDebug logs detail that is only useful when tracing a run
func LogDebug(format string, args ...interface{}) { logf(levelDebug, format, args...) }

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) { logf(levelInfo, format, args...) }

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) { logf(levelWarning, format, args...) }

// LogError logs an error message
func LogError(format string, args ...interface{}) { logf(levelError, format, args...) }

// LogEvent logs the outcome of one stage for one file. Failures are
// errors, missing counterparts are warnings, everything else is info.
func LogEvent(e types.Event) {
	l := levelInfo
	switch e.Action {
	case types.ActionFailed:
		l = levelError
	case types.ActionMissingCounterpart:
		l = levelWarning
	}

	line := fmt.Sprintf("[%s] %s %s", e.Stage, e.Action, e.Path)
	if e.FromWidth != e.ToWidth || e.FromHeight != e.ToHeight {
		line += fmt.Sprintf(" (%dx%d -> %dx%d)", e.FromWidth, e.FromHeight, e.ToWidth, e.ToHeight)
	}
	if e.Message != "" {
		line += ": " + e.Message
	}
	logf(l, "%s", line)
}
