// Package logging provides the env-gated diagnostic log for the wrapper.
// The shim runs inside other people's processes, so logging defaults to off
// and is enabled with DINPUT8_LOG_ENABLE; lines append to a file in the
// working directory. None of this is part of the functional contract.
package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

const (
	// EnvEnable turns file logging on when set to "1" or "true".
	EnvEnable = "DINPUT8_LOG_ENABLE"

	// EnvFile overrides the log file path.
	EnvFile = "DINPUT8_LOG_FILE"

	defaultFile = "dinput8-wrapper.log"
)

var (
	once   sync.Once
	logger *log.Logger
)

// Enabled reports whether the gate variable asks for logging.
func Enabled() bool {
	v := os.Getenv(EnvEnable)
	return v == "1" || strings.EqualFold(v, "true")
}

// Logger returns the process-wide diagnostic logger, or nil when logging is
// disabled or the log file cannot be opened. Callers nil-check, matching the
// convention used across the codebase.
func Logger() *log.Logger {
	once.Do(func() {
		if !Enabled() {
			return
		}
		path := os.Getenv(EnvFile)
		if path == "" {
			path = defaultFile
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			// A diagnostic failure never affects the wrapped API.
			return
		}
		logger = log.New(f, "", log.LstdFlags)
	})
	return logger
}

// New builds a logger onto an arbitrary sink, for tests and the monitor.
func New(w io.Writer) *log.Logger {
	return log.New(w, "", log.LstdFlags)
}

// Printf logs through the process-wide logger when one exists.
func Printf(format string, args ...interface{}) {
	if l := Logger(); l != nil {
		l.Printf(format, args...)
	}
}
