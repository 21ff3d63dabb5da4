package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger wraps the charmbracelet logger so callers don't import it directly.
type Logger struct {
	*log.Logger
}

var (
	logger *Logger
	once   sync.Once
)

// Setup configures the process logger. DEBUG=1 forces debug level with
// caller and timestamp reporting. Only the first call takes effect.
func Setup(level string) {
	once.Do(func() {
		logger = &Logger{Logger: newBase(os.Stderr, level, os.Getenv("DEBUG") == "1")}
	})
}

func newBase(w io.Writer, level string, debug bool) *log.Logger {
	if debug {
		base := log.NewWithOptions(w, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			Prefix:          "sqlplayground",
		})
		base.SetLevel(log.DebugLevel)
		return base
	}

	base := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "sqlplayground",
	})
	base.SetLevel(parseLevel(level))
	return base
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func Debug(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Debug(msg, keyvals...)
}

func Info(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Info(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Error(msg, keyvals...)
}

// Fatal logs and exits with status 1.
func Fatal(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Fatal(msg, keyvals...)
}

// With returns a child logger carrying the given key/value pairs.
func With(keyvals ...interface{}) *log.Logger {
	ensureInitialized()
	return logger.With(keyvals...)
}

func GetLogger() *Logger {
	ensureInitialized()
	return logger
}

func ensureInitialized() {
	if logger == nil {
		Setup("info")
	}
}
