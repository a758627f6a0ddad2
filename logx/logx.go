// Package logx carries the process-wide logger. Every component logs through
// it so driver diagnostics, allocation traces and frame stats share one sink.
package logx

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	once      sync.Once
	singleton *log.Logger
)

func get() *log.Logger {
	once.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "prism",
		})
		singleton.SetLevel(log.InfoLevel)
	})
	return singleton
}

// SetLevel adjusts the global log level. Accepts the charmbracelet level
// names: debug, info, warn, error, fatal.
func SetLevel(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		get().Warnf("unknown log level %q, keeping %s", level, get().GetLevel())
		return
	}
	get().SetLevel(parsed)
}

func Debug(msg string, args ...interface{}) { get().Debugf(msg, args...) }
func Info(msg string, args ...interface{})  { get().Infof(msg, args...) }
func Warn(msg string, args ...interface{})  { get().Warnf(msg, args...) }
func Error(msg string, args ...interface{}) { get().Errorf(msg, args...) }
func Fatal(msg string, args ...interface{}) { get().Fatalf(msg, args...) }
