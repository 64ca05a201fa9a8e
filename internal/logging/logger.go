// Package logging provides structured logging for the DocVault backend.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// global logger instance
	global zerolog.Logger
	once   sync.Once
)

// Init initializes the global logger. Console selects the human-readable
// writer for interactive runs; otherwise entries are JSON lines.
func Init(out io.Writer, level string, console bool) {
	once.Do(func() {
		lvl, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}
		if console {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}
		global = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	})
}

// Get returns the global logger instance, initializing it with defaults if
// Init was never called.
func Get() *zerolog.Logger {
	Init(os.Stdout, "info", false)
	return &global
}

// Convenience functions using the global logger

func Debug(message string, fields ...map[string]interface{}) {
	Get().Debug().Fields(merge(fields)).Msg(message)
}

func Info(message string, fields ...map[string]interface{}) {
	Get().Info().Fields(merge(fields)).Msg(message)
}

func Warn(message string, fields ...map[string]interface{}) {
	Get().Warn().Fields(merge(fields)).Msg(message)
}

func Error(message string, err error, fields ...map[string]interface{}) {
	Get().Error().Err(err).Fields(merge(fields)).Msg(message)
}

// merge flattens multiple context maps into one.
func merge(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	if len(fields) == 1 {
		return fields[0]
	}
	merged := make(map[string]interface{})
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	return merged
}
