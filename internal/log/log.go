package log

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logger     zerolog.Logger
	loggerOnce sync.Once
)

// initLogger initializes the global logger to write human-readable
// console output to stderr. Default minimum level is INFO.
func initLogger() {
	loggerOnce.Do(func() {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	})
}

// SetLevel adjusts the minimum level. Accepts zerolog level names
// ("debug", "info", "warn", "error"); unknown values are ignored.
func SetLevel(level string) {
	initLogger()
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		return
	}
	logger = logger.Level(l)
}

func Debug(msg string, kv ...any) {
	initLogger()
	emit(logger.Debug(), msg, kv)
}

func Info(msg string, kv ...any) {
	initLogger()
	emit(logger.Info(), msg, kv)
}

func Warn(msg string, kv ...any) {
	initLogger()
	emit(logger.Warn(), msg, kv)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	emit(logger.Error().Err(err), msg, kv)
}

// emit attaches key-value pairs to the event and writes it.
// Expect kv as pairs: key, value, key, value, ...
func emit(e *zerolog.Event, msg string, kv []any) {
	if len(kv) > 0 {
		e = e.Fields(kv)
	}
	e.Msg(msg)
}
