package logging

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

func (f *LogFormat) Decode(value string) error {
	switch LogFormat(value) {
	case LogFormatText, LogFormatJSON:
		*f = LogFormat(value)
		return nil
	default:
		return fmt.Errorf("unknown log format %q", value)
	}
}

// NewLogger returns a stdout logger in the given format and level. An empty
// or unknown level falls back to info.
func NewLogger(format LogFormat, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if format == LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

type fieldHook struct {
	key   string
	value any
}

func (h fieldHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h fieldHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data[h.key]; !ok {
		e.Data[h.key] = h.value
	}
	return nil
}

// WithRunID tags every entry of logger with a fresh run id so the lines of
// one process run can be grouped. It returns the id.
func WithRunID(logger *logrus.Logger) uuid.UUID {
	id := uuid.New()
	logger.AddHook(fieldHook{key: "run", value: id.String()})
	return id
}
