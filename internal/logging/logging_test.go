package logging

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	l := NewLogger(LogFormatJSON, "debug")
	require.Equal(t, logrus.DebugLevel, l.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	l = NewLogger(LogFormatText, "nonsense")
	require.Equal(t, logrus.InfoLevel, l.GetLevel())
	require.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}

func TestLogFormat_Decode(t *testing.T) {
	var f LogFormat
	require.NoError(t, f.Decode("json"))
	require.Equal(t, LogFormatJSON, f)
	require.Error(t, f.Decode("xml"))
}

func TestWithRunID(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	id := WithRunID(logger)
	hook := test.NewLocal(logger)

	logger.Info("one")
	logger.WithField("run", "override").Info("two")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	require.Equal(t, id.String(), entries[0].Data["run"])
	require.Equal(t, "override", entries[1].Data["run"])
}
