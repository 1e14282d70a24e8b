package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/evalpipe/evalpipe/pkg/errors"
)

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		name string
		want Level
	}{
		{name: "debug", want: LevelDebug},
		{name: "info", want: LevelInfo},
		{name: "warn", want: LevelWarn},
		{name: "error", want: LevelError},
		{name: "nonsense", want: LevelInfo},
		{name: "", want: LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToLogLevel(tt.name), tt.name)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestErrFmtHandlerAddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler)

	err := pkgerrors.New("boom")
	logger.Error("operation failed", ErrAttr(err))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "operation failed", entry["msg"])
	assert.Contains(t, entry, StacktraceAttrKey)
}

func TestZerologProviderEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	provider := NewZerologProviderWithLogger(base, LevelDebug)

	logger := provider.GetLoggerWithName("Standard Scaler")
	logger.Info("fitted", SamplesKey, 42)

	out := buf.String()
	assert.Contains(t, out, "fitted")
	assert.Contains(t, out, "Standard Scaler")
	assert.Contains(t, out, "42")
}

func TestZerologProviderLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	provider := NewZerologProviderWithLogger(base, LevelWarn)

	logger := provider.GetLogger()
	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")

	assert.False(t, logger.Enabled(context.Background(), LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), LevelError))
}

func TestZerologProviderRouteWarnings(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	provider := NewZerologProviderWithLogger(base, LevelDebug)
	provider.RouteWarnings()
	t.Cleanup(func() { pkgerrors.SetZerologWarnFunc(nil) })

	pkgerrors.Warn(pkgerrors.NewUndefinedMetricWarning("F1", "no predicted samples", 0))

	out := buf.String()
	assert.Contains(t, out, "UndefinedMetricWarning")
	assert.Contains(t, out, "F1")
}

func TestTestLoggerCapture(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	logger.Info("pipeline fitted", ScoreKey, 0.98)
	logger.Debug("details")

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, logger.ContainsMessage("pipeline fitted"))
	assert.True(t, logger.ContainsField(ScoreKey, 0.98))
	assert.False(t, logger.ContainsMessage("never logged"))

	logger.Clear()
	assert.False(t, logger.ContainsMessage("pipeline fitted"))
}

func TestTestLoggerWith(t *testing.T) {
	logger, buf := NewTestLogger(LevelInfo)
	child := logger.With(ComponentKey, "Simple Imputer")

	child.Info("fitted")

	assert.True(t, strings.Contains(buf.String(), "Simple Imputer"))
}
