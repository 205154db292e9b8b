package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLogger_JSONWithTraceID(t *testing.T) {
	var buf bytes.Buffer
	result := newLoggerTo(Config{Level: "debug", Format: FormatJSON, Output: OutputStderr}, &buf)
	require.False(t, result.UsingFile)

	logger := ComponentLogger(result.Logger, "cache")
	ctx := ContextWithTraceID(context.Background(), "trace-123")
	logger.Debug().Ctx(ctx).Msg("hello")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "cache", event["component"])
	assert.Equal(t, "trace-123", event["trace_id"])
	assert.Equal(t, "hello", event["message"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	result := newLoggerTo(Config{Level: "warn", Format: FormatJSON}, &buf)

	result.Logger.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	result.Logger.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewLoggerWithPath_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "needle.log")
	result := NewLoggerWithPath(Config{Level: "info", Format: FormatJSON, Output: OutputFile, File: path})
	t.Cleanup(func() { _ = result.Close() })

	assert.True(t, result.UsingFile)
	assert.False(t, result.FallbackUsed)
	assert.Equal(t, path, result.FilePath)
	require.NoError(t, result.Close())
	assert.NoError(t, result.Close(), "second close is a no-op")
}

func TestNewLoggerWithPath_Fallback(t *testing.T) {
	// A path under a regular file cannot be created.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	f := NewLoggerWithPath(Config{Output: OutputFile, File: blocker})
	require.NoError(t, f.Close())

	result := NewLoggerWithPath(Config{Output: OutputFile, File: filepath.Join(blocker, "x.log")})
	assert.False(t, result.UsingFile)
	assert.True(t, result.FallbackUsed)
	assert.NotEmpty(t, result.FallbackReason)
}

func TestTraceIDs(t *testing.T) {
	a := GenerateTraceID()
	b := GenerateTraceID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "monotonic ulids sort in creation order")

	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))
	assert.NotEmpty(t, GetOrGenerateTraceID(ctx))

	ctx = ContextWithTraceID(ctx, a)
	assert.Equal(t, a, GetOrGenerateTraceID(ctx))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := logger.WithContext(context.Background())

	FromContext(ctx).Info().Msg("via context")
	assert.Contains(t, buf.String(), "via context")

	//nolint:staticcheck // nil context is handled explicitly
	assert.NotPanics(t, func() { FromContext(nil).Info().Msg("nop") })
}
