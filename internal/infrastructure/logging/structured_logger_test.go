package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()
	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewStructuredLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, InfoLevel)

	assert.NotNil(t, logger)
	assert.Equal(t, InfoLevel, logger.minLevel)
	assert.Equal(t, "fast_slow_math", logger.fields["service"])
	assert.False(t, logger.text)
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

// TestParseLevel tests the configured level names
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

// TestNewFromConfig tests building a logger from the logging section
func TestNewFromConfig(t *testing.T) {
	logger, err := NewFromConfig("warn", "text", "stderr")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, logger.minLevel)
	assert.True(t, logger.text)

	_, err = NewFromConfig("loud", "json", "stdout")
	assert.Error(t, err)
}

func TestStructuredLogger_Debug(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, DebugLevel)

	logger.Debug("debug message", map[string]interface{}{
		"key": "value",
	})

	entry := decode(t, buf)
	assert.Equal(t, "DEBUG", entry.Level)
	assert.Equal(t, "debug message", entry.Message)
	assert.Equal(t, "value", entry.Fields["key"])
	assert.NotEmpty(t, entry.Timestamp)
}

// TestStructuredLogger_SolveFields tests promotion of the correlation fields
func TestStructuredLogger_SolveFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, InfoLevel)

	logger.Info("solved", map[string]interface{}{
		"solve_id":   "s1",
		"problem_id": "p1",
		"strategy":   "FAST",
		"trace_id":   "t1",
		"confidence": 0.9,
	})

	entry := decode(t, buf)
	assert.Equal(t, "s1", entry.SolveID)
	assert.Equal(t, "p1", entry.ProblemID)
	assert.Equal(t, "FAST", entry.Strategy)
	assert.Equal(t, "t1", entry.TraceID)
	assert.Equal(t, 0.9, entry.Fields["confidence"])
	assert.NotContains(t, entry.Fields, "solve_id")
	assert.Equal(t, "fast_slow_math", entry.Fields["service"])
}

func TestStructuredLogger_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, InfoLevel)

	logger.Error("oracle failed", errors.New("timeout"))

	entry := decode(t, buf)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "timeout", entry.Error)
	assert.Equal(t, "*errors.errorString", entry.ErrorType)
}

func TestStructuredLogger_MinLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, WarnLevel)

	logger.Debug("debug")
	logger.Info("info")
	assert.Empty(t, buf.String())

	logger.Warn("warn")
	assert.NotEmpty(t, buf.String())

	buf.Reset()
	logger.SetMinLevel(ErrorLevel)
	logger.Warn("warn")
	assert.Empty(t, buf.String())
}

// TestStructuredLogger_Text tests the single-line text format
func TestStructuredLogger_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Options{Writer: buf, Level: InfoLevel, Text: true})

	logger.Info("solved", map[string]interface{}{"strategy": "SLOW", "steps": 5})

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "INFO  solved")
	assert.True(t, strings.HasSuffix(line, `steps="5" strategy="SLOW"`), line)
	assert.NotContains(t, line, "service=")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing", errors.New("boom"))
	assert.Equal(t, ErrorLevel+1, logger.minLevel)
}

func TestStructuredLogger_SourceFile(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, InfoLevel)

	logger.Info("direct")
	entry := decode(t, buf)
	assert.True(t, strings.HasSuffix(entry.SourceFile, "structured_logger_test.go"), entry.SourceFile)
	assert.Greater(t, entry.SourceLine, 0)

	buf.Reset()
	logger.NewContext(nil).Info("through context")
	entry = decode(t, buf)
	assert.True(t, strings.HasSuffix(entry.SourceFile, "structured_logger_test.go"), entry.SourceFile)
}

func TestStructuredLogger_GlobalFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, InfoLevel)
	logger.WithField("version", "1.0.0")

	logger.Info("test")

	entry := decode(t, buf)
	assert.Equal(t, "1.0.0", entry.Fields["version"])
}

func TestLoggerContext_MergeFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, InfoLevel)

	ctx := logger.NewContext(map[string]interface{}{"solve_id": "s1", "context_field": "a"})
	child := ctx.With(map[string]interface{}{"strategy": "FAST"})
	child.Warn("test", map[string]interface{}{"context_field": "b"})

	entry := decode(t, buf)
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "s1", entry.SolveID)
	assert.Equal(t, "FAST", entry.Strategy)
	assert.Equal(t, "b", entry.Fields["context_field"])

	// the parent is untouched
	assert.NotContains(t, ctx.fields, "strategy")
}

// TestLoggerContext_FromContext tests trace correlation from a span context
func TestLoggerContext_FromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, InfoLevel)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.FromContext(ctx, map[string]interface{}{"problem_id": "p1"}).Error("failed", errors.New("x"))

	entry := decode(t, buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry.TraceID)
	assert.Equal(t, "00f067aa0ba902b7", entry.SpanID)
	assert.Equal(t, "p1", entry.ProblemID)

	buf.Reset()
	logger.FromContext(context.Background(), nil).Info("untraced")
	entry = decode(t, buf)
	assert.Empty(t, entry.TraceID)
}

func TestStructuredLogger_ThreadSafety(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, InfoLevel)

	var wg sync.WaitGroup
	numGoroutines := 10
	logsPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < logsPerGoroutine; j++ {
				logger.Info("test message", map[string]interface{}{
					"goroutine": id,
					"iteration": j,
				})
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, numGoroutines*logsPerGoroutine, len(lines))

	for _, line := range lines {
		var entry LogEntry
		assert.NoError(t, json.Unmarshal([]byte(line), &entry))
	}
}

func TestStructuredLogger_TimestampFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStructuredLogger(buf, InfoLevel)

	logger.Info("timestamp test")

	entry := decode(t, buf)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z$`, entry.Timestamp)
}
