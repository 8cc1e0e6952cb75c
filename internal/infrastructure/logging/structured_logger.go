package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ServiceName is stamped on every entry.
const ServiceName = "fast_slow_math"

// StructuredLogger provides ELK-compatible JSON logging.
//
// Design Principles:
// - JSON structured output for easy parsing, text for terminals
// - Standard fields (@timestamp, level, message, etc.)
// - Thread-safe logging
// - Solve fields (solve_id, problem_id, strategy, trace_id) promoted to top level
type StructuredLogger struct {
	mu       sync.Mutex
	writer   io.Writer
	minLevel LogLevel
	text     bool
	fields   map[string]interface{} // Global fields for all logs
}

// LogLevel represents logging severity levels.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a configured level name.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %s", s)
	}
}

// LogEntry represents a single log entry in ELK-compatible format.
type LogEntry struct {
	// Standard ELK fields
	Timestamp  string                 `json:"@timestamp"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Logger     string                 `json:"logger,omitempty"`
	SourceFile string                 `json:"source_file,omitempty"`
	SourceLine int                    `json:"source_line,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`

	// Solve correlation fields
	SolveID   string `json:"solve_id,omitempty"`
	ProblemID string `json:"problem_id,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	SpanID    string `json:"span_id,omitempty"`

	// Error tracking
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

// Options selects the output of a logger.
type Options struct {
	Writer io.Writer
	Level  LogLevel
	Text   bool
}

// NewStructuredLogger creates a new JSON logger.
func NewStructuredLogger(writer io.Writer, minLevel LogLevel) *StructuredLogger {
	return New(Options{Writer: writer, Level: minLevel})
}

// New creates a logger from options.
func New(opts Options) *StructuredLogger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	hostname, _ := os.Hostname()

	return &StructuredLogger{
		writer:   writer,
		minLevel: opts.Level,
		text:     opts.Text,
		fields: map[string]interface{}{
			"service": ServiceName,
			"host":    hostname,
		},
	}
}

// NewFromConfig builds a logger from the logging section values.
func NewFromConfig(level, format, output string) (*StructuredLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var w io.Writer = os.Stdout
	if output == "stderr" {
		w = os.Stderr
	}
	return New(Options{Writer: w, Level: lvl, Text: format == "text"}), nil
}

// NewDefaultLogger creates a logger with INFO level to stdout.
func NewDefaultLogger() *StructuredLogger {
	return NewStructuredLogger(os.Stdout, InfoLevel)
}

// Discard returns a logger that drops everything.
func Discard() *StructuredLogger {
	return New(Options{Writer: io.Discard, Level: ErrorLevel + 1})
}

// SetMinLevel sets the minimum log level.
func (l *StructuredLogger) SetMinLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// WithField adds a global field to all log entries.
func (l *StructuredLogger) WithField(key string, value interface{}) *StructuredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fields[key] = value
	return l
}

// Debug logs a debug-level message.
func (l *StructuredLogger) Debug(message string, fields ...map[string]interface{}) {
	l.log(DebugLevel, message, nil, fields...)
}

// Info logs an info-level message.
func (l *StructuredLogger) Info(message string, fields ...map[string]interface{}) {
	l.log(InfoLevel, message, nil, fields...)
}

// Warn logs a warning-level message.
func (l *StructuredLogger) Warn(message string, fields ...map[string]interface{}) {
	l.log(WarnLevel, message, nil, fields...)
}

// Error logs an error-level message.
func (l *StructuredLogger) Error(message string, err error, fields ...map[string]interface{}) {
	l.log(ErrorLevel, message, err, fields...)
}

// log is the internal logging function.
func (l *StructuredLogger) log(level LogLevel, message string, err error, fields ...map[string]interface{}) {
	l.mu.Lock()
	min := l.minLevel
	l.mu.Unlock()
	if level < min {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   message,
		Logger:    ServiceName,
		Fields:    make(map[string]interface{}),
	}

	// Source of the public method's caller; LoggerContext adds a frame.
	for skip := 2; skip < 5; skip++ {
		_, file, line, ok := runtime.Caller(skip)
		if !ok {
			break
		}
		if !strings.HasSuffix(file, "structured_logger.go") {
			entry.SourceFile = file
			entry.SourceLine = line
			break
		}
	}

	l.mu.Lock()
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	l.mu.Unlock()

	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			s, isString := v.(string)
			switch {
			case k == "solve_id" && isString:
				entry.SolveID = s
			case k == "problem_id" && isString:
				entry.ProblemID = s
			case k == "strategy" && isString:
				entry.Strategy = s
			case k == "trace_id" && isString:
				entry.TraceID = s
			case k == "span_id" && isString:
				entry.SpanID = s
			default:
				entry.Fields[k] = v
			}
		}
	}

	if err != nil {
		entry.Error = err.Error()
		entry.ErrorType = fmt.Sprintf("%T", err)
	}

	var data []byte
	if l.text {
		data = []byte(formatText(&entry))
	} else {
		var mErr error
		data, mErr = json.Marshal(&entry)
		if mErr != nil {
			data = []byte(fmt.Sprintf("{\"error\":\"failed to encode log entry\",\"original_message\":%q}", message))
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Write(append(data, '\n'))
}

// formatText renders an entry on one line for terminals.
func formatText(e *LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", e.Timestamp, e.Level, e.Message)
	pairs := map[string]string{
		"solve_id":   e.SolveID,
		"problem_id": e.ProblemID,
		"strategy":   e.Strategy,
		"trace_id":   e.TraceID,
		"error":      e.Error,
	}
	for k, v := range e.Fields {
		if k == "service" || k == "host" {
			continue
		}
		pairs[k] = fmt.Sprint(v)
	}
	keys := make([]string, 0, len(pairs))
	for k, v := range pairs {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%q", k, pairs[k])
	}
	return b.String()
}

// LoggerContext provides contextual logging with pre-set fields.
type LoggerContext struct {
	logger *StructuredLogger
	fields map[string]interface{}
}

// NewContext creates a new logger context with pre-set fields.
func (l *StructuredLogger) NewContext(fields map[string]interface{}) *LoggerContext {
	return &LoggerContext{
		logger: l,
		fields: fields,
	}
}

// FromContext creates a logger context carrying the trace and span IDs of
// the span in ctx, if any.
func (l *StructuredLogger) FromContext(ctx context.Context, fields map[string]interface{}) *LoggerContext {
	merged := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		merged[k] = v
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		merged["trace_id"] = sc.TraceID().String()
		merged["span_id"] = sc.SpanID().String()
	}
	return l.NewContext(merged)
}

// With returns a child context with additional fields.
func (lc *LoggerContext) With(fields map[string]interface{}) *LoggerContext {
	return &LoggerContext{logger: lc.logger, fields: lc.mergeFields(fields)}
}

// Debug logs a debug-level message with context fields.
func (lc *LoggerContext) Debug(message string, fields ...map[string]interface{}) {
	lc.logger.Debug(message, lc.mergeFields(fields...))
}

// Info logs an info-level message with context fields.
func (lc *LoggerContext) Info(message string, fields ...map[string]interface{}) {
	lc.logger.Info(message, lc.mergeFields(fields...))
}

// Warn logs a warning-level message with context fields.
func (lc *LoggerContext) Warn(message string, fields ...map[string]interface{}) {
	lc.logger.Warn(message, lc.mergeFields(fields...))
}

// Error logs an error-level message with context fields.
func (lc *LoggerContext) Error(message string, err error, fields ...map[string]interface{}) {
	lc.logger.Error(message, err, lc.mergeFields(fields...))
}

// mergeFields merges context fields with additional fields.
func (lc *LoggerContext) mergeFields(fields ...map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(lc.fields))

	for k, v := range lc.fields {
		merged[k] = v
	}

	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			merged[k] = v
		}
	}

	return merged
}
