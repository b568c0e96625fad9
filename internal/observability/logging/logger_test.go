package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{name: "default log level (info)", logLevel: ""},
		{name: "debug log level", logLevel: "debug"},
		{name: "invalid log level defaults to info", logLevel: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.logLevel != "" {
				t.Setenv("LOG_LEVEL", tt.logLevel)
			}

			logger := NewLogger()
			assert.NotNil(t, logger, "logger should not be nil")
		})
	}
}

func TestNewTextLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{name: "default log level", logLevel: ""},
		{name: "debug log level", logLevel: "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.logLevel != "" {
				t.Setenv("LOG_LEVEL", tt.logLevel)
			}

			logger := NewTextLogger()
			assert.NotNil(t, logger, "logger should not be nil")
		})
	}
}

func TestLogger_DebugLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	logger.Debug("this should not appear")
	logger.Info("this should appear")

	output := buf.String()
	assert.NotContains(t, output, "this should not appear", "debug message should be filtered")
	assert.Contains(t, output, "this should appear", "info message should be logged")
}

func TestWithService(t *testing.T) {
	tests := []struct {
		name    string
		service string
	}{
		{name: "sports data service", service: "sports-data"},
		{name: "inference service", service: "inference"},
		{name: "content service", service: "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})
			baseLogger := slog.New(handler)

			logger := WithService(baseLogger, tt.service)
			logger.Info("test message")

			var logEntry map[string]interface{}
			err := json.Unmarshal(buf.Bytes(), &logEntry)
			require.NoError(t, err, "output should be valid JSON")
			assert.Equal(t, tt.service, logEntry["service"], "service tag should match")
		})
	}
}

func TestWithQueue(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	baseLogger := slog.New(handler)

	logger := WithQueue(baseLogger, "inference")
	logger.Info("test message")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)
	assert.Equal(t, "inference", logEntry["queue"])
}

func TestWithFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{
			name: "single string field",
			fields: map[string]interface{}{
				"job_id": "job-123",
			},
		},
		{
			name: "multiple mixed fields",
			fields: map[string]interface{}{
				"job_id":   "job-456",
				"category": "server_error",
				"attempts": 3,
				"success":  true,
			},
		},
		{
			name: "numeric fields",
			fields: map[string]interface{}{
				"count":    42,
				"duration": 123.45,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})
			baseLogger := slog.New(handler)

			logger := WithFields(baseLogger, tt.fields)
			logger.Info("test message")

			var logEntry map[string]interface{}
			err := json.Unmarshal(buf.Bytes(), &logEntry)
			require.NoError(t, err, "output should be valid JSON")

			for key, expectedValue := range tt.fields {
				assert.Contains(t, logEntry, key, "output should contain field: %s", key)
				switch v := expectedValue.(type) {
				case int:
					assert.Equal(t, float64(v), logEntry[key], "field %s should match", key)
				default:
					assert.Equal(t, v, logEntry[key], "field %s should match", key)
				}
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		check    func(*testing.T, *slog.Logger)
	}{
		{
			name: "with logger in context",
			setupCtx: func() context.Context {
				var buf bytes.Buffer
				handler := slog.NewJSONHandler(&buf, nil)
				logger := slog.New(handler)
				return WithLogger(context.Background(), logger)
			},
			check: func(t *testing.T, logger *slog.Logger) {
				assert.NotNil(t, logger, "should return logger from context")
			},
		},
		{
			name: "without logger in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
			check: func(t *testing.T, logger *slog.Logger) {
				assert.Equal(t, slog.Default(), logger, "should be default logger")
			},
		},
		{
			name: "with invalid value in context",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), loggerContextKey, "not a logger")
			},
			check: func(t *testing.T, logger *slog.Logger) {
				assert.Equal(t, slog.Default(), logger, "should be default logger")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := FromContext(tt.setupCtx())
			tt.check(t, logger)
		})
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(handler)

	newCtx := WithLogger(context.Background(), logger)

	retrievedLogger := FromContext(newCtx)
	require.NotNil(t, retrievedLogger)

	retrievedLogger.Info("test message")
	assert.Contains(t, buf.String(), "test message", "should use the same logger")
}

func TestLogger_JSONStructure(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	logger.Info("test message",
		"service", "sports-data",
		"category", "timeout",
		"attempt", 2,
	)

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err, "output should be valid JSON")

	assert.Equal(t, "test message", logEntry["msg"])
	assert.Equal(t, "INFO", logEntry["level"])
	assert.NotEmpty(t, logEntry["time"])
	assert.Equal(t, "sports-data", logEntry["service"])
	assert.Equal(t, "timeout", logEntry["category"])
	assert.Equal(t, float64(2), logEntry["attempt"])
}

func TestLogger_MultipleLogEntries(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	logger.Info("first message")
	logger.Warn("second message")
	logger.Error("third message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 3, len(lines), "should have 3 log entries")

	for i, line := range lines {
		var logEntry map[string]interface{}
		err := json.Unmarshal([]byte(line), &logEntry)
		require.NoError(t, err, "line %d should be valid JSON", i+1)
		assert.NotEmpty(t, logEntry["msg"], "line %d should have message", i+1)
		assert.NotEmpty(t, logEntry["level"], "line %d should have level", i+1)
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message")
	}
}

func BenchmarkLogger_WithFields(b *testing.B) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	baseLogger := slog.New(handler)

	fields := map[string]interface{}{
		"service":  "inference",
		"category": "rate_limit",
		"attempt":  3,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger := WithFields(baseLogger, fields)
		logger.Info("benchmark message")
	}
}
