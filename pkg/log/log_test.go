package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	boom := errors.New("boom")

	tests := []struct {
		name     string
		input    []any
		wantKeys []string
	}{
		{"empty input", nil, nil},
		{"pairs", []any{"machineID", "robot-001", "payloadIdx", uint64(7), "gpsOn", true}, []string{"machineID", "payloadIdx", "gpsOn"}},
		{"time and duration", []any{"at", now, "interval", time.Second}, []string{"at", "interval"}},
		{"bytes", []any{"data", []byte("xyz")}, []string{"data"}},
		{"error only", []any{boom}, []string{"error"}},
		{"field between pairs", []any{"a", 1, zap.String("x", "y"), "b", 2}, []string{"a", "x", "b"}},
		{"trailing value", []any{"key1", "val1", "dangling"}, []string{"key1", "extra"}},
		{"non-string key", []any{42, "value"}, []string{"42"}},
		{"named error value", []any{"cause", boom}, []string{"cause"}},
		{"nil value", []any{"a", nil}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)

			keys := make([]string, 0, len(fields))
			for _, f := range fields {
				keys = append(keys, f.Key)
			}
			if len(tt.wantKeys) == 0 {
				assert.Empty(t, keys)
				return
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestToFieldsKeepsTypes(t *testing.T) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range toFields("payloadIdx", uint64(7), "lat", 40.7128, "interval", time.Second) {
		f.AddTo(enc)
	}
	assert.Equal(t, uint64(7), enc.Fields["payloadIdx"])
	assert.Equal(t, 40.7128, enc.Fields["lat"])
	assert.Equal(t, time.Second, enc.Fields["interval"])
}

func TestFromZapKeepsStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).WithName("mapper").WithValues("machineID", "robot-001")

	l.Error(errors.New("dial tcp: refused"), "Submission failed", "payloadIdx", uint(3))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Submission failed", entries[0].Message)
	assert.Equal(t, "mapper", entries[0].LoggerName)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "robot-001", ctx["machineID"])
	assert.Equal(t, uint64(3), ctx["payloadIdx"])
	assert.Equal(t, "dial tcp: refused", ctx["error"])
}

func TestOptionsValidate(t *testing.T) {
	opts := NewOptions()
	assert.Empty(t, opts.Validate())

	opts.Level = "loud"
	opts.Format = "xml"
	opts.CallerSkip = -1
	opts.OutputPaths = []string{"stderr", ""}
	assert.Len(t, opts.Validate(), 4)
}

func TestNewOptionsDefaults(t *testing.T) {
	opts := NewOptions()
	assert.Equal(t, "rfmapper", opts.Name)
	assert.Equal(t, []string{"stderr"}, opts.OutputPaths)
	assert.False(t, opts.EnableColor)
}
