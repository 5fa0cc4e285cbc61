package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        Info,
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"nope":    Info,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
}

func TestZapLogger_WithAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With(map[string]any{"component": "pedigree"})

	l.Warn("dangling reference", map[string]any{
		"pet_id": "p1",
		"err":    errors.New("boom"),
		"":       "ignored",
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "dangling reference", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "pedigree", ctx["component"])
	assert.Equal(t, "p1", ctx["pet_id"])
	assert.Equal(t, "boom", ctx["err"])
	_, hasEmpty := ctx[""]
	assert.False(t, hasEmpty)
}

func TestNew_BuildsBothFormats(t *testing.T) {
	for _, f := range []Format{FormatText, FormatJSON} {
		l, err := New(Options{Level: Debug, Format: f, App: "pet-pedigree"})
		require.NoError(t, err)
		l.Debug("hello", nil)
	}
}
