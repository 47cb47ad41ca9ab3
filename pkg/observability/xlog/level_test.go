package xlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" INFO ", LevelInfo},
		{"warning", LevelWarn},
		{"Warn", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	got, err := ParseLevel("trace")
	assert.ErrorIs(t, err, ErrUnknownLevel)
	assert.Contains(t, err.Error(), "debug, info, warn, error")
	assert.Equal(t, LevelInfo, got)
}

func TestLevelNames_RoundTrip(t *testing.T) {
	names := LevelNames()
	require.Len(t, names, 4)
	prev := Level(-100)
	for _, name := range names {
		l, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Greater(t, l, prev, "levels ascend by severity")
		assert.Equal(t, strings.ToUpper(name), l.String())
		prev = l
	}
}

func TestLevel_Text(t *testing.T) {
	b, err := LevelWarn.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "WARN", string(b))
	assert.Equal(t, "INFO+2", Level(2).String())

	var l Level
	require.NoError(t, l.UnmarshalText([]byte("debug")))
	assert.Equal(t, LevelDebug, l)
	assert.Error(t, l.UnmarshalText([]byte("loud")))
}
