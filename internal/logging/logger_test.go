package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, parseLevel("debug"))
	assert.Equal(t, log.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, log.ErrorLevel, parseLevel(" error "))
	assert.Equal(t, log.InfoLevel, parseLevel(""))
	assert.Equal(t, log.InfoLevel, parseLevel("verbose"))
}

func TestNewBaseFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	base := newBase(&buf, "warn", false)

	base.Info("hidden")
	base.Warn("shown", "sandbox_id", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "sandbox_id=abc")
}

func TestNewBaseDebugOverridesLevel(t *testing.T) {
	var buf bytes.Buffer
	base := newBase(&buf, "error", true)

	base.Debug("details")
	assert.Contains(t, buf.String(), "details")
}

func TestPackageLoggerInitializesLazily(t *testing.T) {
	require.NotNil(t, GetLogger())
	require.NotNil(t, With("component", "test"))
}
