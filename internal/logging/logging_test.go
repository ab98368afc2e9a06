package logging

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel(" error "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
}

func TestSelectWriter(t *testing.T) {
	orig := isTerminalFn
	t.Cleanup(func() { isTerminalFn = orig })

	isTerminalFn = func(int) bool { return false }
	assert.Equal(t, os.Stderr, selectWriter("auto"))
	assert.IsType(t, zerolog.ConsoleWriter{}, selectWriter("console"))

	isTerminalFn = func(int) bool { return true }
	assert.IsType(t, zerolog.ConsoleWriter{}, selectWriter("auto"))
	assert.Equal(t, os.Stderr, selectWriter("json"))
}
