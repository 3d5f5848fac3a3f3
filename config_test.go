package parcoords

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chart.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
width = 640
refresh-interval = "8ms"
palette = ["#000000", "#ff0000"]
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 640.0, c.Width)
	assert.Equal(t, Duration(8*time.Millisecond), c.RefreshInterval)
	assert.Equal(t, []string{"#000000", "#ff0000"}, c.Palette)
	assert.Equal(t, DefaultConfig().Height, c.Height, "unset keys keep their defaults")
	assert.Equal(t, DefaultConfig().BlockLines, c.BlockLines)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"opacity out of range", "context-opacity = 2"},
		{"bad duration", `refresh-interval = "soon"`},
		{"bad colour", `background = "#12"`},
		{"no plot room", "height = 10\nhandle-height = 16"},
		{"malformed", "width = "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.True(t, errors.Is(err, ErrInvalidConfig), "error = %v", err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateReportsAllProblems(t *testing.T) {
	c := DefaultConfig()
	c.BlockLines = 0
	c.PixelRatio = -1
	err := c.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "block-lines")
	assert.Contains(t, err.Error(), "pixel-ratio")
}

func TestDurationText(t *testing.T) {
	d := Duration(250 * time.Millisecond)
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "250ms", string(b))

	var back Duration
	require.NoError(t, back.UnmarshalText(b))
	assert.Equal(t, d, back)
}
