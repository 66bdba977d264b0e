package icon

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssicon/screensaver-icon/internal/screensaver"
)

func TestDefaultIcons(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	for _, data := range [][]byte{set.On, set.Off} {
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, defaultSize, cfg.Width)
		assert.Equal(t, defaultSize, cfg.Height)
	}
	assert.NotEqual(t, set.On, set.Off)
}

func TestFor(t *testing.T) {
	set := &Set{On: []byte("on"), Off: []byte("off")}

	assert.Equal(t, []byte("on"), set.For(screensaver.StateOn))
	assert.Equal(t, []byte("off"), set.For(screensaver.StateOff))
	assert.Equal(t, []byte("off"), set.For(screensaver.StateUnknown))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	custom := filepath.Join(dir, "on.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	require.NoError(t, os.WriteFile(custom, buf.Bytes(), 0644))

	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("not an image"), 0644))

	defaults, err := Default()
	require.NoError(t, err)

	t.Run("defaults", func(t *testing.T) {
		set, err := Load("", "")
		require.NoError(t, err)
		assert.Equal(t, defaults, set)
	})

	t.Run("custom on icon", func(t *testing.T) {
		set, err := Load(custom, "")
		require.NoError(t, err)
		assert.Equal(t, buf.Bytes(), set.On)
		assert.Equal(t, defaults.Off, set.Off)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("", filepath.Join(dir, "nope.png"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := Load(broken, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid icon")
	})
}

func TestStatusAndTooltip(t *testing.T) {
	tests := []struct {
		name        string
		state       screensaver.State
		err         error
		wantStatus  string
		wantTooltip string
	}{
		{"running", screensaver.StateOn, nil, "Screensaver: running", "Screensaver Icon (running)"},
		{"stopped", screensaver.StateOff, nil, "Screensaver: stopped", "Screensaver Icon (stopped)"},
		{"unknown", screensaver.StateUnknown, nil, "Screensaver: checking...", "Screensaver Icon (unknown)"},
		{"error", screensaver.StateOff, errors.New("exec: not found"), "Screensaver: error", "Screensaver Icon: exec: not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, Status(tt.state, tt.err))
			assert.Equal(t, tt.wantTooltip, Tooltip(tt.state, tt.err))
		})
	}
}
