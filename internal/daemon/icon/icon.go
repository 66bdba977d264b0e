// Package icon holds the tray images and the text shown next to them.
package icon

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // decoder for custom icons
	_ "image/jpeg" // decoder for custom icons
	"image/png"
	"os"

	"github.com/ssicon/screensaver-icon/internal/buildinfo"
	"github.com/ssicon/screensaver-icon/internal/screensaver"
)

const defaultSize = 22

var (
	onColor  = color.RGBA{R: 0x3a, G: 0xb0, B: 0x4c, A: 0xff}
	offColor = color.RGBA{R: 0x8a, G: 0x8a, B: 0x8a, A: 0xff}
)

// Set is the pair of images shown while the daemon runs and while it does not.
type Set struct {
	On  []byte
	Off []byte
}

// For returns the image for state. Unknown shows the off image.
func (s *Set) For(state screensaver.State) []byte {
	if state == screensaver.StateOn {
		return s.On
	}
	return s.Off
}

// Load reads custom images, falling back to the built-in ones for empty paths.
// A file that is not a decodable image is an error.
func Load(onPath, offPath string) (*Set, error) {
	set, err := Default()
	if err != nil {
		return nil, err
	}
	if onPath != "" {
		if set.On, err = readImage(onPath); err != nil {
			return nil, err
		}
	}
	if offPath != "" {
		if set.Off, err = readImage(offPath); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Default returns the built-in images: a green dot and a grey dot.
func Default() (*Set, error) {
	on, err := dot(onColor)
	if err != nil {
		return nil, err
	}
	off, err := dot(offColor)
	if err != nil {
		return nil, err
	}
	return &Set{On: on, Off: off}, nil
}

func readImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read icon %s: %w", path, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("invalid icon %s: %w", path, err)
	}
	return data, nil
}

func dot(c color.RGBA) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, defaultSize, defaultSize))
	center := float64(defaultSize-1) / 2
	r := float64(defaultSize)/2 - 2
	for y := 0; y < defaultSize; y++ {
		for x := 0; x < defaultSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Status is the menu line describing state.
func Status(state screensaver.State, err error) string {
	if err != nil {
		return "Screensaver: error"
	}
	switch state {
	case screensaver.StateOn:
		return "Screensaver: running"
	case screensaver.StateOff:
		return "Screensaver: stopped"
	default:
		return "Screensaver: checking..."
	}
}

// Tooltip is the hover text for state.
func Tooltip(state screensaver.State, err error) string {
	if err != nil {
		return fmt.Sprintf("%s: %v", buildinfo.AppName, err)
	}
	return fmt.Sprintf("%s (%s)", buildinfo.AppName, state)
}
