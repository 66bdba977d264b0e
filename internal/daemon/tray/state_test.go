package tray

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssicon/screensaver-icon/internal/daemon/icon"
	"github.com/ssicon/screensaver-icon/internal/screensaver"
)

// The menu is never built here, so the show functions return early.
func newTestIndicator(t *testing.T) *Indicator {
	t.Helper()
	icons, err := icon.Default()
	require.NoError(t, err)
	return NewIndicator(icons)
}

func TestIndicatorRemembersLastState(t *testing.T) {
	ind := newTestIndicator(t)

	state, err := ind.State()
	assert.Equal(t, screensaver.StateUnknown, state)
	assert.NoError(t, err)

	boom := errors.New("boom")
	ind.SetState(screensaver.StateOff, boom)
	state, err = ind.State()
	assert.Equal(t, screensaver.StateOff, state)
	assert.Equal(t, boom, err)

	ind.SetState(screensaver.StateOn, nil)
	state, err = ind.State()
	assert.Equal(t, screensaver.StateOn, state)
	assert.NoError(t, err)
}

func TestIndicatorAwayOnLock(t *testing.T) {
	ind := newTestIndicator(t)
	assert.False(t, ind.AwayOnLock())

	ind.SetAwayOnLock(true)
	assert.True(t, ind.AwayOnLock())

	ind.SetAwayOnLock(false)
	assert.False(t, ind.AwayOnLock())
}
