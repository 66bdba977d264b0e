// Package tray implements the system tray icon and menu.
package tray

import (
	"sync"

	"github.com/ssicon/screensaver-icon/internal/daemon/icon"
	"github.com/ssicon/screensaver-icon/internal/screensaver"
)

// Controller receives menu actions.
type Controller interface {
	Toggle()
	Refresh()
	SetAwayOnLock(enabled bool)
	RequestShutdown()
}

// Indicator shows the screensaver state in the tray. It implements the
// coordinator's Icon interface.
type Indicator struct {
	icons *icon.Set

	mu         sync.Mutex
	state      screensaver.State
	err        error
	awayOnLock bool
}

// NewIndicator creates an indicator drawing the given images.
func NewIndicator(icons *icon.Set) *Indicator {
	return &Indicator{icons: icons}
}

// SetState updates the image, status line and tooltip.
func (i *Indicator) SetState(state screensaver.State, err error) {
	i.mu.Lock()
	i.state = state
	i.err = err
	i.mu.Unlock()

	showState(i.icons.For(state), icon.Status(state, err), icon.Tooltip(state, err))
}

// SetAwayOnLock updates the checkbox.
func (i *Indicator) SetAwayOnLock(enabled bool) {
	i.mu.Lock()
	i.awayOnLock = enabled
	i.mu.Unlock()

	showAwayOnLock(enabled)
}

// AwayOnLock returns the last checkbox value.
func (i *Indicator) AwayOnLock() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.awayOnLock
}

// State returns the last state shown.
func (i *Indicator) State() (screensaver.State, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state, i.err
}
