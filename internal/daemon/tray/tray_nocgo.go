//go:build !cgo

package tray

import (
	"sync"

	"go.uber.org/zap"
)

// Without cgo there is no tray; Run keeps the process alive until Quit so the
// coordinator still watches the screensaver and sets presence.

var (
	quitCh   = make(chan struct{})
	quitOnce sync.Once
)

// Run calls onStartFn, blocks until Quit, then calls onExitFn.
func Run(_ Controller, _ *Indicator, l *zap.Logger, onStartFn, onExitFn func()) {
	l.Named("tray").Warn("built without cgo, running without a tray icon")
	if onStartFn != nil {
		onStartFn()
	}
	<-quitCh
	if onExitFn != nil {
		onExitFn()
	}
}

// Quit signals Run to return.
func Quit() {
	quitOnce.Do(func() { close(quitCh) })
}

func showState([]byte, string, string) {}

func showAwayOnLock(bool) {}
