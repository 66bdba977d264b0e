//go:build cgo

package tray

import (
	"fmt"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/ssicon/screensaver-icon/internal/buildinfo"
	"github.com/ssicon/screensaver-icon/internal/daemon/icon"
)

var (
	controller Controller
	indicator  *Indicator
	logger     *zap.Logger
	onStart    func()
	onExit     func()

	statusItem     *systray.MenuItem
	toggleItem     *systray.MenuItem
	awayOnLockItem *systray.MenuItem
	refreshItem    *systray.MenuItem
	quitItem       *systray.MenuItem
)

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onStartFn is called when the menu is built (start the coordinator here).
// onExitFn is called when the tray exits (cleanup here).
func Run(c Controller, ind *Indicator, l *zap.Logger, onStartFn, onExitFn func()) {
	controller = c
	indicator = ind
	logger = l.Named("tray")
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	state, err := indicator.State()
	systray.SetIcon(indicator.icons.For(state))
	systray.SetTooltip(icon.Tooltip(state, err))

	statusItem = systray.AddMenuItem(icon.Status(state, err), "")
	statusItem.Disable()

	systray.AddSeparator()

	toggleItem = systray.AddMenuItem("Toggle Screensaver", "Start or stop the screensaver daemon")
	awayOnLockItem = systray.AddMenuItemCheckbox("Away On Lock", "Set chat status to away while the screen is locked", indicator.AwayOnLock())
	refreshItem = systray.AddMenuItem("Refresh", "Check whether the screensaver is running")

	systray.AddSeparator()

	versionItem := systray.AddMenuItem(fmt.Sprintf("%s %s", buildinfo.AppName, buildinfo.Version), "")
	versionItem.Disable()
	quitItem = systray.AddMenuItem("Quit", "Exit "+buildinfo.AppName)

	if onStart != nil {
		onStart()
	}

	go handleClicks()
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-toggleItem.ClickedCh:
			controller.Toggle()

		case <-awayOnLockItem.ClickedCh:
			// The checkbox is redrawn by the coordinator once it applied the change.
			enabled := !awayOnLockItem.Checked()
			logger.Debug("away on lock clicked", zap.Bool("enabled", enabled))
			controller.SetAwayOnLock(enabled)

		case <-refreshItem.ClickedCh:
			controller.Refresh()

		case <-quitItem.ClickedCh:
			controller.RequestShutdown()
			return
		}
	}
}

func showState(img []byte, status, tooltip string) {
	if statusItem == nil {
		return
	}
	systray.SetIcon(img)
	systray.SetTooltip(tooltip)
	statusItem.SetTitle(status)
}

func showAwayOnLock(enabled bool) {
	if awayOnLockItem == nil {
		return
	}
	if enabled {
		awayOnLockItem.Check()
	} else {
		awayOnLockItem.Uncheck()
	}
}
