// Package main is the entry point for screensaver-icon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ssicon/screensaver-icon/internal/buildinfo"
	"github.com/ssicon/screensaver-icon/internal/cli"
	"github.com/ssicon/screensaver-icon/internal/config"
	"github.com/ssicon/screensaver-icon/internal/coordinator"
	"github.com/ssicon/screensaver-icon/internal/daemon/icon"
	"github.com/ssicon/screensaver-icon/internal/daemon/tray"
	"github.com/ssicon/screensaver-icon/internal/daemon/watcher"
	"github.com/ssicon/screensaver-icon/internal/models"
	"github.com/ssicon/screensaver-icon/internal/presence"
	"github.com/ssicon/screensaver-icon/internal/screensaver"
)

// shutdownTimeout leaves room for one presence call (bounded by presence.DefaultCallTimeout)
// to finish before the status is restored.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := cli.Execute(runWithTray); err != nil {
		os.Exit(1)
	}
}

// runWithTray runs the icon with the system tray on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func runWithTray(opts cli.RunOptions) error {
	logger, err := config.NewLogger(config.LogOptions{Foreground: opts.Foreground, Debug: opts.Debug})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}

	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("%s is already running (PID %d)", buildinfo.AppName, info.PID)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	onPath, offPath := settings.Icons.On, settings.Icons.Off
	if opts.OnIcon != "" {
		onPath = opts.OnIcon
	}
	if opts.OffIcon != "" {
		offPath = opts.OffIcon
	}
	icons, err := icon.Load(onPath, offPath)
	if err != nil {
		return err
	}

	logger.Info("starting",
		zap.String("version", buildinfo.Version),
		zap.Bool("foreground", opts.Foreground),
		zap.String("control", settings.Screensaver.Control))

	app := newIconApp(settings, icons, opts.Foreground, logger)

	// This blocks the main goroutine until the tray exits.
	tray.Run(app, app.indicator, logger, app.onStart, app.onExit)
	return nil
}

// iconApp wires the coordinator to the tray, the settings watcher and OS signals.
type iconApp struct {
	logger     *zap.Logger
	indicator  *tray.Indicator
	coord      *coordinator.Coordinator
	watcher    *watcher.Watcher
	foreground bool

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

func newIconApp(settings *models.Settings, icons *icon.Set, foreground bool, logger *zap.Logger) *iconApp {
	ctx, cancel := context.WithCancel(context.Background())
	indicator := tray.NewIndicator(icons)

	return &iconApp{
		logger:     logger,
		indicator:  indicator,
		foreground: foreground,
		coord: coordinator.New(coordinator.Options{
			Settings:       settings,
			Executor:       screensaver.NewOSExecutor(),
			Locator:        presence.NewSessionBus(),
			Icon:           indicator,
			Logger:         logger,
			SaveAwayOnLock: config.SaveAwayOnLock,
		}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (a *iconApp) Toggle() { a.coord.Toggle() }

func (a *iconApp) Refresh() { a.coord.Refresh() }

func (a *iconApp) SetAwayOnLock(enabled bool) { a.coord.SetAwayOnLock(enabled) }

// RequestShutdown stops the coordinator and quits the tray.
func (a *iconApp) RequestShutdown() {
	a.shutdownOnce.Do(func() {
		a.cancel()
		tray.Quit()
	})
}

func (a *iconApp) onStart() {
	info := models.NewDaemonInfo(uuid.NewString(), os.Getpid(), a.foreground)
	if err := config.SaveDaemonInfo(info); err != nil {
		a.logger.Warn("failed to write daemon info", zap.Error(err))
	}

	go a.coord.Run(a.ctx)

	if err := a.watchSettings(); err != nil {
		a.logger.Warn("settings will not be reloaded", zap.Error(err))
	}

	// Handle OS signals: quit tray on SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			a.logger.Info("received signal, shutting down", zap.Stringer("signal", sig))
			a.RequestShutdown()
		case <-a.ctx.Done():
		}
	}()

	a.logger.Info("started", zap.Int("pid", info.PID), zap.String("instance", info.InstanceID))
}

func (a *iconApp) onExit() {
	a.cancel()

	select {
	case <-a.coord.Done():
	case <-time.After(shutdownTimeout):
		a.logger.Warn("coordinator did not stop in time")
	}

	if a.watcher != nil {
		a.watcher.Stop()
	}
	if err := config.RemoveDaemonInfo(); err != nil {
		a.logger.Warn("failed to remove daemon info", zap.Error(err))
	}

	a.logger.Info("stopped")
}

func (a *iconApp) watchSettings() error {
	path, err := config.GlobalSettingsFile()
	if err != nil {
		return err
	}
	w, err := watcher.New(path, a.logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return err
	}
	a.watcher = w

	go func() {
		for {
			select {
			case <-a.ctx.Done():
				return
			case ev := <-w.Events():
				if ev.Type == watcher.EventSettingsChanged {
					a.coord.ApplySettings(ev.Settings)
				}
			}
		}
	}()
	return nil
}

var _ tray.Controller = (*iconApp)(nil)
