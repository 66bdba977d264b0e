// Package coordinator ties the screensaver watcher, the status query and the
// presence notifier together and drives the tray icon.
//
// All state lives on one goroutine (Run). Subprocess readers, waiters and timers
// only post Events into the inbox, and presence bus calls hand their results
// back the same way, so no locks guard coordinator state.
package coordinator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ssicon/screensaver-icon/internal/models"
	"github.com/ssicon/screensaver-icon/internal/presence"
	"github.com/ssicon/screensaver-icon/internal/screensaver"
)

const (
	inboxSize   = 64
	stopTimeout = 10 * time.Second
)

// Icon receives state changes. Calls come from the coordinator goroutine.
type Icon interface {
	SetState(state screensaver.State, err error)
	SetAwayOnLock(enabled bool)
}

// Options configures a Coordinator.
type Options struct {
	Settings *models.Settings
	Executor screensaver.Executor
	Locator  presence.Locator
	Icon     Icon
	Logger   *zap.Logger

	// SaveAwayOnLock persists a checkbox change. Nil skips persisting.
	SaveAwayOnLock func(enabled bool) error
}

// Snapshot is a copy of the coordinator state.
type Snapshot struct {
	State          screensaver.State
	Err            error
	ToggleIntent   bool
	QueryInFlight  bool
	WatchListening bool
	Away           bool
	RestorePending bool
	PresenceBusy   bool
	AwayOnLock     bool
	AwayTrigger    string
}

// Coordinator is the state machine behind the tray icon.
type Coordinator struct {
	inbox    chan Event
	finished chan func()
	done     chan struct{}
	logger   *zap.Logger

	icon           Icon
	saveAwayOnLock func(bool) error

	settings *models.Settings
	watcher  *screensaver.Watcher
	query    *screensaver.Query
	control  *screensaver.Control
	notifier *presence.Notifier

	// Loop-owned state.
	ctx          context.Context
	state        screensaver.State
	stateErr     error
	toggleIntent bool
	timers       map[*time.Timer]struct{}
	ticker       *time.Ticker
	cancelRetry  func()
	working      int // background calls whose completion has not run yet
}

// New creates a Coordinator. Nothing runs until Run is called.
func New(opts Options) *Coordinator {
	settings := opts.Settings
	if settings == nil {
		settings = models.NewSettings()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	icon := opts.Icon
	if icon == nil {
		icon = nopIcon{}
	}

	c := &Coordinator{
		inbox:          make(chan Event, inboxSize),
		finished:       make(chan func(), inboxSize),
		done:           make(chan struct{}),
		logger:         logger.Named("coordinator"),
		icon:           icon,
		saveAwayOnLock: opts.SaveAwayOnLock,
		settings:       settings.Clone(),
		state:          screensaver.StateUnknown,
		timers:         make(map[*time.Timer]struct{}),
	}

	sink := &loopSink{c: c}
	control := c.settings.Screensaver.Control
	c.watcher = screensaver.NewWatcher(opts.Executor, control, sink, logger)
	c.query = screensaver.NewQuery(opts.Executor, control, sink, logger)
	c.control = screensaver.NewControl(opts.Executor, control, c.settings.Screensaver.Daemon, logger)
	c.notifier = presence.NewNotifier(opts.Locator, sink, c.settings.Timing.RestoreDelay, logger)
	return c
}

// Run processes events until ctx is cancelled or Quit is called.
// On return the watch process is stopped and the user's status restored.
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.done)
	c.ctx = ctx

	c.startup()
	for {
		var tick <-chan time.Time
		if c.ticker != nil {
			tick = c.ticker.C
		}

		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case <-tick:
			c.logger.Debug("periodic refresh")
			c.refresh()
		case done := <-c.finished:
			c.working--
			done()
		case ev := <-c.inbox:
			if ev.Kind == KindQuit {
				c.shutdown()
				return
			}
			c.handle(ev)
		}
	}
}

// Done is closed when Run has returned.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Toggle starts the daemon if it is stopped, stops it if it is running.
func (c *Coordinator) Toggle() {
	c.post(Event{Kind: KindToggleClick})
}

// Refresh re-queries the daemon state.
func (c *Coordinator) Refresh() {
	c.post(Event{Kind: KindRefreshRequest})
}

// SetAwayOnLock changes and persists the away-on-lock option.
func (c *Coordinator) SetAwayOnLock(enabled bool) {
	c.post(Event{Kind: KindAwayOnLock, Enabled: enabled})
}

// ApplySettings swaps in reloaded settings.
func (c *Coordinator) ApplySettings(s *models.Settings) {
	c.post(Event{Kind: KindSettingsChanged, Settings: s.Clone()})
}

// Quit stops the loop.
func (c *Coordinator) Quit() {
	c.post(Event{Kind: KindQuit})
}

// Snapshot returns the current state. It reports false once the loop has exited.
func (c *Coordinator) Snapshot() (Snapshot, bool) {
	reply := make(chan Snapshot, 1)
	c.post(Event{Kind: KindCall, Call: func() { reply <- c.snapshot() }})

	select {
	case s := <-reply:
		return s, true
	case <-c.done:
		return Snapshot{}, false
	}
}

func (c *Coordinator) post(ev Event) {
	select {
	case c.inbox <- ev:
	case <-c.done:
	}
}

func (c *Coordinator) startup() {
	c.logger.Info("coordinator started",
		zap.Bool("away_on_lock", c.settings.AwayOnLock),
		zap.String("away_trigger", c.settings.AwayTrigger))

	c.icon.SetAwayOnLock(c.settings.AwayOnLock)
	c.icon.SetState(c.state, nil)

	if err := c.watcher.Start(); err != nil {
		c.logger.Warn("failed to start watch process", zap.Error(err))
		c.scheduleWatchRetry()
	}
	c.refresh()
	c.resetTicker(c.settings.Timing.RefreshInterval)
}

func (c *Coordinator) shutdown() {
	if err := c.watcher.Stop(); err != nil {
		c.logger.Warn("failed to stop watch process", zap.Error(err))
	}

	// Let an in-flight away call land so its status gets restored below.
	for c.working > 0 {
		done := <-c.finished
		c.working--
		done()
	}
	c.notifier.Restore()

	for t := range c.timers {
		t.Stop()
	}
	clear(c.timers)
	c.resetTicker(0)

	c.logger.Info("coordinator stopped")
}

// handle is the transition table.
func (c *Coordinator) handle(ev Event) {
	switch ev.Kind {
	case KindTrigger:
		if !c.watcher.Current(ev.Gen) {
			return
		}
		c.handleTrigger(ev.Trigger)

	case KindWatchExited:
		respawned, err := c.watcher.HandleExit(ev.Gen)
		if err != nil {
			c.logger.Warn("failed to respawn watch process", zap.Error(err))
			c.scheduleWatchRetry()
			return
		}
		if respawned {
			c.logger.Info("watch process exited, respawned", zap.NamedError("exit", ev.Err))
		}

	case KindQueryDone:
		c.handleQueryDone(ev.Running)

	case KindToggleClick:
		c.toggleIntent = true
		c.refresh()

	case KindRefreshRequest:
		c.refresh()

	case KindActionDone:
		c.handleActionDone(ev.Action, ev.Err)

	case KindAwayOnLock:
		c.setAwayOnLock(ev.Enabled, true)

	case KindSettingsChanged:
		c.applySettings(ev.Settings)

	case KindCall:
		ev.Call()
	}
}

func (c *Coordinator) handleTrigger(t screensaver.Trigger) {
	c.logger.Debug("screensaver event", zap.Stringer("trigger", t))
	if !c.settings.AwayOnLock {
		return
	}

	switch t {
	case screensaver.TriggerBlank:
		if c.settings.AwayTrigger == models.AwayTriggerBlank {
			c.notifier.SetAway()
		}
	case screensaver.TriggerLock:
		c.notifier.SetAway()
	case screensaver.TriggerUnblank:
		c.notifier.ClearAway()
	}
}

func (c *Coordinator) refresh() {
	if _, err := c.query.Refresh(); err != nil {
		c.logger.Warn("failed to query screensaver", zap.Error(err))
		c.toggleIntent = false
		c.setState(screensaver.StateOff, err)
	}
}

func (c *Coordinator) handleQueryDone(running bool) {
	c.query.Complete()
	c.setState(screensaver.StateFromRunning(running), nil)

	if !c.toggleIntent {
		return
	}
	c.toggleIntent = false

	if running {
		c.stopDaemon()
	} else {
		c.startDaemon()
	}
}

// startDaemon only spawns the detached daemon, so it completes on the loop.
func (c *Coordinator) startDaemon() {
	c.handleActionDone(ActionStart, c.control.StartDaemon())
}

// stopDaemon waits for the stop command off the loop; the follow-up refresh
// is scheduled when KindActionDone arrives.
func (c *Coordinator) stopDaemon() {
	ctx, cancel := context.WithTimeout(c.ctx, stopTimeout)
	go func() {
		defer cancel()
		err := c.control.StopDaemon(ctx)
		c.post(Event{Kind: KindActionDone, Action: ActionStop, Err: err})
	}()
}

func (c *Coordinator) handleActionDone(action Action, err error) {
	switch action {
	case ActionStart:
		if err != nil {
			c.logger.Error("failed to start screensaver", zap.Error(err))
			c.setState(screensaver.StateOff, err)
			return
		}
		c.scheduleRefresh(c.settings.Timing.StartSettle)

	case ActionStop:
		switch {
		case err == nil:
		case errors.Is(err, screensaver.ErrNotRunning):
			c.logger.Info("screensaver was already stopped")
		default:
			c.logger.Error("failed to stop screensaver", zap.Error(err))
		}
		c.scheduleRefresh(c.settings.Timing.StopSettle)
	}
}

func (c *Coordinator) scheduleRefresh(d time.Duration) {
	c.after(d, c.refresh)
}

func (c *Coordinator) scheduleWatchRetry() {
	if c.cancelRetry != nil {
		return
	}
	c.cancelRetry = c.after(c.settings.Timing.WatchRetry, func() {
		c.cancelRetry = nil
		if err := c.watcher.Retry(); err != nil {
			c.logger.Warn("failed to start watch process", zap.Error(err))
			c.scheduleWatchRetry()
		}
	})
}

func (c *Coordinator) setState(state screensaver.State, err error) {
	if state == c.state && err == nil && c.stateErr == nil {
		return
	}
	c.state = state
	c.stateErr = err

	c.logger.Info("screensaver state", zap.Stringer("state", state), zap.Error(err))
	c.icon.SetState(state, err)
}

func (c *Coordinator) setAwayOnLock(enabled, persist bool) {
	if c.settings.AwayOnLock == enabled {
		return
	}
	c.settings.AwayOnLock = enabled
	c.icon.SetAwayOnLock(enabled)
	c.logger.Info("away on lock changed", zap.Bool("enabled", enabled))

	if !enabled {
		c.notifier.ClearAway()
	}

	if persist && c.saveAwayOnLock != nil {
		if err := c.saveAwayOnLock(enabled); err != nil {
			c.logger.Warn("failed to save settings", zap.Error(err))
		}
	}
}

func (c *Coordinator) applySettings(s *models.Settings) {
	if s.Screensaver != c.settings.Screensaver {
		c.logger.Warn("screensaver commands changed; restart to apply",
			zap.String("control", s.Screensaver.Control),
			zap.String("daemon", s.Screensaver.Daemon))
		s.Screensaver = c.settings.Screensaver
	}

	c.setAwayOnLock(s.AwayOnLock, false)
	if s.Timing.RefreshInterval != c.settings.Timing.RefreshInterval {
		c.resetTicker(s.Timing.RefreshInterval)
	}
	c.notifier.SetDelay(s.Timing.RestoreDelay)

	c.settings = s
	c.logger.Info("settings reloaded")
}

func (c *Coordinator) resetTicker(interval time.Duration) {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	if interval > 0 {
		c.ticker = time.NewTicker(interval)
	}
}

// background runs work on its own goroutine and the func it returns on the loop.
func (c *Coordinator) background(work func() func()) {
	c.working++
	go func() {
		done := work()
		select {
		case c.finished <- done:
		case <-c.done:
		}
	}()
}

// after runs fn on the loop once d has elapsed.
func (c *Coordinator) after(d time.Duration, fn func()) func() {
	cancelled := false
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		c.post(Event{Kind: KindCall, Call: func() {
			delete(c.timers, t)
			if !cancelled {
				fn()
			}
		}})
	})
	c.timers[t] = struct{}{}

	return func() {
		cancelled = true
		t.Stop()
		delete(c.timers, t)
	}
}

func (c *Coordinator) snapshot() Snapshot {
	return Snapshot{
		State:          c.state,
		Err:            c.stateErr,
		ToggleIntent:   c.toggleIntent,
		QueryInFlight:  c.query.InFlight(),
		WatchListening: c.watcher.Listening(),
		Away:           c.notifier.Away(),
		RestorePending: c.notifier.RestorePending(),
		PresenceBusy:   c.notifier.Busy(),
		AwayOnLock:     c.settings.AwayOnLock,
		AwayTrigger:    c.settings.AwayTrigger,
	}
}

// loopSink adapts the coordinator to the callback interfaces of its components.
// WatchLine, WatchExited and QueryDone run on other goroutines and only post.
// After and Go are called on the loop.
type loopSink struct {
	c *Coordinator
}

func (s *loopSink) WatchLine(gen int, t screensaver.Trigger) {
	s.c.post(Event{Kind: KindTrigger, Gen: gen, Trigger: t})
}

func (s *loopSink) WatchExited(gen int, err error) {
	s.c.post(Event{Kind: KindWatchExited, Gen: gen, Err: err})
}

func (s *loopSink) QueryDone(running bool) {
	s.c.post(Event{Kind: KindQueryDone, Running: running})
}

func (s *loopSink) After(d time.Duration, fn func()) func() {
	return s.c.after(d, fn)
}

func (s *loopSink) Go(work func() func()) {
	s.c.background(work)
}

type nopIcon struct{}

func (nopIcon) SetState(screensaver.State, error) {}
func (nopIcon) SetAwayOnLock(bool) {}

var (
	_ screensaver.WatchSink = (*loopSink)(nil)
	_ screensaver.QuerySink = (*loopSink)(nil)
	_ presence.Scheduler    = (*loopSink)(nil)
)
