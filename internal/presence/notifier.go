package presence

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// Scheduler hands work back to the owner's goroutine.
//
// After runs fn on the owner's goroutine once d has elapsed. The returned func
// cancels it; cancelling after fn ran is a no-op.
//
// Go runs work on another goroutine, then runs the func it returns on the
// owner's goroutine.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
	Go(work func() (done func()))
}

// Notifier marks the user away and later restores the saved status that was
// active before. All bus failures are logged and swallowed.
//
// Bus calls run through Scheduler.Go, one at a time. SetAway and ClearAway only
// record what the user wants; the difference is reconciled whenever no call is
// in flight.
//
// Not safe for concurrent use: every method, and every func handed back by the
// Scheduler, must run on the same goroutine.
type Notifier struct {
	locator Locator
	sched   Scheduler
	delay   time.Duration
	logger  *zap.Logger

	saved         *int32 // status to restore; nil when not away
	wantAway      bool
	busy          bool
	cancelRestore func()
}

// NewNotifier creates a notifier that restores delay after ClearAway.
func NewNotifier(locator Locator, sched Scheduler, delay time.Duration, logger *zap.Logger) *Notifier {
	return &Notifier{
		locator: locator,
		sched:   sched,
		delay:   delay,
		logger:  logger.Named("presence"),
	}
}

// SetAway remembers the current saved status and activates the idle-away one.
// If the user is already away nothing changes, and a pending restore is cancelled.
func (n *Notifier) SetAway() {
	n.wantAway = true
	if n.cancelRestore != nil {
		n.cancelRestore()
		n.cancelRestore = nil
		n.logger.Debug("restore cancelled, still away")
	}
	n.reconcile()
}

// ClearAway schedules the remembered status to be restored after the delay.
// It does nothing when the user is not away or a restore is already pending.
func (n *Notifier) ClearAway() {
	n.wantAway = false
	n.reconcile()
}

// Restore activates the remembered status now, on the calling goroutine.
// The memory is cleared even if the bus call fails.
func (n *Notifier) Restore() {
	n.wantAway = false
	if n.cancelRestore != nil {
		n.cancelRestore()
		n.cancelRestore = nil
	}
	if n.saved == nil {
		return
	}
	id := *n.saved
	n.saved = nil
	n.restore(id)
}

// Busy reports whether a bus call is in flight.
func (n *Notifier) Busy() bool {
	return n.busy
}

func (n *Notifier) reconcile() {
	if n.busy {
		return
	}
	switch {
	case n.wantAway && n.saved == nil:
		n.startSetAway()
	case !n.wantAway && n.saved != nil && n.cancelRestore == nil:
		n.cancelRestore = n.sched.After(n.delay, func() {
			n.cancelRestore = nil
			n.startRestore()
		})
	}
}

func (n *Notifier) startSetAway() {
	n.busy = true
	n.sched.Go(func() func() {
		current, ok := n.setAway()
		return func() {
			n.busy = false
			if ok {
				n.saved = &current
			}
			// A failed attempt is not retried until the next SetAway.
			if !n.wantAway {
				n.reconcile()
			}
		}
	})
}

func (n *Notifier) startRestore() {
	id := *n.saved
	n.saved = nil
	n.busy = true
	n.sched.Go(func() func() {
		n.restore(id)
		return func() {
			n.busy = false
			n.reconcile()
		}
	})
}

// setAway activates the idle-away status and returns the status it replaced.
func (n *Notifier) setAway() (int32, bool) {
	client, ok := n.lookup()
	if !ok {
		return 0, false
	}

	current, err := client.CurrentStatus()
	if err != nil {
		n.logger.Warn("failed to read current status", zap.Error(err))
		return 0, false
	}
	away, err := client.IdleAwayStatus()
	if err != nil {
		n.logger.Warn("failed to read idle-away status", zap.Error(err))
		return 0, false
	}
	if err := client.ActivateStatus(away); err != nil {
		n.logger.Warn("failed to set away", zap.Error(err))
		return 0, false
	}
	n.logger.Info("status set to away", zap.Int32("previous", current), zap.Int32("away", away))
	return current, true
}

func (n *Notifier) restore(id int32) {
	client, ok := n.lookup()
	if !ok {
		return
	}
	if err := client.ActivateStatus(id); err != nil {
		n.logger.Warn("failed to restore status", zap.Int32("status", id), zap.Error(err))
		return
	}
	n.logger.Info("status restored", zap.Int32("status", id))
}

// Away reports whether a status is remembered.
func (n *Notifier) Away() bool {
	return n.saved != nil
}

// Saved returns the remembered status.
func (n *Notifier) Saved() (int32, bool) {
	if n.saved == nil {
		return 0, false
	}
	return *n.saved, true
}

// RestorePending reports whether ClearAway has scheduled a restore.
func (n *Notifier) RestorePending() bool {
	return n.cancelRestore != nil
}

// SetDelay changes the delay used by later ClearAway calls.
func (n *Notifier) SetDelay(d time.Duration) {
	n.delay = d
}

func (n *Notifier) lookup() (Client, bool) {
	client, err := n.locator.Lookup()
	if err != nil {
		if errors.Is(err, ErrServiceUnavailable) {
			n.logger.Debug("chat client not running")
		} else {
			n.logger.Debug("presence bus unavailable", zap.Error(err))
		}
		return nil, false
	}
	return client, true
}
