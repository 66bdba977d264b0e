package coordinator

import (
	"github.com/ssicon/screensaver-icon/internal/models"
	"github.com/ssicon/screensaver-icon/internal/screensaver"
)

// Kind tags an Event.
type Kind int

// Event kinds handled by the loop.
const (
	KindTrigger         Kind = iota // a line from the watch process
	KindWatchExited                 // the watch process ended
	KindQueryDone                   // a status query finished
	KindToggleClick                 // the user clicked the icon
	KindRefreshRequest              // menu refresh
	KindActionDone                  // a stop command finished off the loop
	KindAwayOnLock                  // checkbox toggled
	KindSettingsChanged             // settings.yaml reloaded
	KindCall                        // deferred func, e.g. a fired timer
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindTrigger:
		return "trigger"
	case KindWatchExited:
		return "watch-exited"
	case KindQueryDone:
		return "query-done"
	case KindToggleClick:
		return "toggle"
	case KindRefreshRequest:
		return "refresh"
	case KindActionDone:
		return "action-done"
	case KindAwayOnLock:
		return "away-on-lock"
	case KindSettingsChanged:
		return "settings-changed"
	case KindCall:
		return "call"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Action is a state-changing command sent to the screensaver daemon. Start
// completes on the loop; stop completes through KindActionDone.
type Action int

const (
	ActionStart Action = iota
	ActionStop
)

func (a Action) String() string {
	if a == ActionStart {
		return "start"
	}
	return "stop"
}

// Event is the single input type of the coordinator loop.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind Kind

	Gen     int                 // KindTrigger, KindWatchExited
	Trigger screensaver.Trigger // KindTrigger
	Running bool                // KindQueryDone
	Action  Action              // KindActionDone
	Err     error               // KindWatchExited, KindActionDone
	Enabled bool                // KindAwayOnLock

	Settings *models.Settings // KindSettingsChanged
	Call     func()           // KindCall
}
