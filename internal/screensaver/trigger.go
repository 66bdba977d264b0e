package screensaver

import "strings"

// Trigger is a state change reported by the watch process.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerBlank
	TriggerUnblank
	TriggerLock
)

func (t Trigger) String() string {
	switch t {
	case TriggerBlank:
		return "BLANK"
	case TriggerUnblank:
		return "UNBLANK"
	case TriggerLock:
		return "LOCK"
	default:
		return "NONE"
	}
}

// ParseTrigger parses one line of watch output.
// Only the first token is significant ("LOCK Fri Jul 12 10:00:00 2024" is a lock).
// Unknown or empty lines return false.
func ParseTrigger(line string) (Trigger, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return TriggerNone, false
	}
	switch fields[0] {
	case "BLANK":
		return TriggerBlank, true
	case "UNBLANK":
		return TriggerUnblank, true
	case "LOCK":
		return TriggerLock, true
	default:
		return TriggerNone, false
	}
}
