package models

import "time"

// DaemonInfo describes the running icon process.
// This corresponds to ~/.screensaver-icon/daemon.yaml.
type DaemonInfo struct {
	Version    int       `yaml:"version"`
	InstanceID string    `yaml:"instance_id"`
	PID        int       `yaml:"pid"`
	Foreground bool      `yaml:"foreground"`
	StartedAt  time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a new daemon info with current values.
func NewDaemonInfo(instanceID string, pid int, foreground bool) *DaemonInfo {
	return &DaemonInfo{
		Version:    1,
		InstanceID: instanceID,
		PID:        pid,
		Foreground: foreground,
		StartedAt:  time.Now().UTC(),
	}
}
