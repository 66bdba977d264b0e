// Package models contains shared data structures used across the application.
package models

import (
	"fmt"
	"time"
)

// Away trigger policies.
const (
	// AwayTriggerBlank marks the user away on BLANK or LOCK, whichever fires first.
	AwayTriggerBlank = "blank"
	// AwayTriggerLock marks the user away on LOCK only; BLANK is ignored.
	AwayTriggerLock = "lock"
)

// ScreensaverConfig names the binaries used to drive the screensaver daemon.
type ScreensaverConfig struct {
	Control string `yaml:"control"` // e.g. xscreensaver-command
	Daemon  string `yaml:"daemon"`  // e.g. xscreensaver
}

// TimingConfig holds the delays used by the coordinator.
type TimingConfig struct {
	RestoreDelay    time.Duration `yaml:"restore_delay"`
	StartSettle     time.Duration `yaml:"start_settle"`
	StopSettle      time.Duration `yaml:"stop_settle"`
	RefreshInterval time.Duration `yaml:"refresh_interval"` // 0 disables periodic refresh
	WatchRetry      time.Duration `yaml:"watch_retry"`
}

// IconsConfig holds optional custom icon image paths.
type IconsConfig struct {
	On  string `yaml:"on"`
	Off string `yaml:"off"`
}

// Settings represents global application settings.
// This corresponds to ~/.screensaver-icon/settings.yaml.
type Settings struct {
	Version     int               `yaml:"version"`
	AwayOnLock  bool              `yaml:"away_on_lock"`
	AwayTrigger string            `yaml:"away_trigger"` // "blank" | "lock"
	Screensaver ScreensaverConfig `yaml:"screensaver"`
	Timing      TimingConfig      `yaml:"timing"`
	Icons       IconsConfig       `yaml:"icons"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:     1,
		AwayOnLock:  true,
		AwayTrigger: AwayTriggerBlank,
		Screensaver: ScreensaverConfig{
			Control: "xscreensaver-command",
			Daemon:  "xscreensaver",
		},
		Timing: TimingConfig{
			RestoreDelay:    time.Second,
			StartSettle:     time.Second,
			StopSettle:      500 * time.Millisecond,
			RefreshInterval: time.Minute,
			WatchRetry:      5 * time.Second,
		},
	}
}

// Clone returns a copy safe to hand to another goroutine.
func (s *Settings) Clone() *Settings {
	c := *s
	return &c
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	switch s.AwayTrigger {
	case AwayTriggerBlank, AwayTriggerLock:
	default:
		return fmt.Errorf("away_trigger must be %q or %q, got %q", AwayTriggerBlank, AwayTriggerLock, s.AwayTrigger)
	}

	if s.Screensaver.Control == "" {
		return fmt.Errorf("screensaver.control cannot be empty")
	}
	if s.Screensaver.Daemon == "" {
		return fmt.Errorf("screensaver.daemon cannot be empty")
	}

	durations := map[string]time.Duration{
		"restore_delay":    s.Timing.RestoreDelay,
		"start_settle":     s.Timing.StartSettle,
		"stop_settle":      s.Timing.StopSettle,
		"refresh_interval": s.Timing.RefreshInterval,
		"watch_retry":      s.Timing.WatchRetry,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("timing.%s cannot be negative (%v)", name, d)
		}
	}
	if s.Timing.WatchRetry == 0 {
		return fmt.Errorf("timing.watch_retry must be greater than zero")
	}

	return nil
}
