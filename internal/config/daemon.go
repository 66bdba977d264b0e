package config

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/ssicon/screensaver-icon/internal/models"
)

// LoadDaemonInfo loads the running instance info from ~/.screensaver-icon/daemon.yaml.
// Returns nil if the file doesn't exist.
func LoadDaemonInfo() (*models.DaemonInfo, error) {
	path, err := GlobalDaemonFile()
	if err != nil {
		return nil, err
	}

	if !FileExists(path) {
		return nil, nil
	}

	var info models.DaemonInfo
	if err := LoadYAML(path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SaveDaemonInfo saves the running instance info to ~/.screensaver-icon/daemon.yaml.
func SaveDaemonInfo(info *models.DaemonInfo) error {
	if err := EnsureGlobalDir(); err != nil {
		return err
	}

	path, err := GlobalDaemonFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, info)
}

// RemoveDaemonInfo removes the daemon.yaml file.
func RemoveDaemonInfo() error {
	path, err := GlobalDaemonFile()
	if err != nil {
		return err
	}

	if !FileExists(path) {
		return nil
	}
	return os.Remove(path)
}

// IsDaemonRunning checks if the icon process recorded in daemon.yaml is still alive.
// A stale file is removed. A file naming the caller's own PID is stale too: it
// was left by a crashed instance whose PID has been reused.
func IsDaemonRunning() (bool, *models.DaemonInfo, error) {
	info, err := LoadDaemonInfo()
	if err != nil {
		return false, nil, err
	}
	if info == nil {
		return false, nil, nil
	}

	if info.PID == os.Getpid() {
		_ = RemoveDaemonInfo()
		return false, info, nil
	}

	alive, err := process.PidExists(int32(info.PID))
	if err != nil || !alive {
		_ = RemoveDaemonInfo()
		return false, info, nil
	}

	return true, info, nil
}
