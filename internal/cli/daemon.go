package cli

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/ssicon/screensaver-icon/internal/config"
)

// DaemonStatusInfo contains status information about the running icon process.
type DaemonStatusInfo struct {
	PID        int
	InstanceID string
	Foreground bool
	StartedAt  time.Time
	Name       string  // process name as seen by the OS
	RSS        uint64  // resident memory in bytes
	CPUPercent float64 // CPU use since process start
}

// GetDaemonStatus returns the status of the running icon process.
func GetDaemonStatus() (bool, *DaemonStatusInfo, error) {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return false, nil, err
	}
	if !running || info == nil {
		return false, nil, nil
	}

	status := &DaemonStatusInfo{
		PID:        info.PID,
		InstanceID: info.InstanceID,
		Foreground: info.Foreground,
		StartedAt:  info.StartedAt,
	}

	// Process details are best effort.
	if p, err := process.NewProcess(int32(info.PID)); err == nil {
		if name, err := p.Name(); err == nil {
			status.Name = name
		}
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			status.RSS = mem.RSS
		}
		if cpu, err := p.CPUPercent(); err == nil {
			status.CPUPercent = cpu
		}
	}

	return true, status, nil
}

// stopDaemonProcess sends SIGTERM to the icon process and waits for it to exit.
func stopDaemonProcess(pid int, timeout time.Duration) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}
	if err := p.Terminate(); err != nil {
		return fmt.Errorf("failed to send stop signal: %w", err)
	}

	// Poll for shutdown
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		stillRunning, _, err := config.IsDaemonRunning()
		if err == nil && !stillRunning {
			return nil
		}
	}
	return fmt.Errorf("daemon did not stop within %s", timeout)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
