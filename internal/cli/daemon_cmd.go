package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssicon/screensaver-icon/internal/buildinfo"
	"github.com/ssicon/screensaver-icon/internal/config"
	"github.com/ssicon/screensaver-icon/internal/screensaver"
)

const (
	queryTimeout = 5 * time.Second
	stopWait     = 5 * time.Second
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the icon and the screensaver are running",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running icon",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStatus(cmd *cobra.Command, args []string) error {
	running, info, err := GetDaemonStatus()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running || info == nil {
		fmt.Printf("  %s %s\n", styleBrand.Render(buildinfo.AppName), styleHint.Render("not running"))
	} else {
		fmt.Printf("  %s %s\n", styleBrand.Render(buildinfo.AppName), styleSuccess.Render("running"))
		for _, f := range daemonFields(info, time.Now()) {
			printField(f.label, f.value)
		}
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	fmt.Println()
	ssRunning, err := screensaver.QueryOnce(ctx, screensaver.NewOSExecutor(), settings.Screensaver.Control)
	switch {
	case err != nil:
		fmt.Printf("  %s %s\n", styleLabel.Render("Screensaver"), styleError.Render(err.Error()))
	case ssRunning:
		fmt.Printf("  %s %s\n", styleLabel.Render("Screensaver"), styleSuccess.Render("running"))
	default:
		fmt.Printf("  %s %s\n", styleLabel.Render("Screensaver"), styleWarning.Render("stopped"))
	}
	printField("Away on lock", yesNo(settings.AwayOnLock))
	printField("Away trigger", settings.AwayTrigger)
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running || info == nil {
		fmt.Printf("%s is not running.\n", buildinfo.AppName)
		return nil
	}

	if err := stopDaemonProcess(info.PID, stopWait); err != nil {
		return err
	}
	fmt.Printf("%s stopped.\n", buildinfo.AppName)
	return nil
}

type statusField struct {
	label string
	value string
}

// daemonFields lists what status prints about a running icon process.
// Process details that could not be read are left out.
func daemonFields(info *DaemonStatusInfo, now time.Time) []statusField {
	mode := "background"
	if info.Foreground {
		mode = "foreground"
	}

	fields := []statusField{{"PID", fmt.Sprintf("%d", info.PID)}}
	if info.Name != "" {
		fields = append(fields, statusField{"Process", info.Name})
	}
	fields = append(fields,
		statusField{"Mode", mode},
		statusField{"Uptime", now.Sub(info.StartedAt).Truncate(time.Second).String()},
	)
	if info.RSS > 0 {
		fields = append(fields, statusField{"Memory", formatBytes(info.RSS)})
	}
	if info.CPUPercent > 0 {
		fields = append(fields, statusField{"CPU", fmt.Sprintf("%.1f%%", info.CPUPercent)})
	}
	return append(fields, statusField{"Instance", info.InstanceID})
}

func printField(label, value string) {
	fmt.Printf("    %s %s\n", styleLabel.Render(fmt.Sprintf("%-13s", label)), styleValue.Render(value))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
