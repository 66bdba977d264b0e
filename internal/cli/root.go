// Package cli implements the screensaver-icon commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssicon/screensaver-icon/internal/buildinfo"
)

// RunOptions are the root command flags handed to the icon runner.
type RunOptions struct {
	Foreground bool
	OnIcon     string
	OffIcon    string
	Debug      bool
}

var (
	runOpts RunOptions
	runner  func(RunOptions) error
)

var rootCmd = &cobra.Command{
	Use:   "screensaver-icon",
	Short: "Tray icon for the XScreenSaver daemon",
	Long: `screensaver-icon shows whether the screensaver daemon is running and
toggles it on click. While the screen is blanked or locked it can set your
chat status to away, restoring the previous status when you come back.`,
	Version:      buildinfo.Version,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runIcon,
}

// Execute runs the CLI. run starts the icon when no subcommand is given.
func Execute(run func(RunOptions) error) error {
	runner = run
	return rootCmd.Execute()
}

func runIcon(cmd *cobra.Command, args []string) error {
	if runner == nil {
		return fmt.Errorf("%s cannot run the icon in this build", buildinfo.AppName)
	}
	return runner(runOpts)
}

func init() {
	rootCmd.Flags().BoolVarP(&runOpts.Foreground, "foreground", "f", false, "Log to the terminal instead of the log files")
	rootCmd.Flags().StringVar(&runOpts.OnIcon, "on-icon", "", "Image shown while the screensaver is running")
	rootCmd.Flags().StringVar(&runOpts.OffIcon, "off-icon", "", "Image shown while the screensaver is stopped")
	rootCmd.PersistentFlags().BoolVar(&runOpts.Debug, "debug", false, "Enable debug logging")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
}
