// Package buildinfo holds version information injected at build time via ldflags.
package buildinfo

var (
	Version    = "1.2.0-dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// AppName is the display name used in the tray tooltip and CLI output.
const AppName = "Screensaver Icon"
