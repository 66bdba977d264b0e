package cli

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssicon/screensaver-icon/internal/config"
	"github.com/ssicon/screensaver-icon/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Aliases: []string{"config"},
	Short:   "Configure settings",
	Long: `Configure settings interactively.

This allows you to modify:
  - Away on lock
  - Away trigger (blank or lock)

Press Enter to keep the current value for any setting.
A running icon picks up changes immediately.`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	keys := settingKeys()
	settingsGetCmd.ValidArgs = keys
	settingsSetCmd.Long = "Change a setting.\n\nKeys: " + strings.Join(keys, ", ")

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

// setting maps a CLI key to a field of models.Settings.
type setting struct {
	get func(s *models.Settings) string
	set func(s *models.Settings, value string) error
}

var settingsTable = map[string]setting{
	"away-on-lock": {
		get: func(s *models.Settings) string { return yesNo(s.AwayOnLock) },
		set: func(s *models.Settings, v string) error {
			b, err := parseBool(v)
			if err != nil {
				return err
			}
			s.AwayOnLock = b
			return nil
		},
	},
	"away-trigger": {
		get: func(s *models.Settings) string { return s.AwayTrigger },
		set: func(s *models.Settings, v string) error {
			s.AwayTrigger = strings.ToLower(v)
			return nil
		},
	},
	"control": {
		get: func(s *models.Settings) string { return s.Screensaver.Control },
		set: func(s *models.Settings, v string) error {
			s.Screensaver.Control = v
			return nil
		},
	},
	"daemon": {
		get: func(s *models.Settings) string { return s.Screensaver.Daemon },
		set: func(s *models.Settings, v string) error {
			s.Screensaver.Daemon = v
			return nil
		},
	},
	"restore-delay":    durationSetting(func(s *models.Settings) *time.Duration { return &s.Timing.RestoreDelay }),
	"start-settle":     durationSetting(func(s *models.Settings) *time.Duration { return &s.Timing.StartSettle }),
	"stop-settle":      durationSetting(func(s *models.Settings) *time.Duration { return &s.Timing.StopSettle }),
	"refresh-interval": durationSetting(func(s *models.Settings) *time.Duration { return &s.Timing.RefreshInterval }),
	"watch-retry":      durationSetting(func(s *models.Settings) *time.Duration { return &s.Timing.WatchRetry }),
	"on-icon": {
		get: func(s *models.Settings) string { return s.Icons.On },
		set: func(s *models.Settings, v string) error {
			s.Icons.On = v
			return nil
		},
	},
	"off-icon": {
		get: func(s *models.Settings) string { return s.Icons.Off },
		set: func(s *models.Settings, v string) error {
			s.Icons.Off = v
			return nil
		},
	},
}

func durationSetting(field func(s *models.Settings) *time.Duration) setting {
	return setting{
		get: func(s *models.Settings) string { return field(s).String() },
		set: func(s *models.Settings, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration %q (use e.g. 500ms, 1s, 2m)", v)
			}
			*field(s) = d
			return nil
		},
	}
}

func settingKeys() []string {
	keys := make([]string, 0, len(settingsTable))
	for k := range settingsTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runSettings(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	changed := false

	newAwayOnLock := promptYesNoWithCurrent(reader, "Set chat status to away while the screen is locked?", settings.AwayOnLock)
	if newAwayOnLock != settings.AwayOnLock {
		settings.AwayOnLock = newAwayOnLock
		changed = true
	}

	fmt.Printf("  Go away on (blank/lock) [%s]: ", settings.AwayTrigger)
	trigger, _ := reader.ReadString('\n')
	trigger = strings.TrimSpace(strings.ToLower(trigger))
	if trigger != "" && trigger != settings.AwayTrigger {
		if trigger != models.AwayTriggerBlank && trigger != models.AwayTriggerLock {
			return fmt.Errorf("invalid away trigger: %s (expected %q or %q)", trigger, models.AwayTriggerBlank, models.AwayTriggerLock)
		}
		settings.AwayTrigger = trigger
		changed = true
	}

	if !changed {
		fmt.Println("\nNo changes made.")
		return nil
	}

	if err := config.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Println("\nSettings updated.")
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if len(args) == 1 {
		s, ok := settingsTable[args[0]]
		if !ok {
			return unknownKeyError(args[0])
		}
		fmt.Println(s.get(settings))
		return nil
	}

	for _, key := range settingKeys() {
		printField(key, settingsTable[key].get(settings))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	s, ok := settingsTable[key]
	if !ok {
		return unknownKeyError(key)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := s.set(settings, value); err != nil {
		return err
	}
	if err := config.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Printf("%s = %s\n", key, s.get(settings))
	return nil
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown setting %q (keys: %s)", key, strings.Join(settingKeys(), ", "))
}

// promptYesNoWithCurrent prompts for a yes/no value showing the current value.
func promptYesNoWithCurrent(reader *bufio.Reader, prompt string, current bool) bool {
	currentStr := "no"
	if current {
		currentStr = "yes"
	}

	fmt.Printf("  %s [%s]: ", prompt, currentStr)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	if response == "" {
		return current
	}
	return response == "y" || response == "yes"
}

// parseBool accepts yes/no and on/off as well as strconv.ParseBool forms.
func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q (use yes or no)", v)
	}
	return b, nil
}
