// Package cli defines the sysmon command tree: the root command runs the
// agent, `init` writes a starter settings.toml, and `version` prints build
// information.
package cli

import (
	"fmt"
	"os"

	"github.com/f451labs/sysmon/internal/config"
	"github.com/spf13/cobra"
)

// Root command flags. Flags override file settings; see config.Overrides.
var (
	configFlag   string
	uploadsFlag  int
	progressFlag bool
	dmodeFlag    string
	noCLIFlag    bool
	noLEDFlag    bool
	debugFlag    bool
	demoFlag     bool
	logFlag      string
)

// rootCmd runs the agent until interrupted or the bounded upload count is
// reached.
var rootCmd = &cobra.Command{
	Use:   "sysmon",
	Short: "Internet speed monitor for Raspberry Pi with Sense HAT",
	Long: `SysMon periodically measures internet performance (download, upload,
ping), shows live readings on the Sense HAT 8x8 LED matrix, and uploads
them to Adafruit IO feeds.

Without a Sense HAT it runs a terminal dashboard where the arrow keys and
enter act as the joystick.

Examples:
  sysmon                      Run with ./settings.toml
  sysmon --demo --noLED       Simulated readings, terminal dashboard only
  sysmon --uploads 10         Stop after 10 successful uploads
  sysmon --dmode ping         Start on the ping graph`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent(cmd.Context(), overridesFromFlags())
	},
}

func overridesFromFlags() config.Overrides {
	return config.Overrides{
		Uploads:  uploadsFlag,
		Progress: progressFlag,
		DMode:    dmodeFlag,
		NoCLI:    noCLIFlag,
		NoLED:    noLEDFlag,
		Debug:    debugFlag,
		Demo:     demoFlag,
		LogFile:  logFlag,
	}
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configFlag, "config", "", "Path to settings.toml (default: ./settings.toml, then ~/.config/sysmon/)")
	f.IntVar(&uploadsFlag, "uploads", 0, "Stop after N successful uploads (0 = run until interrupted)")
	f.BoolVar(&progressFlag, "progress", false, "Show the time-to-next-upload bar on the LED top row")
	f.StringVar(&dmodeFlag, "dmode", "", "Initial display mode: download, upload, ping, or sparkles")
	f.BoolVar(&noCLIFlag, "noCLI", false, "Disable all terminal output")
	f.BoolVar(&noLEDFlag, "noLED", false, "Disable the LED matrix")
	f.BoolVar(&debugFlag, "debug", false, "Log at debug level")
	f.BoolVar(&demoFlag, "demo", false, "Use simulated readings instead of real speed tests")
	f.StringVar(&logFlag, "log", "", "Log file path (overrides LOGFILE)")
}

// Execute runs the root command and exits non-zero on fatal errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
