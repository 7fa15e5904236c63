package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/f451labs/sysmon/internal/config"
	"github.com/f451labs/sysmon/internal/errors"
	"github.com/f451labs/sysmon/internal/ui"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var initForce bool

// initCmd creates a starter settings.toml interactively.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a settings.toml interactively",
	Long: `Create a settings.toml in the current directory with your Adafruit IO
credentials and feed keys. Run sysmon from the same directory afterwards,
or move the file to ~/.config/sysmon/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initSettings(initForce)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing settings.toml")
}

// fileSettings is the settings.toml shape written by init. Keys are the
// canonical upper-case forms the loader accepts.
type fileSettings struct {
	AIOID     string `toml:"AIO_ID"`
	AIOKey    string `toml:"AIO_KEY"`
	AIOUpload string `toml:"AIO_UPLOAD"`
	FeedDwnld string `toml:"FEED_DWNLD"`
	FeedUpld  string `toml:"FEED_UPLD"`
	FeedPing  string `toml:"FEED_PING"`
	Rotation  int    `toml:"ROTATION"`
	Display   string `toml:"DISPLAY"`
	Progress  bool   `toml:"PROGRESS"`
	Sleep     int    `toml:"SLEEP"`
	Freq      int    `toml:"FREQ"`
	Delay     int    `toml:"DELAY"`
	Wait      int    `toml:"WAIT"`
	Throttle  int    `toml:"THROTTLE"`
	Rounding  int    `toml:"ROUNDING"`
	LogLvl    string `toml:"LOGLVL"`
	Demo      bool   `toml:"DEMO"`
	LED       string `toml:"LED"`
}

func defaultFileSettings() fileSettings {
	return fileSettings{
		AIOUpload: config.UploadYes,
		FeedDwnld: "sysmon.download",
		FeedUpld:  "sysmon.upload",
		FeedPing:  "sysmon.ping",
		Display:   config.ModeSparkles,
		Sleep:     config.DefaultSleep,
		Freq:      config.DefaultFreq,
		Delay:     config.DefaultDelay,
		Wait:      config.DefaultWait,
		Throttle:  config.DefaultThrottle,
		Rounding:  config.DefaultRounding,
		LogLvl:    "info",
		LED:       config.LEDHat,
	}
}

// initSettings runs the interactive form and writes settings.toml.
func initSettings(force bool) error {
	path := filepath.Join(".", config.ConfigFileName)

	if _, err := os.Stat(path); err == nil && !force {
		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("'%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	s := defaultFileSettings()
	demo := false

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Adafruit IO username").
				Description("From io.adafruit.com, shown under 'My Key'").
				Value(&s.AIOID).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("username is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Adafruit IO key").
				EchoMode(huh.EchoModePassword).
				Value(&s.AIOKey).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("key is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Download feed key").
				Value(&s.FeedDwnld),
			huh.NewInput().
				Title("Upload feed key").
				Value(&s.FeedUpld),
			huh.NewInput().
				Title("Ping feed key").
				Value(&s.FeedPing),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Upload mode").
				Options(
					huh.NewOption("yes (degrade on feed errors)", config.UploadYes),
					huh.NewOption("no (display only)", config.UploadNo),
					huh.NewOption("force (bad feed is fatal)", config.UploadForce),
				).
				Value(&s.AIOUpload),
			huh.NewSelect[string]().
				Title("Initial display mode").
				Options(
					huh.NewOption("sparkles", config.ModeSparkles),
					huh.NewOption("download", config.ModeDownload),
					huh.NewOption("upload", config.ModeUpload),
					huh.NewOption("ping", config.ModePing),
				).
				Value(&s.Display),
			huh.NewConfirm().
				Title("Demo mode? (simulated readings, no real speed tests)").
				Value(&demo),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility")
	}
	s.Demo = demo

	if err := writeSettings(path, s); err != nil {
		return err
	}

	fmt.Printf("%s Created %s\n\n", ui.SymbolSuccess, path)
	fmt.Println("Next steps:")
	fmt.Println("  sysmon                 - Start monitoring")
	fmt.Println("  sysmon --demo --noLED  - Try it without hardware")
	fmt.Println("  sysmon --uploads 3     - Bounded test run")
	return nil
}

// writeSettings marshals the settings and writes them with a header.
func writeSettings(path string, s fileSettings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate settings",
			"This shouldn't happen - please report this bug")
	}

	header := `# SysMon configuration
# Credentials and feed keys come from your Adafruit IO account.
# Times are in seconds.

`
	if err := os.WriteFile(path, []byte(header+string(data)), 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+path,
			"Check directory permissions")
	}
	return nil
}
