// Package config loads settings.toml, merges CLI overrides, and produces
// the immutable runtime configuration every other component receives at
// construction time. Nothing reads settings after startup.
package config

import "time"

// Display mode names, also accepted by the --dmode flag.
const (
	ModeDownload = "download"
	ModeUpload   = "upload"
	ModePing     = "ping"
	ModeSparkles = "sparkles"
)

// Modes is the display rotation order used by joystick left/right cycling.
var Modes = []string{ModeDownload, ModeUpload, ModePing, ModeSparkles}

// Upload modes for the AIO_UPLOAD setting.
const (
	UploadYes   = "yes"   // upload on schedule, degrade on feed errors
	UploadNo    = "no"    // never upload, keep collecting and displaying
	UploadForce = "force" // feed validation failure is fatal before the loop
)

// LED device selection for the LED setting.
const (
	LEDHat = "hat" // Sense HAT framebuffer + evdev joystick
	LEDSim = "sim" // terminal dashboard simulator
	LEDOff = "off" // no LED output
)

// Defaults matching the original settings.toml conventions. All wait
// values are seconds in the file.
const (
	DefaultFreq     = 600 // seconds between uploads
	DefaultDelay    = 300 // seconds before the first upload
	DefaultWait     = 1   // seconds between samples (clamped for live runs)
	DefaultThrottle = 120 // flat penalty in seconds on a throttled upload
	DefaultSleep    = 600 // seconds of joystick idle before blanking
	DefaultRounding = 2   // decimal places for uploaded values

	// MinLiveWait is the floor for WAIT when the real speed-test client is
	// in use. Speed tests take tens of seconds and hammering the test
	// servers more often than this is pointless.
	MinLiveWait = 300
)

// settings mirrors the flat settings.toml key space. Viper lowercases
// keys, so the mapstructure tags are the lower-case forms of the
// canonical upper-case file keys.
type settings struct {
	AIOID       string `mapstructure:"aio_id"`
	AIOKey      string `mapstructure:"aio_key"`
	AIOUpload   string `mapstructure:"aio_upload"`
	FeedDwnld   string `mapstructure:"feed_dwnld"`
	FeedUpld    string `mapstructure:"feed_upld"`
	FeedPing    string `mapstructure:"feed_ping"`
	Rotation    int    `mapstructure:"rotation"`
	Display     string `mapstructure:"display"`
	Progress    bool   `mapstructure:"progress"`
	Sleep       int    `mapstructure:"sleep"`
	Freq        int    `mapstructure:"freq"`
	Delay       int    `mapstructure:"delay"`
	Wait        int    `mapstructure:"wait"`
	Throttle    int    `mapstructure:"throttle"`
	Rounding    int    `mapstructure:"rounding"`
	LogFile     string `mapstructure:"logfile"`
	LogLvl      string `mapstructure:"loglvl"`
	Demo        bool   `mapstructure:"demo"`
	LED         string `mapstructure:"led"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Config is the immutable runtime configuration. It is created once at
// startup from merged file and CLI sources and never mutated afterwards.
type Config struct {
	// Adafruit IO credentials and feed keys.
	AIOID      string
	AIOKey     string
	UploadMode string
	FeedDwnld  string
	FeedUpld   string
	FeedPing   string

	// Display settings.
	Rotation int
	Display  string
	Progress bool
	Sleep    time.Duration

	// Scheduling settings.
	Freq     time.Duration
	Delay    time.Duration
	Wait     time.Duration
	Throttle time.Duration
	Rounding int

	// Run shape.
	MaxUploads int // 0 or negative means unbounded
	Demo       bool
	LED        string
	NoCLI      bool
	NoLED      bool
	Debug      bool

	// Observability.
	LogFile     string
	LogLvl      string
	MetricsAddr string
}

// Overrides carries CLI flag values that take precedence over the file.
// Zero values mean "flag not given" except for the booleans, which only
// ever force a setting on.
type Overrides struct {
	Uploads  int    // --uploads, <= 0 means unbounded
	Progress bool   // --progress forces the progress bar on
	DMode    string // --dmode forces the initial display mode
	NoCLI    bool   // --noCLI
	NoLED    bool   // --noLED
	Debug    bool   // --debug forces LOGLVL to debug
	Demo     bool   // --demo forces the demo collector
	LogFile  string // --log overrides LOGFILE
}

// defaultSettings returns the file-level defaults before any file or flag
// is applied.
func defaultSettings() settings {
	return settings{
		AIOUpload: UploadYes,
		Rotation:  0,
		Display:   ModeSparkles,
		Sleep:     DefaultSleep,
		Freq:      DefaultFreq,
		Delay:     DefaultDelay,
		Wait:      DefaultWait,
		Throttle:  DefaultThrottle,
		Rounding:  DefaultRounding,
		LogLvl:    "info",
		LED:       LEDHat,
	}
}

// resolve merges raw file settings and CLI overrides into a Config.
func resolve(s settings, ov Overrides) *Config {
	cfg := &Config{
		AIOID:       s.AIOID,
		AIOKey:      s.AIOKey,
		UploadMode:  s.AIOUpload,
		FeedDwnld:   s.FeedDwnld,
		FeedUpld:    s.FeedUpld,
		FeedPing:    s.FeedPing,
		Rotation:    s.Rotation,
		Display:     s.Display,
		Progress:    s.Progress || ov.Progress,
		Sleep:       time.Duration(s.Sleep) * time.Second,
		Freq:        time.Duration(s.Freq) * time.Second,
		Delay:       time.Duration(s.Delay) * time.Second,
		Wait:        time.Duration(s.Wait) * time.Second,
		Throttle:    time.Duration(s.Throttle) * time.Second,
		Rounding:    s.Rounding,
		MaxUploads:  ov.Uploads,
		Demo:        s.Demo || ov.Demo,
		LED:         s.LED,
		NoCLI:       ov.NoCLI,
		NoLED:       ov.NoLED,
		Debug:       ov.Debug,
		LogFile:     s.LogFile,
		LogLvl:      s.LogLvl,
		MetricsAddr: s.MetricsAddr,
	}

	if ov.DMode != "" {
		cfg.Display = ov.DMode
	}
	if ov.LogFile != "" {
		cfg.LogFile = ov.LogFile
	}
	if ov.Debug {
		cfg.LogLvl = "debug"
	}
	if cfg.NoLED {
		cfg.LED = LEDOff
	}

	// Real speed tests are long-running; only demo mode may tick faster.
	if !cfg.Demo && cfg.Wait < MinLiveWait*time.Second {
		cfg.Wait = MinLiveWait * time.Second
	}

	return cfg
}
