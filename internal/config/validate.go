package config

import (
	"fmt"

	"github.com/f451labs/sysmon/internal/errors"
)

var validRotations = map[int]bool{0: true, 90: true, 180: true, 270: true}

var validModes = map[string]bool{
	ModeDownload: true,
	ModeUpload:   true,
	ModePing:     true,
	ModeSparkles: true,
}

var validUploadModes = map[string]bool{
	UploadYes:   true,
	UploadNo:    true,
	UploadForce: true,
}

var validLEDs = map[string]bool{LEDHat: true, LEDSim: true, LEDOff: true}

// Validate checks a resolved Config for malformed or contradictory
// values. Any error here is fatal before the main loop starts.
func Validate(cfg *Config) error {
	if !validRotations[cfg.Rotation] {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid ROTATION %d", cfg.Rotation),
			"Use one of 0, 90, 180, or 270")
	}

	if !validModes[cfg.Display] {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid display mode %q", cfg.Display),
			"Use one of download, upload, ping, or sparkles")
	}

	if !validUploadModes[cfg.UploadMode] {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid AIO_UPLOAD %q", cfg.UploadMode),
			"Use one of yes, no, or force")
	}

	if !validLEDs[cfg.LED] {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid LED %q", cfg.LED),
			"Use one of hat, sim, or off")
	}

	if cfg.Freq <= 0 || cfg.Delay < 0 || cfg.Wait <= 0 || cfg.Throttle < 0 {
		return errors.New(errors.ErrConfig,
			"FREQ and WAIT must be positive; DELAY and THROTTLE must not be negative",
			"Check the timing values in settings.toml")
	}

	if cfg.Rounding < 0 || cfg.Rounding > 6 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid ROUNDING %d", cfg.Rounding),
			"Use a precision between 0 and 6 decimal places")
	}

	if cfg.Sleep <= 0 {
		return errors.New(errors.ErrConfig,
			"SLEEP must be positive",
			"Set the idle blanking timeout in seconds")
	}

	// A bounded run counts successful uploads; it cannot complete when
	// uploads are disabled.
	if cfg.MaxUploads > 0 && cfg.UploadMode == UploadNo {
		return errors.New(errors.ErrConfig,
			"--uploads requires uploads to be enabled, but AIO_UPLOAD is \"no\"",
			"Remove --uploads or set AIO_UPLOAD to yes/force")
	}

	if cfg.UploadMode != UploadNo {
		if cfg.AIOID == "" || cfg.AIOKey == "" {
			return errors.New(errors.ErrConfig,
				"AIO_ID and AIO_KEY are required when uploads are enabled",
				"Add Adafruit IO credentials to settings.toml or set AIO_UPLOAD = \"no\"")
		}
		if cfg.FeedDwnld == "" || cfg.FeedUpld == "" || cfg.FeedPing == "" {
			return errors.New(errors.ErrConfig,
				"FEED_DWNLD, FEED_UPLD, and FEED_PING are required when uploads are enabled",
				"Add the three feed keys to settings.toml or set AIO_UPLOAD = \"no\"")
		}
	}

	return nil
}
