package config

import (
	"os"
	"path/filepath"

	"github.com/f451labs/sysmon/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default settings file name.
	ConfigFileName = "settings.toml"
	// GlobalConfigDir is the directory for the global settings file.
	GlobalConfigDir = ".config/sysmon"
)

// Load reads settings from the specified path, merges the CLI overrides,
// and validates the result.
func Load(path string, ov Overrides) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Settings file not found",
				"Run 'sysmon init' to create settings.toml, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read settings file",
			"Check the file exists and is valid TOML")
	}

	return parseConfig(v, path, ov)
}

// LoadOrDefault loads settings from the found path, or resolves pure
// defaults plus overrides if no file exists. Without a file there are no
// credentials, so uploads default off and the run is display-only; demo
// runs work without any settings.toml.
func LoadOrDefault(explicit string, ov Overrides) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}

	if path == "" {
		s := defaultSettings()
		s.AIOUpload = UploadNo
		cfg := resolve(s, ov)
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return Load(path, ov)
}

// Find locates the settings file using the search order:
// 1. Explicit path (from --config flag)
// 2. settings.toml in the current directory
// 3. ~/.config/sysmon/settings.toml
//
// Returns the path to the settings file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified settings file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access settings file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if home, _ := os.UserHomeDir(); home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, ConfigFileName)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// parseConfig converts viper settings to a validated Config with defaults
// and overrides merged in.
func parseConfig(v *viper.Viper, path string, ov Overrides) (*Config, error) {
	s := defaultSettings()

	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid settings format",
			"Check the TOML syntax in "+path)
	}

	cfg := resolve(s, ov)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
