package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/f451labs/sysmon/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "", formatVersion(""))
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "v1.2.3", formatVersion("v1.2.3"))
}

func TestWrittenSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)

	s := defaultFileSettings()
	s.AIOID = "tester"
	s.AIOKey = "aio_xxxx"
	s.Display = config.ModePing
	s.Rotation = 180

	require.NoError(t, writeSettings(path, s))

	// The loader must accept exactly what init writes.
	cfg, err := config.Load(path, config.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "tester", cfg.AIOID)
	assert.Equal(t, "aio_xxxx", cfg.AIOKey)
	assert.Equal(t, config.ModePing, cfg.Display)
	assert.Equal(t, 180, cfg.Rotation)
	assert.Equal(t, "sysmon.download", cfg.FeedDwnld)
	assert.Equal(t, time.Duration(config.DefaultFreq)*time.Second, cfg.Freq)
}

func TestWrittenSettingsHaveHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)

	require.NoError(t, writeSettings(path, defaultFileSettings()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# SysMon configuration")
	assert.Contains(t, string(data), "AIO_UPLOAD = 'yes'")
}

func TestOverridesFromFlags(t *testing.T) {
	uploadsFlag = 5
	progressFlag = true
	dmodeFlag = config.ModePing
	noCLIFlag = true
	noLEDFlag = true
	debugFlag = true
	demoFlag = true
	logFlag = "/tmp/sysmon.log"
	t.Cleanup(func() {
		uploadsFlag, progressFlag, dmodeFlag = 0, false, ""
		noCLIFlag, noLEDFlag, debugFlag, demoFlag, logFlag = false, false, false, false, ""
	})

	ov := overridesFromFlags()
	assert.Equal(t, config.Overrides{
		Uploads:  5,
		Progress: true,
		DMode:    config.ModePing,
		NoCLI:    true,
		NoLED:    true,
		Debug:    true,
		Demo:     true,
		LogFile:  "/tmp/sysmon.log",
	}, ov)
}

func TestRootFlagsRegistered(t *testing.T) {
	for _, name := range []string{
		"config", "uploads", "progress", "dmode", "noCLI", "noLED", "debug", "demo", "log",
	} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), "flag --%s", name)
	}
}

func TestVersionCommandRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["version"])
	assert.True(t, names["init"])
}
