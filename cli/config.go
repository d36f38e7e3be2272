package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mobile-next/rendershell/commands"
	"github.com/mobile-next/rendershell/devices"
	"github.com/mobile-next/rendershell/utils"
	"gopkg.in/ini.v1"
)

const (
	defaultServerAddress = "localhost:12000"
	configFileName       = "config.ini"
	configDirName        = "rendershell"
)

// Config holds the settings read from config.ini. Command-line flags take
// precedence over it.
//
//	[server]
//	listen = localhost:12000
//	cors = false
//
//	[sessions]
//	max = 16
//
//	[camera]
//	video_type = 1
//	video_size_index = 0
//
//	[log]
//	verbose = false
type Config struct {
	Path           string
	Listen         string
	CORS           bool
	MaxSessions    int
	VideoType      int
	VideoSizeIndex int
	Verbose        bool
}

func defaultConfig() Config {
	return Config{
		Listen:      defaultServerAddress,
		MaxSessions: commands.DefaultMaxSessions,
		VideoType:   int(devices.VideoTypeMain),
	}
}

// defaultConfigPath returns the config file in the user config directory,
// or "" when there is none
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	path := filepath.Join(dir, configDirName, configFileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// loadConfig reads path, or the default config file when path is empty.
// A missing default file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = defaultConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	file, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	cfg.Path = path

	srv := file.Section("server")
	cfg.Listen = srv.Key("listen").MustString(cfg.Listen)
	cfg.CORS = srv.Key("cors").MustBool(cfg.CORS)

	cfg.MaxSessions = file.Section("sessions").Key("max").MustInt(cfg.MaxSessions)

	camera := file.Section("camera")
	cfg.VideoType = camera.Key("video_type").MustInt(cfg.VideoType)
	cfg.VideoSizeIndex = camera.Key("video_size_index").MustInt(cfg.VideoSizeIndex)

	cfg.Verbose = file.Section("log").Key("verbose").MustBool(cfg.Verbose)

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxSessions <= 0 {
		return fmt.Errorf("sessions.max must be positive, got %d", c.MaxSessions)
	}
	if c.Listen == "" {
		return errors.New("server.listen must not be empty")
	}
	switch devices.VideoType(c.VideoType) {
	case devices.VideoTypeNone, devices.VideoTypeMain, devices.VideoTypeSecondary:
	default:
		return fmt.Errorf("camera.video_type must be 0, 1 or 2, got %d", c.VideoType)
	}
	return nil
}

// apply pushes the config into the logger and the session layer
func (c Config) apply() error {
	utils.SetVerbose(c.Verbose)

	if err := commands.ConfigureSessions(c.MaxSessions); err != nil {
		return err
	}
	commands.SetCameraDefaults(commands.CameraDefaults{
		VideoType:      c.VideoType,
		VideoSizeIndex: c.VideoSizeIndex,
	})
	return nil
}
