package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the recorder.
type Config struct {
	DocumentsDir string `validate:"required"`
	StagingDir   string `validate:"required"`
	Audio        AudioConfig
	Session      SessionConfig
	Log          LogConfig

	// FilePath is the config file that was read, if any.
	FilePath string
}

type AudioConfig struct {
	RecorderCommand string `validate:"required"`
	PlayerCommand   string `validate:"required"`
	InputFormat     string `validate:"required"`
	InputDevice     string `validate:"required"`
	SampleRate      int    `validate:"gte=8000,lte=192000"`
	Channels        int    `validate:"gte=1,lte=2"`
}

type SessionConfig struct {
	TickInterval     time.Duration `validate:"gt=0"`
	RotationInterval time.Duration `validate:"gt=0"`
	TicksPerSegment  int           `validate:"gt=0"`
	SettleDelay      time.Duration `validate:"gte=0"`
}

type LogConfig struct {
	Level      string `validate:"oneof=debug info warn error"`
	File       string
	MaxSizeMB  int `validate:"gte=0"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
	Console    bool
}

type fileConfig struct {
	DocumentsDir string `toml:"documents_dir"`
	StagingDir   string `toml:"staging_dir"`
	Audio        struct {
		RecorderCommand string `toml:"ffmpeg_command"`
		PlayerCommand   string `toml:"ffplay_command"`
		InputFormat     string `toml:"input_format"`
		InputDevice     string `toml:"input_device"`
		SampleRate      int    `toml:"sample_rate"`
		Channels        int    `toml:"channels"`
	} `toml:"audio"`
	Session struct {
		TickIntervalMS     int  `toml:"tick_interval_ms"`
		RotationIntervalMS int  `toml:"rotation_interval_ms"`
		TicksPerSegment    int  `toml:"ticks_per_segment"`
		SettleDelayMS      *int `toml:"settle_delay_ms"`
	} `toml:"session"`
	Log struct {
		Level      string `toml:"level"`
		File       string `toml:"file"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Console    *bool  `toml:"console"`
	} `toml:"log"`
}

// Load resolves configuration from defaults, the config file and environment
// variables, in that order, then validates it. Variables from segrec.env in
// the config directory and .env in the working directory fill in whatever
// the environment leaves unset.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	if err := loadEnvFiles(home); err != nil {
		return Config{}, err
	}

	cfg := defaults(home)

	if path := configFilePath(home); path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		applyFile(&cfg, fc, home)
		cfg.FilePath = path
	}

	applyEnvOverrides(&cfg, home)

	if err := validator.New().Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(cfg.DocumentsDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("creating documents directory: %w", err)
	}
	return cfg, nil
}

func defaults(home string) Config {
	return Config{
		DocumentsDir: filepath.Join(home, "Documents", "segrec"),
		StagingDir:   filepath.Join(os.TempDir(), "segrec"),
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			PlayerCommand:   "ffplay",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      44100,
			Channels:        1,
		},
		Session: SessionConfig{
			TickInterval:     time.Second,
			RotationInterval: 5 * time.Second,
			TicksPerSegment:  5,
			SettleDelay:      100 * time.Millisecond,
		},
		Log: LogConfig{
			Level:      "info",
			File:       filepath.Join(stateDir(home), "segrec.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func applyFile(cfg *Config, fc fileConfig, home string) {
	if fc.DocumentsDir != "" {
		cfg.DocumentsDir = expandTilde(fc.DocumentsDir, home)
	}
	if fc.StagingDir != "" {
		cfg.StagingDir = expandTilde(fc.StagingDir, home)
	}

	cfg.Audio.RecorderCommand = firstNonEmpty(fc.Audio.RecorderCommand, cfg.Audio.RecorderCommand)
	cfg.Audio.PlayerCommand = firstNonEmpty(fc.Audio.PlayerCommand, cfg.Audio.PlayerCommand)
	cfg.Audio.InputFormat = firstNonEmpty(fc.Audio.InputFormat, cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = firstNonEmpty(fc.Audio.InputDevice, cfg.Audio.InputDevice)
	if fc.Audio.SampleRate > 0 {
		cfg.Audio.SampleRate = fc.Audio.SampleRate
	}
	if fc.Audio.Channels > 0 {
		cfg.Audio.Channels = fc.Audio.Channels
	}

	if fc.Session.TickIntervalMS > 0 {
		cfg.Session.TickInterval = time.Duration(fc.Session.TickIntervalMS) * time.Millisecond
	}
	if fc.Session.RotationIntervalMS > 0 {
		cfg.Session.RotationInterval = time.Duration(fc.Session.RotationIntervalMS) * time.Millisecond
	}
	if fc.Session.TicksPerSegment > 0 {
		cfg.Session.TicksPerSegment = fc.Session.TicksPerSegment
	}
	if fc.Session.SettleDelayMS != nil {
		cfg.Session.SettleDelay = time.Duration(*fc.Session.SettleDelayMS) * time.Millisecond
	}

	cfg.Log.Level = firstNonEmpty(fc.Log.Level, cfg.Log.Level)
	if fc.Log.File != "" {
		cfg.Log.File = expandTilde(fc.Log.File, home)
	}
	if fc.Log.MaxSizeMB > 0 {
		cfg.Log.MaxSizeMB = fc.Log.MaxSizeMB
	}
	if fc.Log.MaxBackups > 0 {
		cfg.Log.MaxBackups = fc.Log.MaxBackups
	}
	if fc.Log.MaxAgeDays > 0 {
		cfg.Log.MaxAgeDays = fc.Log.MaxAgeDays
	}
	if fc.Log.Console != nil {
		cfg.Log.Console = *fc.Log.Console
	}
}

func applyEnvOverrides(cfg *Config, home string) {
	if v := strings.TrimSpace(os.Getenv("SEGREC_DOCUMENTS_DIR")); v != "" {
		cfg.DocumentsDir = expandTilde(v, home)
	}
	if v := strings.TrimSpace(os.Getenv("SEGREC_STAGING_DIR")); v != "" {
		cfg.StagingDir = expandTilde(v, home)
	}

	cfg.Audio.RecorderCommand = envOrDefault("SEGREC_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.PlayerCommand = envOrDefault("SEGREC_FFPLAY_COMMAND", cfg.Audio.PlayerCommand)
	cfg.Audio.InputFormat = envOrDefault("SEGREC_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = envOrDefault("SEGREC_AUDIO_INPUT_DEVICE", cfg.Audio.InputDevice)
	cfg.Audio.SampleRate = envOrDefaultInt("SEGREC_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("SEGREC_CHANNELS", cfg.Audio.Channels)

	cfg.Session.TickInterval = envOrDefaultMillis("SEGREC_TICK_INTERVAL_MS", cfg.Session.TickInterval)
	cfg.Session.RotationInterval = envOrDefaultMillis("SEGREC_ROTATION_INTERVAL_MS", cfg.Session.RotationInterval)
	cfg.Session.TicksPerSegment = envOrDefaultInt("SEGREC_TICKS_PER_SEGMENT", cfg.Session.TicksPerSegment)
	cfg.Session.SettleDelay = envOrDefaultMillis("SEGREC_SETTLE_DELAY_MS", cfg.Session.SettleDelay)

	cfg.Log.Level = strings.ToLower(envOrDefault("SEGREC_LOG_LEVEL", cfg.Log.Level))
	if v := strings.TrimSpace(os.Getenv("SEGREC_LOG_FILE")); v != "" {
		cfg.Log.File = expandTilde(v, home)
	}
	cfg.Log.Console = envOrDefaultBool("SEGREC_LOG_CONSOLE", cfg.Log.Console)
}

func loadEnvFiles(home string) error {
	for _, path := range []string{filepath.Join(configDir(home), "segrec.env"), ".env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("reading env file %s: %w", path, err)
		}
	}
	return nil
}

func configFilePath(home string) string {
	if explicit := strings.TrimSpace(os.Getenv("SEGREC_CONFIG")); explicit != "" {
		return expandTilde(explicit, home)
	}

	path := filepath.Join(configDir(home), "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func configDir(home string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "segrec")
	}
	return filepath.Join(home, ".config", "segrec")
}

func stateDir(home string) string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "segrec")
	}
	return filepath.Join(home, ".local", "state", "segrec")
}

func expandTilde(path string, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultMillis(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
