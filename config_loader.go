package polyvox

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// LoadConfigFromViper reads configuration out of the global viper
// instance, for hosts that already manage one. Keys live under the
// "speech." prefix.
func LoadConfigFromViper() (Config, error) {
	return loadFromViper(viper.GetViper())
}

// LoadConfigFile reads one YAML config file with its own viper
// instance.
func LoadConfigFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return loadFromViper(v)
}

func loadFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	// Synthesis settings
	if v.IsSet("speech.voice") {
		cfg.Voice = v.GetString("speech.voice")
	}
	if v.IsSet("speech.format") {
		cfg.Format = v.GetString("speech.format")
	}
	if v.IsSet("speech.rate") {
		cfg.Rate = v.GetFloat64("speech.rate")
	}
	if v.IsSet("speech.pitch") {
		cfg.Pitch = v.GetFloat64("speech.pitch")
	}
	if v.IsSet("speech.word_boundaries") {
		cfg.WordBoundaries = v.GetBool("speech.word_boundaries")
	}

	// Input limits
	if v.IsSet("speech.max_text_length") {
		cfg.MaxTextLength = v.GetInt("speech.max_text_length")
	}
	if v.IsSet("speech.chunk_chars") {
		cfg.ChunkChars = v.GetInt("speech.chunk_chars")
	}

	if v.IsSet("speech.requests_per_minute") {
		cfg.RequestsPerMinute = v.GetInt("speech.requests_per_minute")
	}
	if v.IsSet("speech.voice_ttl") {
		if d, err := time.ParseDuration(v.GetString("speech.voice_ttl")); err == nil {
			cfg.VoiceTTL = d
		}
	}
	if v.IsSet("speech.skip_code_blocks") {
		cfg.SkipCodeBlocks = v.GetBool("speech.skip_code_blocks")
	}
	if v.IsSet("speech.log_level") {
		cfg.LogLevel = v.GetString("speech.log_level")
	}

	// Cache settings
	if v.IsSet("speech.cache.enabled") {
		cfg.Cache.Enabled = v.GetBool("speech.cache.enabled")
	}
	if v.IsSet("speech.cache.dir") {
		cfg.Cache.Dir = v.GetString("speech.cache.dir")
	}
	if v.IsSet("speech.cache.memory_capacity") {
		cfg.Cache.MemoryCapacity = v.GetInt64("speech.cache.memory_capacity")
	}
	if v.IsSet("speech.cache.disk_capacity") {
		cfg.Cache.DiskCapacity = v.GetInt64("speech.cache.disk_capacity")
	}
	if v.IsSet("speech.cache.compression_level") {
		cfg.Cache.CompressionLevel = v.GetInt("speech.cache.compression_level")
	}
	if v.IsSet("speech.cache.ttl") {
		if d, err := time.ParseDuration(v.GetString("speech.cache.ttl")); err == nil {
			cfg.Cache.TTL = d
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid speech configuration: %w", err)
	}
	return cfg, nil
}

// SetViperDefaults seeds the global viper instance so hosts see the
// library's defaults when keys are absent from their config file.
func SetViperDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("speech.voice", defaults.Voice)
	viper.SetDefault("speech.format", defaults.Format)
	viper.SetDefault("speech.rate", defaults.Rate)
	viper.SetDefault("speech.pitch", defaults.Pitch)
	viper.SetDefault("speech.word_boundaries", defaults.WordBoundaries)
	viper.SetDefault("speech.max_text_length", defaults.MaxTextLength)
	viper.SetDefault("speech.chunk_chars", defaults.ChunkChars)
	viper.SetDefault("speech.requests_per_minute", defaults.RequestsPerMinute)
	viper.SetDefault("speech.voice_ttl", defaults.VoiceTTL.String())
	viper.SetDefault("speech.skip_code_blocks", defaults.SkipCodeBlocks)
	viper.SetDefault("speech.log_level", defaults.LogLevel)

	viper.SetDefault("speech.cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("speech.cache.dir", defaults.Cache.Dir)
	viper.SetDefault("speech.cache.memory_capacity", defaults.Cache.MemoryCapacity)
	viper.SetDefault("speech.cache.disk_capacity", defaults.Cache.DiskCapacity)
	viper.SetDefault("speech.cache.compression_level", defaults.Cache.CompressionLevel)
	viper.SetDefault("speech.cache.ttl", defaults.Cache.TTL.String())
}

// DefaultConfigPath returns where the config file is looked for,
// honoring XDG_CONFIG_HOME over the platform default.
func DefaultConfigPath() (string, error) {
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		return filepath.Join(c, "polyvox", "polyvox.yml"), nil
	}
	scope := gap.NewScope(gap.User, "polyvox")
	path, err := scope.ConfigPath("polyvox.yml")
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

// WatchConfig reloads path on every write, handing each successfully
// parsed Config to onChange. Parse failures keep the previous
// configuration and log a warning. The returned func stops watching.
func WatchConfig(path string, logger *log.Logger, onChange func(Config)) (func() error, error) {
	if logger == nil {
		logger = log.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) {
					continue
				}
				cfg, err := LoadConfigFile(path)
				if err != nil {
					logger.Warn("config reload failed", "path", path, "err", err)
					continue
				}
				logger.Debug("config reloaded", "path", path)
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "err", err)
			}
		}
	}()

	return watcher.Close, nil
}
