package polyvox

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
)

// Config contains the synthesizer's configuration options.
type Config struct {
	// Synthesis settings
	Voice  string  `yaml:"voice" env:"POLYVOX_VOICE"`
	Format string  `yaml:"format" env:"POLYVOX_FORMAT" envDefault:"wav"`
	Rate   float64 `yaml:"rate" env:"POLYVOX_RATE" envDefault:"1.0"`
	Pitch  float64 `yaml:"pitch" env:"POLYVOX_PITCH" envDefault:"0.0"`

	// WordBoundaries asks engines for native word timing when they can
	// produce it; estimation covers the rest either way.
	WordBoundaries bool `yaml:"word_boundaries" env:"POLYVOX_WORD_BOUNDARIES" envDefault:"true"`

	// Input limits. MaxTextLength rejects oversized inputs outright;
	// ChunkChars splits long prose into separately rendered pieces.
	// Zero disables either.
	MaxTextLength int `yaml:"max_text_length" env:"POLYVOX_MAX_TEXT_LENGTH" envDefault:"0"`
	ChunkChars    int `yaml:"chunk_chars" env:"POLYVOX_CHUNK_CHARS" envDefault:"0"`

	// RequestsPerMinute throttles engine calls; zero means unthrottled.
	RequestsPerMinute int `yaml:"requests_per_minute" env:"POLYVOX_REQUESTS_PER_MINUTE" envDefault:"0"`

	// VoiceTTL is how long a fetched voice list stays fresh.
	VoiceTTL time.Duration `yaml:"voice_ttl" env:"POLYVOX_VOICE_TTL" envDefault:"15m"`

	// SkipCodeBlocks drops fenced code from spoken markdown.
	SkipCodeBlocks bool `yaml:"skip_code_blocks" env:"POLYVOX_SKIP_CODE_BLOCKS" envDefault:"true"`

	LogLevel string `yaml:"log_level" env:"POLYVOX_LOG_LEVEL" envDefault:"info"`

	Cache CacheConfig `yaml:"cache" envPrefix:"POLYVOX_CACHE_"`
}

// CacheConfig controls the audio cache tiers.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED" envDefault:"false"`

	// Dir is the disk tier location; empty picks the default under the
	// user cache directory. Memory-only caching uses DiskCapacity 0.
	Dir string `yaml:"dir" env:"DIR"`

	MemoryCapacity int64 `yaml:"memory_capacity" env:"MEMORY_CAPACITY" envDefault:"33554432"`
	DiskCapacity   int64 `yaml:"disk_capacity" env:"DISK_CAPACITY" envDefault:"268435456"`

	// CompressionLevel is the zstd level for the disk tier, 0 disables.
	CompressionLevel int `yaml:"compression_level" env:"COMPRESSION_LEVEL" envDefault:"3"`

	// TTL ages entries out; zero keeps them until evicted.
	TTL time.Duration `yaml:"ttl" env:"TTL" envDefault:"168h"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Format:         "wav",
		Rate:           1.0,
		Pitch:          0.0,
		WordBoundaries: true,
		VoiceTTL:       15 * time.Minute,
		SkipCodeBlocks: true,
		LogLevel:       "info",
		Cache:          DefaultCacheConfig(),
	}
}

// ToOptions converts the configuration into the synthesis options
// requests start from.
func (c Config) ToOptions() SynthesisOptions {
	return SynthesisOptions{
		VoiceID:         c.Voice,
		Format:          Format(c.Format),
		Rate:            c.Rate,
		Pitch:           c.Pitch,
		UseWordBoundary: c.WordBoundaries,
	}
}

// DefaultCacheConfig returns default cache settings.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:          false,
		MemoryCapacity:   32 * 1024 * 1024,
		DiskCapacity:     256 * 1024 * 1024,
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
	}
}

// Load reads configuration from the environment, consulting a .env
// file when one is present in the working directory.
func Load() (Config, error) {
	// Missing .env files are fine; explicit environment still applies.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid, normalizing
// case-insensitive fields in place.
func (c *Config) Validate() error {
	validFormats := []string{"wav", "mp3", "ogg", "pcm"}
	formatValid := false
	for _, f := range validFormats {
		if strings.EqualFold(c.Format, f) {
			formatValid = true
			c.Format = strings.ToLower(c.Format)
			break
		}
	}
	if !formatValid {
		return fmt.Errorf("%w: invalid format '%s': must be one of %v", ErrInvalidConfig, c.Format, validFormats)
	}

	if c.Rate < 0.25 || c.Rate > 4.0 {
		return fmt.Errorf("%w: rate must be between 0.25 and 4.0, got %f", ErrInvalidConfig, c.Rate)
	}

	if c.Pitch < -20.0 || c.Pitch > 20.0 {
		return fmt.Errorf("%w: pitch must be between -20.0 and 20.0, got %f", ErrInvalidConfig, c.Pitch)
	}

	if c.MaxTextLength < 0 {
		return fmt.Errorf("%w: max_text_length cannot be negative, got %d", ErrInvalidConfig, c.MaxTextLength)
	}

	if c.ChunkChars < 0 {
		return fmt.Errorf("%w: chunk_chars cannot be negative, got %d", ErrInvalidConfig, c.ChunkChars)
	}

	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: requests_per_minute cannot be negative, got %d", ErrInvalidConfig, c.RequestsPerMinute)
	}

	if c.VoiceTTL < 0 {
		return fmt.Errorf("%w: voice_ttl cannot be negative, got %v", ErrInvalidConfig, c.VoiceTTL)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, l := range validLevels {
		if strings.EqualFold(c.LogLevel, l) {
			levelValid = true
			c.LogLevel = strings.ToLower(c.LogLevel)
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("%w: invalid log level '%s': must be one of %v", ErrInvalidConfig, c.LogLevel, validLevels)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	return nil
}

// Validate checks if the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if c.MemoryCapacity < 0 {
		return fmt.Errorf("%w: memory_capacity cannot be negative, got %d", ErrInvalidConfig, c.MemoryCapacity)
	}
	if c.DiskCapacity < 0 {
		return fmt.Errorf("%w: disk_capacity cannot be negative, got %d", ErrInvalidConfig, c.DiskCapacity)
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 22 {
		return fmt.Errorf("%w: compression_level must be between 0 and 22, got %d", ErrInvalidConfig, c.CompressionLevel)
	}
	if c.TTL < 0 {
		return fmt.Errorf("%w: ttl cannot be negative, got %v", ErrInvalidConfig, c.TTL)
	}
	return nil
}

// DefaultCacheDir returns where the disk tier lives when Dir is not
// set.
func DefaultCacheDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "polyvox", "audio"), nil
}
