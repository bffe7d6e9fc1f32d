package tts

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all speech engine configuration options.
type Config struct {
	Voices     VoicesConfig   `yaml:"voices" mapstructure:"voices"`
	Chunker    ChunkerConfig  `yaml:"chunker" mapstructure:"chunker"`
	Priorities PriorityConfig `yaml:"priorities" mapstructure:"priorities"`
	Log        LogConfig      `yaml:"log" mapstructure:"log"`
	Synth      SynthConfig    `yaml:"synth" mapstructure:"synth"`
	Player     PlayerConfig   `yaml:"player" mapstructure:"player"`
	Cache      CacheConfig    `yaml:"cache" mapstructure:"cache"`
}

// VoicesConfig bounds concurrent playback.
type VoicesConfig struct {
	MaxVoices           int                 `yaml:"max_voices" mapstructure:"max_voices" env:"SPEAKFLOW_MAX_VOICES" envDefault:"1"`
	MaxVoicesPerOwner   int                 `yaml:"max_voices_per_owner" mapstructure:"max_voices_per_owner" env:"SPEAKFLOW_MAX_VOICES_PER_OWNER" envDefault:"0"`
	OverflowPolicy      OverflowPolicy      `yaml:"overflow_policy" mapstructure:"overflow_policy" env:"SPEAKFLOW_OVERFLOW_POLICY" envDefault:"queue"`
	OwnerOverflowPolicy OwnerOverflowPolicy `yaml:"owner_overflow_policy" mapstructure:"owner_overflow_policy" env:"SPEAKFLOW_OWNER_OVERFLOW_POLICY" envDefault:"steal-oldest"`
}

// ChunkerConfig tunes text segmentation.
type ChunkerConfig struct {
	Boost        int `yaml:"boost" mapstructure:"boost" env:"SPEAKFLOW_CHUNKER_BOOST" envDefault:"2"`
	MinimumWords int `yaml:"minimum_words" mapstructure:"minimum_words" env:"SPEAKFLOW_CHUNKER_MINIMUM_WORDS" envDefault:"4"`
	MaximumWords int `yaml:"maximum_words" mapstructure:"maximum_words" env:"SPEAKFLOW_CHUNKER_MAXIMUM_WORDS" envDefault:"12"`
}

// PriorityConfig overrides the score of each symbolic level.
type PriorityConfig struct {
	Critical int `yaml:"critical" mapstructure:"critical" env:"SPEAKFLOW_PRIORITY_CRITICAL" envDefault:"300"`
	High     int `yaml:"high" mapstructure:"high" env:"SPEAKFLOW_PRIORITY_HIGH" envDefault:"200"`
	Normal   int `yaml:"normal" mapstructure:"normal" env:"SPEAKFLOW_PRIORITY_NORMAL" envDefault:"100"`
	Low      int `yaml:"low" mapstructure:"low" env:"SPEAKFLOW_PRIORITY_LOW" envDefault:"0"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level" env:"SPEAKFLOW_LOG_LEVEL" envDefault:"info"`
	File  string `yaml:"file" mapstructure:"file" env:"SPEAKFLOW_LOG_FILE"`
}

// SynthConfig selects the synthesizer and its rate limit.
type SynthConfig struct {
	Engine         string        `yaml:"engine" mapstructure:"engine" env:"SPEAKFLOW_SYNTH_ENGINE" envDefault:"mock"`
	RateLimit      float64       `yaml:"rate_limit" mapstructure:"rate_limit" env:"SPEAKFLOW_SYNTH_RATE_LIMIT" envDefault:"0"`
	Burst          int           `yaml:"burst" mapstructure:"burst" env:"SPEAKFLOW_SYNTH_BURST" envDefault:"1"`
	Latency        time.Duration `yaml:"latency" mapstructure:"latency" env:"SPEAKFLOW_SYNTH_LATENCY" envDefault:"50ms"`
	WordsPerMinute int           `yaml:"words_per_minute" mapstructure:"words_per_minute" env:"SPEAKFLOW_SYNTH_WORDS_PER_MINUTE" envDefault:"150"`
	PiperBinary    string        `yaml:"piper_binary" mapstructure:"piper_binary" env:"SPEAKFLOW_SYNTH_PIPER_BINARY"`
	PiperModel     string        `yaml:"piper_model" mapstructure:"piper_model" env:"SPEAKFLOW_SYNTH_PIPER_MODEL"`
	// FallbackAfter is how many consecutive piper failures switch to the mock engine.
	FallbackAfter int `yaml:"fallback_after" mapstructure:"fallback_after" env:"SPEAKFLOW_SYNTH_FALLBACK_AFTER" envDefault:"3"`
}

// PlayerConfig selects and tunes the playback backend.
type PlayerConfig struct {
	Backend    string  `yaml:"backend" mapstructure:"backend" env:"SPEAKFLOW_PLAYER_BACKEND" envDefault:"simulated"`
	SampleRate int     `yaml:"sample_rate" mapstructure:"sample_rate" env:"SPEAKFLOW_PLAYER_SAMPLE_RATE" envDefault:"22050"`
	Channels   int     `yaml:"channels" mapstructure:"channels" env:"SPEAKFLOW_PLAYER_CHANNELS" envDefault:"1"`
	Speed      float64 `yaml:"speed" mapstructure:"speed" env:"SPEAKFLOW_PLAYER_SPEED" envDefault:"1.0"`
}

// CacheConfig sizes the synthesized audio cache. Zero sizes disable a tier.
type CacheConfig struct {
	MemoryBytes      int64  `yaml:"memory_bytes" mapstructure:"memory_bytes" env:"SPEAKFLOW_CACHE_MEMORY_BYTES" envDefault:"33554432"`
	DiskBytes        int64  `yaml:"disk_bytes" mapstructure:"disk_bytes" env:"SPEAKFLOW_CACHE_DISK_BYTES" envDefault:"0"`
	Dir              string `yaml:"dir" mapstructure:"dir" env:"SPEAKFLOW_CACHE_DIR"`
	CompressionLevel int    `yaml:"compression_level" mapstructure:"compression_level" env:"SPEAKFLOW_CACHE_COMPRESSION_LEVEL" envDefault:"3"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Voices: VoicesConfig{
			MaxVoices:           1,
			MaxVoicesPerOwner:   0,
			OverflowPolicy:      OverflowQueue,
			OwnerOverflowPolicy: OwnerOverflowStealOldest,
		},
		Chunker: ChunkerConfig{
			Boost:        2,
			MinimumWords: 4,
			MaximumWords: 12,
		},
		Priorities: PriorityConfig{
			Critical: DefaultPriorityScores[LevelCritical],
			High:     DefaultPriorityScores[LevelHigh],
			Normal:   DefaultPriorityScores[LevelNormal],
			Low:      DefaultPriorityScores[LevelLow],
		},
		Log: LogConfig{
			Level: "info",
		},
		Synth: SynthConfig{
			Engine:         "mock",
			RateLimit:      0,
			Burst:          1,
			Latency:        50 * time.Millisecond,
			WordsPerMinute: 150,
			FallbackAfter:  3,
		},
		Player: PlayerConfig{
			Backend:    "simulated",
			SampleRate: 22050,
			Channels:   1,
			Speed:      1.0,
		},
		Cache: CacheConfig{
			MemoryBytes:      32 << 20,
			CompressionLevel: 3,
		},
	}
}

// LoadConfigFromEnv reads the configuration from SPEAKFLOW_* environment variables.
func LoadConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid and normalises enum casing.
func (c *Config) Validate() error {
	if err := c.Voices.Validate(); err != nil {
		return fmt.Errorf("%w: voices: %w", ErrInvalidConfig, err)
	}
	if err := c.Chunker.Validate(); err != nil {
		return fmt.Errorf("%w: chunker: %w", ErrInvalidConfig, err)
	}
	if err := c.Synth.Validate(); err != nil {
		return fmt.Errorf("%w: synth: %w", ErrInvalidConfig, err)
	}
	if err := c.Player.Validate(); err != nil {
		return fmt.Errorf("%w: player: %w", ErrInvalidConfig, err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("%w: cache: %w", ErrInvalidConfig, err)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	c.Log.Level = strings.ToLower(c.Log.Level)
	levelValid := false
	for _, l := range validLevels {
		if c.Log.Level == l {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("%w: log: invalid level '%s': must be one of %v", ErrInvalidConfig, c.Log.Level, validLevels)
	}
	return nil
}

// Validate checks the voice limits and policies.
func (c *VoicesConfig) Validate() error {
	if c.MaxVoices < 1 {
		return fmt.Errorf("max_voices must be at least 1, got %d", c.MaxVoices)
	}
	if c.MaxVoicesPerOwner < 0 {
		return fmt.Errorf("max_voices_per_owner cannot be negative, got %d", c.MaxVoicesPerOwner)
	}
	c.OverflowPolicy = OverflowPolicy(strings.ToLower(string(c.OverflowPolicy)))
	if c.OverflowPolicy == "" {
		c.OverflowPolicy = OverflowQueue
	}
	if !c.OverflowPolicy.Valid() {
		return fmt.Errorf("invalid overflow_policy '%s'", c.OverflowPolicy)
	}
	c.OwnerOverflowPolicy = OwnerOverflowPolicy(strings.ToLower(string(c.OwnerOverflowPolicy)))
	if c.OwnerOverflowPolicy == "" {
		c.OwnerOverflowPolicy = OwnerOverflowStealOldest
	}
	if !c.OwnerOverflowPolicy.Valid() {
		return fmt.Errorf("invalid owner_overflow_policy '%s'", c.OwnerOverflowPolicy)
	}
	return nil
}

// Validate checks the chunker thresholds.
func (c *ChunkerConfig) Validate() error {
	if c.Boost < 0 {
		return fmt.Errorf("boost cannot be negative, got %d", c.Boost)
	}
	if c.MinimumWords < 0 {
		return fmt.Errorf("minimum_words cannot be negative, got %d", c.MinimumWords)
	}
	if c.MaximumWords < 1 {
		return fmt.Errorf("maximum_words must be at least 1, got %d", c.MaximumWords)
	}
	if c.MinimumWords > c.MaximumWords {
		return fmt.Errorf("minimum_words (%d) cannot exceed maximum_words (%d)", c.MinimumWords, c.MaximumWords)
	}
	return nil
}

// Validate checks the synthesizer settings.
func (c *SynthConfig) Validate() error {
	c.Engine = strings.ToLower(c.Engine)
	switch c.Engine {
	case "", "mock":
		c.Engine = "mock"
	case "piper":
		if c.PiperModel == "" {
			return fmt.Errorf("piper_model is required for the piper engine")
		}
	default:
		return fmt.Errorf("invalid engine '%s': must be one of [mock piper]", c.Engine)
	}
	if c.FallbackAfter < 0 {
		return fmt.Errorf("fallback_after cannot be negative, got %d", c.FallbackAfter)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %f", c.RateLimit)
	}
	if c.RateLimit > 0 && c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 when rate_limit is set, got %d", c.Burst)
	}
	if c.WordsPerMinute < 50 || c.WordsPerMinute > 500 {
		return fmt.Errorf("words_per_minute must be between 50 and 500, got %d", c.WordsPerMinute)
	}
	if c.Latency < 0 {
		return fmt.Errorf("latency cannot be negative, got %v", c.Latency)
	}
	return nil
}

// Validate checks the player settings.
func (c *PlayerConfig) Validate() error {
	validBackends := []string{"simulated", "oto"}
	c.Backend = strings.ToLower(c.Backend)
	backendValid := false
	for _, b := range validBackends {
		if c.Backend == b {
			backendValid = true
			break
		}
	}
	if !backendValid {
		return fmt.Errorf("invalid backend '%s': must be one of %v", c.Backend, validBackends)
	}

	validSampleRates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	sampleRateValid := false
	for _, sr := range validSampleRates {
		if c.SampleRate == sr {
			sampleRateValid = true
			break
		}
	}
	if !sampleRateValid {
		return fmt.Errorf("invalid sample rate %d: must be one of %v", c.SampleRate, validSampleRates)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	if c.Speed <= 0 || c.Speed > 4.0 {
		return fmt.Errorf("speed must be between 0.0 and 4.0, got %f", c.Speed)
	}
	return nil
}

// Validate checks the cache sizes.
func (c *CacheConfig) Validate() error {
	if c.MemoryBytes < 0 || c.DiskBytes < 0 {
		return fmt.Errorf("cache sizes cannot be negative")
	}
	if c.DiskBytes > 0 && (c.CompressionLevel < 1 || c.CompressionLevel > 22) {
		return fmt.Errorf("compression_level must be between 1 and 22, got %d", c.CompressionLevel)
	}
	return nil
}

// Resolver builds a priority resolver from the configured level scores.
func (c *Config) Resolver() PriorityResolver {
	return NewPriorityResolver(map[Level]int{
		LevelCritical: c.Priorities.Critical,
		LevelHigh:     c.Priorities.High,
		LevelNormal:   c.Priorities.Normal,
		LevelLow:      c.Priorities.Low,
	})
}
