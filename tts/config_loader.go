package tts

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads the configuration from v, falling back to defaults
// for anything unset.
func LoadConfigFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	// Voices
	if v.IsSet("voices.max_voices") {
		cfg.Voices.MaxVoices = v.GetInt("voices.max_voices")
	}
	if v.IsSet("voices.max_voices_per_owner") {
		cfg.Voices.MaxVoicesPerOwner = v.GetInt("voices.max_voices_per_owner")
	}
	if v.IsSet("voices.overflow_policy") {
		cfg.Voices.OverflowPolicy = OverflowPolicy(v.GetString("voices.overflow_policy"))
	}
	if v.IsSet("voices.owner_overflow_policy") {
		cfg.Voices.OwnerOverflowPolicy = OwnerOverflowPolicy(v.GetString("voices.owner_overflow_policy"))
	}

	// Chunker
	if v.IsSet("chunker.boost") {
		cfg.Chunker.Boost = v.GetInt("chunker.boost")
	}
	if v.IsSet("chunker.minimum_words") {
		cfg.Chunker.MinimumWords = v.GetInt("chunker.minimum_words")
	}
	if v.IsSet("chunker.maximum_words") {
		cfg.Chunker.MaximumWords = v.GetInt("chunker.maximum_words")
	}

	// Priorities
	if v.IsSet("priorities.critical") {
		cfg.Priorities.Critical = v.GetInt("priorities.critical")
	}
	if v.IsSet("priorities.high") {
		cfg.Priorities.High = v.GetInt("priorities.high")
	}
	if v.IsSet("priorities.normal") {
		cfg.Priorities.Normal = v.GetInt("priorities.normal")
	}
	if v.IsSet("priorities.low") {
		cfg.Priorities.Low = v.GetInt("priorities.low")
	}

	// Logging
	if v.IsSet("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("log.file") {
		cfg.Log.File = v.GetString("log.file")
	}

	cfg.Synth = loadSynthConfig(v)
	cfg.Player = loadPlayerConfig(v)
	cfg.Cache = loadCacheConfig(v)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid speakflow configuration: %w", err)
	}
	return cfg, nil
}

// loadSynthConfig loads synthesizer configuration from Viper.
func loadSynthConfig(v *viper.Viper) SynthConfig {
	cfg := DefaultConfig().Synth

	if v.IsSet("synth.engine") {
		cfg.Engine = v.GetString("synth.engine")
	}
	if v.IsSet("synth.piper_binary") {
		cfg.PiperBinary = v.GetString("synth.piper_binary")
	}
	if v.IsSet("synth.piper_model") {
		cfg.PiperModel = v.GetString("synth.piper_model")
	}
	if v.IsSet("synth.fallback_after") {
		cfg.FallbackAfter = v.GetInt("synth.fallback_after")
	}
	if v.IsSet("synth.rate_limit") {
		cfg.RateLimit = v.GetFloat64("synth.rate_limit")
	}
	if v.IsSet("synth.burst") {
		cfg.Burst = v.GetInt("synth.burst")
	}
	if v.IsSet("synth.latency") {
		cfg.Latency = v.GetDuration("synth.latency")
	}
	if v.IsSet("synth.words_per_minute") {
		cfg.WordsPerMinute = v.GetInt("synth.words_per_minute")
	}
	return cfg
}

// loadPlayerConfig loads playback configuration from Viper.
func loadPlayerConfig(v *viper.Viper) PlayerConfig {
	cfg := DefaultConfig().Player

	if v.IsSet("player.backend") {
		cfg.Backend = v.GetString("player.backend")
	}
	if v.IsSet("player.sample_rate") {
		cfg.SampleRate = v.GetInt("player.sample_rate")
	}
	if v.IsSet("player.channels") {
		cfg.Channels = v.GetInt("player.channels")
	}
	if v.IsSet("player.speed") {
		cfg.Speed = v.GetFloat64("player.speed")
	}
	return cfg
}

// loadCacheConfig loads audio cache configuration from Viper.
func loadCacheConfig(v *viper.Viper) CacheConfig {
	cfg := DefaultConfig().Cache

	if v.IsSet("cache.memory_bytes") {
		cfg.MemoryBytes = v.GetInt64("cache.memory_bytes")
	}
	if v.IsSet("cache.disk_bytes") {
		cfg.DiskBytes = v.GetInt64("cache.disk_bytes")
	}
	if v.IsSet("cache.dir") {
		cfg.Dir = v.GetString("cache.dir")
	}
	if v.IsSet("cache.compression_level") {
		cfg.CompressionLevel = v.GetInt("cache.compression_level")
	}
	return cfg
}

// SetDefaults registers default values in v.
func SetDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("voices.max_voices", defaults.Voices.MaxVoices)
	v.SetDefault("voices.max_voices_per_owner", defaults.Voices.MaxVoicesPerOwner)
	v.SetDefault("voices.overflow_policy", string(defaults.Voices.OverflowPolicy))
	v.SetDefault("voices.owner_overflow_policy", string(defaults.Voices.OwnerOverflowPolicy))

	v.SetDefault("chunker.boost", defaults.Chunker.Boost)
	v.SetDefault("chunker.minimum_words", defaults.Chunker.MinimumWords)
	v.SetDefault("chunker.maximum_words", defaults.Chunker.MaximumWords)

	v.SetDefault("priorities.critical", defaults.Priorities.Critical)
	v.SetDefault("priorities.high", defaults.Priorities.High)
	v.SetDefault("priorities.normal", defaults.Priorities.Normal)
	v.SetDefault("priorities.low", defaults.Priorities.Low)

	v.SetDefault("log.level", defaults.Log.Level)

	v.SetDefault("synth.engine", defaults.Synth.Engine)
	v.SetDefault("synth.fallback_after", defaults.Synth.FallbackAfter)
	v.SetDefault("synth.rate_limit", defaults.Synth.RateLimit)
	v.SetDefault("synth.burst", defaults.Synth.Burst)
	v.SetDefault("synth.latency", defaults.Synth.Latency.String())
	v.SetDefault("synth.words_per_minute", defaults.Synth.WordsPerMinute)

	v.SetDefault("player.backend", defaults.Player.Backend)
	v.SetDefault("player.sample_rate", defaults.Player.SampleRate)
	v.SetDefault("player.channels", defaults.Player.Channels)
	v.SetDefault("player.speed", defaults.Player.Speed)

	v.SetDefault("cache.memory_bytes", defaults.Cache.MemoryBytes)
	v.SetDefault("cache.disk_bytes", defaults.Cache.DiskBytes)
	v.SetDefault("cache.compression_level", defaults.Cache.CompressionLevel)
}
