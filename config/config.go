// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/lixenwraith/unveil/audio"
	"github.com/lixenwraith/unveil/navigation"
)

// Config holds every environment-driven setting
type Config struct {
	Debug          bool   `env:"UNVEIL_DEBUG"           envDefault:"false"`
	AudioEnabled   bool   `env:"UNVEIL_AUDIO_ENABLED"   envDefault:"true"`
	MasterVolume   int    `env:"UNVEIL_MASTER_VOLUME"   envDefault:"80"`
	SampleRate     int    `env:"UNVEIL_SAMPLE_RATE"     envDefault:"48000"`
	ScheduleFile   string `env:"UNVEIL_SCHEDULE_FILE"`
	Timezone       string `env:"UNVEIL_TIMEZONE"        envDefault:"Local"`
	FrameRate      int    `env:"UNVEIL_FRAME_RATE"      envDefault:"60"`
	HistoryMode    string `env:"UNVEIL_HISTORY_MODE"    envDefault:"push"`
	RequireGesture bool   `env:"UNVEIL_REQUIRE_GESTURE" envDefault:"true"`
}

// Default returns the settings used when the environment is empty or unparsable
func Default() Config {
	return Config{
		AudioEnabled:   true,
		MasterVolume:   80,
		SampleRate:     audio.DefaultSampleRate,
		Timezone:       "Local",
		FrameRate:      60,
		HistoryMode:    "push",
		RequireGesture: true,
	}
}

// LoadConfigFromEnv returns configuration from the process environment with defaults
func LoadConfigFromEnv() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Printf("[config] parse env: %v, using defaults", err)
		return Default()
	}
	return cfg.normalize()
}

// LoadConfig parses configuration from an explicit environment map
func LoadConfig(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Default(), fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize(), nil
}

// normalize clamps out-of-range values back into their domain
func (c Config) normalize() Config {
	switch {
	case c.MasterVolume < 0:
		c.MasterVolume = 0
	case c.MasterVolume > 100:
		c.MasterVolume = 100
	}
	if c.SampleRate <= 0 {
		c.SampleRate = audio.DefaultSampleRate
	}
	if c.FrameRate <= 0 || c.FrameRate > 240 {
		c.FrameRate = 60
	}
	if _, err := navigation.ParseHistoryMode(c.HistoryMode); err != nil {
		log.Printf("[config] %v, using push", err)
		c.HistoryMode = "push"
	}
	return c
}

// Location resolves the timezone naive dates are read in
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// FrameInterval returns the animation frame period
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// History returns the address history mode
func (c Config) History() navigation.HistoryMode {
	m, _ := navigation.ParseHistoryMode(c.HistoryMode)
	return m
}

// Audio returns the audio service configuration
func (c Config) Audio(muted bool) *audio.Config {
	return &audio.Config{
		Enabled:        c.AudioEnabled,
		MasterVolume:   float64(c.MasterVolume) / 100,
		SampleRate:     c.SampleRate,
		RequireGesture: c.RequireGesture,
		StartMuted:     muted,
	}
}
