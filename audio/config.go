package audio

// DefaultSampleRate matches common output devices
const DefaultSampleRate = 48000

// Config holds audio output settings
type Config struct {
	Enabled        bool
	MasterVolume   float64 // 0..1
	SampleRate     int
	RequireGesture bool
	StartMuted     bool
}

// DefaultConfig returns the default settings
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MasterVolume:   0.8,
		SampleRate:     DefaultSampleRate,
		RequireGesture: true,
	}
}
