package audio

import (
	"errors"
	"log"
	"sync/atomic"

	"github.com/lixenwraith/unveil/service"
)

// Service wraps backend selection as a service.Service
// Falls back to the silent backend when the device is unavailable or audio is disabled
type Service struct {
	config  *Config
	backend Backend
	silent  atomic.Bool
	open    func(Config) (Backend, error)
}

// NewService creates the audio service
func NewService() *Service {
	return &Service{open: openBeep}
}

func openBeep(cfg Config) (Backend, error) {
	return NewBeepBackend(cfg)
}

// Name implements service.Service
func (s *Service) Name() string {
	return "audio"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return nil
}

// Init implements service.Service
// args[0]: *Config; defaults apply when absent
func (s *Service) Init(args ...any) error {
	s.config = DefaultConfig()
	if len(args) > 0 {
		if cfg, ok := args[0].(*Config); ok && cfg != nil {
			s.config = cfg
		}
	}
	return nil
}

// Start implements service.Service
// Device failure is not an error: the service degrades to the silent backend
func (s *Service) Start() error {
	if s.backend != nil {
		return nil
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}

	if s.config.Enabled {
		b, err := s.open(*s.config)
		if err == nil {
			s.backend = b
			return nil
		}
		if !errors.Is(err, ErrNoBackend) {
			log.Printf("[audio] backend: %v", err)
		}
		log.Printf("[audio] no output device, running silent")
	}
	s.backend = NewSilentBackend(s.config.RequireGesture)
	s.silent.Store(true)
	return nil
}

// Stop implements service.Service
func (s *Service) Stop() error {
	if s.backend != nil {
		s.backend.Close()
	}
	return nil
}

// Backend returns the selected backend, nil before Start
func (s *Service) Backend() Backend {
	return s.backend
}

// Config returns the active configuration
func (s *Service) Config() *Config {
	return s.config
}

// IsSilent reports whether the silent backend was selected
func (s *Service) IsSilent() bool {
	return s.silent.Load()
}

// Contribute implements service.ResourceContributor by publishing the backend
func (s *Service) Contribute(publish service.ResourcePublisher) {
	if s.backend != nil {
		publish(s.backend)
	}
}
