package shell

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// TerminalService manages the screen lifecycle and input polling
type TerminalService struct {
	screen tcell.Screen
	sink   func(tcell.Event)

	mu      sync.Mutex
	running bool
	doneCh  chan struct{}
}

// NewTerminalService creates the service; a nil screen opens the real terminal on Init
func NewTerminalService(screen tcell.Screen) *TerminalService {
	return &TerminalService{screen: screen}
}

// Name implements service.Service
func (s *TerminalService) Name() string {
	return "terminal"
}

// Dependencies implements service.Service
func (s *TerminalService) Dependencies() []string {
	return nil
}

// Init implements service.Service
// args[0]: func(tcell.Event) receiving every polled event (optional, may be set later with SetSink)
func (s *TerminalService) Init(args ...any) error {
	if len(args) > 0 {
		if fn, ok := args[0].(func(tcell.Event)); ok {
			s.sink = fn
		}
	}
	if s.screen == nil {
		scr, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal open: %w", err)
		}
		s.screen = scr
	}
	if err := s.screen.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	s.screen.EnableMouse(tcell.MouseMotionEvents)
	s.screen.HideCursor()
	SetCrashScreen(s.screen)
	return nil
}

// SetSink sets the event receiver; must be called before Start
func (s *TerminalService) SetSink(fn func(tcell.Event)) {
	s.sink = fn
}

// Start implements service.Service - launches the input polling goroutine
func (s *TerminalService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.doneCh = make(chan struct{})
	Go(s.pollLoop)
	return nil
}

// pollLoop forwards events until the screen is finalized
func (s *TerminalService) pollLoop() {
	defer close(s.doneCh)
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return
		}
		if s.sink != nil {
			s.sink(ev)
		}
	}
}

// Stop implements service.Service - restores the terminal, which also ends polling
func (s *TerminalService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	SetCrashScreen(nil)
	s.screen.Fini()
	<-s.doneCh
	return nil
}

// Screen returns the managed screen
func (s *TerminalService) Screen() tcell.Screen {
	return s.screen
}
