package shell

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/unveil/audio"
	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/service"
)

// bootTimeout bounds how long Run waits for work posted onto the loop
const bootTimeout = 5 * time.Second

// ErrLoopTimeout is returned when the loop does not run a posted callback in time
var ErrLoopTimeout = errors.New("scheduler loop did not respond")

// Run opens the terminal and audio device, boots the app and blocks until it quits
func Run(opts Options, cfg *audio.Config) error {
	return RunOn(nil, opts, cfg)
}

// RunOn is Run against a given screen; nil opens the real terminal
func RunOn(screen tcell.Screen, opts Options, cfg *audio.Config) error {
	loop := sched.NewLoop(sched.WithLauncher(Go))
	app, err := NewApp(loop, opts)
	if err != nil {
		return err
	}

	audioSvc := audio.NewService()
	term := NewTerminalService(screen)
	term.SetSink(func(ev tcell.Event) {
		loop.Post(func() { app.Handle(ev) })
	})

	hub := service.NewHub()
	services := []service.Service{
		&service.Funcs{
			ID: "loop",
			OnStart: func() error {
				loop.Start()
				return nil
			},
			OnStop: func() error {
				loop.Stop()
				return nil
			},
		},
		audioSvc,
		term,
		&service.Funcs{
			ID:       "clock",
			Requires: []string{"loop"},
			OnStart: func() error {
				return postWait(loop, app.Sampler().Start)
			},
			OnStop: func() error {
				return postWait(loop, app.Sampler().Stop)
			},
		},
		&service.Funcs{
			ID:       "app",
			Requires: []string{"loop", "audio", "terminal", "clock"},
			OnStart: func() error {
				return postWait(loop, func() { app.Boot(term.Screen(), audioSvc.Backend()) })
			},
			OnStop: func() error {
				return postWait(loop, app.Shutdown)
			},
		},
	}
	for _, svc := range services {
		if err := hub.Register(svc); err != nil {
			return err
		}
	}

	if err := hub.InitAll(map[string][]any{"audio": {cfg}}); err != nil {
		return err
	}
	if err := hub.StartAll(); err != nil {
		return err
	}
	log.Printf("[shell] started: %v", hub.Order())
	hub.Contribute(func(r any) {
		if b, ok := r.(audio.Backend); ok {
			log.Printf("[shell] audio backend %T, silent=%v", b, b.Silent())
		}
	})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	Go(func() {
		select {
		case sig := <-sigs:
			log.Printf("[shell] signal %v", sig)
			app.Quit()
		case <-app.Done():
		}
	})

	<-app.Done()
	hub.StopAll()
	log.Printf("[shell] stopped")
	return nil
}

// postWait runs fn on the loop and waits for it; never call from a loop callback
func postWait(loop *sched.Loop, fn func()) error {
	if !loop.Running() {
		return nil
	}
	done := make(chan struct{})
	loop.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-time.After(bootTimeout):
		return fmt.Errorf("%w after %v", ErrLoopTimeout, bootTimeout)
	}
}
