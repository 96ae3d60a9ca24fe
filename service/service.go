// Package service manages the lifecycle of long-lived infrastructure: the scheduler loop, the
// audio backend and the clock sampler.
package service

// Service defines the lifecycle interface for infrastructure subsystems
//
// Lifecycle:
//  1. Construction
//  2. Init(args...) - configuration from parsed flags/env
//  3. Start() - launch goroutines or devices
//  4. [runtime operation]
//  5. Stop() - halt and release, idempotent
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init and Start before this one
	Dependencies() []string

	// Init configures the service from optional args
	Init(args ...any) error

	// Start begins service operation
	Start() error

	// Stop halts service operation and releases resources
	Stop() error
}

// ResourcePublisher receives resources services expose to the shell
type ResourcePublisher func(resource any)

// ResourceContributor is implemented by services that expose APIs to the shell
// Optional: services not implementing it are skipped during contribution
type ResourceContributor interface {
	Contribute(publish ResourcePublisher)
}

// Funcs adapts plain functions into a Service
// Nil functions are no-ops
type Funcs struct {
	ID       string
	Requires []string
	OnInit   func(args ...any) error
	OnStart  func() error
	OnStop   func() error
}

// Name implements Service
func (f *Funcs) Name() string { return f.ID }

// Dependencies implements Service
func (f *Funcs) Dependencies() []string { return f.Requires }

// Init implements Service
func (f *Funcs) Init(args ...any) error {
	if f.OnInit == nil {
		return nil
	}
	return f.OnInit(args...)
}

// Start implements Service
func (f *Funcs) Start() error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart()
}

// Stop implements Service
func (f *Funcs) Stop() error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop()
}
