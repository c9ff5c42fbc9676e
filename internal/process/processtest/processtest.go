// Package processtest provides a scripted process.Spawner for tests.
package processtest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"media-transcoder/internal/process"
)

// Script describes how a fake process behaves.
type Script struct {
	// Run executes before any output is written, e.g. to create files.
	Run      func()
	Stdout   string
	Stderr   []string // written in order, one chunk at a time
	ExitCode int
	// Block keeps the process alive after its output until it is killed or
	// its context is done.
	Block bool
}

// Handler decides the script for a given invocation. A non-nil error is
// returned from Start as a launch failure.
type Handler func(name string, args []string) (Script, error)

// Call records one invocation.
type Call struct {
	Name string
	Args []string
}

// Spawner is a process.Spawner that replays scripts.
type Spawner struct {
	Handler Handler

	mu    sync.Mutex
	calls []Call
}

// New returns a Spawner that answers every call with handler.
func New(handler Handler) *Spawner {
	return &Spawner{Handler: handler}
}

// Calls returns a copy of the recorded invocations.
func (s *Spawner) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Start implements process.Spawner.
func (s *Spawner) Start(ctx context.Context, name string, args []string) (process.Process, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Name: name, Args: append([]string(nil), args...)})
	s.mu.Unlock()

	script, err := s.Handler(name, args)
	if err != nil {
		return nil, &process.StartError{Name: name, Err: err}
	}

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	p := &fakeProcess{
		stdout: outR,
		stderr: errR,
		done:   make(chan struct{}),
		killed: make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		if script.Run != nil {
			script.Run()
		}

		go func() {
			_, _ = io.Copy(outW, strings.NewReader(script.Stdout))
			_ = outW.Close()
		}()

		for _, chunk := range script.Stderr {
			if _, err := errW.Write([]byte(chunk)); err != nil {
				break
			}
		}

		if script.Block {
			select {
			case <-ctx.Done():
				p.markKilled()
			case <-p.killed:
			}
		} else if ctx.Err() != nil {
			p.markKilled()
		}

		_ = errW.Close()

		p.mu.Lock()
		p.code = script.ExitCode
		p.mu.Unlock()
	}()

	return p, nil
}

type fakeProcess struct {
	stdout io.Reader
	stderr io.Reader
	done   chan struct{}
	killed chan struct{}

	killOnce sync.Once
	mu       sync.Mutex
	code     int
	wasKill  bool
}

func (p *fakeProcess) Stdout() io.Reader { return p.stdout }
func (p *fakeProcess) Stderr() io.Reader { return p.stderr }

func (p *fakeProcess) markKilled() {
	p.mu.Lock()
	p.wasKill = true
	p.mu.Unlock()
}

func (p *fakeProcess) Kill() error {
	p.markKilled()
	p.killOnce.Do(func() { close(p.killed) })
	return nil
}

func (p *fakeProcess) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wasKill {
		return &process.ExitError{Code: -1}
	}
	if p.code != 0 {
		return &process.ExitError{Code: p.code}
	}
	return nil
}

// ErrNotInstalled mimics a missing binary.
var ErrNotInstalled = errors.New("executable file not found in $PATH")
