package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// Process is a started child process. Callers must drain Stdout and Stderr
// before calling Wait.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until exit. A non-zero exit is reported as *ExitError.
	Wait() error
	Kill() error
}

// Spawner starts processes. The process is killed when ctx is done.
type Spawner interface {
	Start(ctx context.Context, name string, args []string) (Process, error)
}

// ExitError reports a process that ran but did not exit cleanly.
type ExitError struct {
	Code   int // -1 when killed by a signal
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Code < 0 {
		return "terminated by signal"
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// StartError reports a process that could not be launched at all.
type StartError struct {
	Name string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Name, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// killGrace bounds how long Wait blocks on inherited pipes after a kill.
const killGrace = 5 * time.Second

// Exec spawns real processes through os/exec.
type Exec struct{}

// Start implements Spawner.
func (Exec) Start(ctx context.Context, name string, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = killGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &StartError{Name: name, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &StartError{Name: name, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &StartError{Name: name, Err: err}
	}

	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() error {
	err := p.cmd.Wait()
	if err == nil {
		return nil
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExitError{Code: ee.ExitCode()}
	}
	return err
}

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// maxCapturedStderr caps how much stderr Output keeps for error reports.
const maxCapturedStderr = 64 * 1024

// Output runs name to completion and returns its stdout. On a non-zero exit
// the returned *ExitError carries the captured stderr.
func Output(ctx context.Context, sp Spawner, name string, args ...string) ([]byte, error) {
	proc, err := sp.Start(ctx, name, args)
	if err != nil {
		return nil, err
	}

	var (
		stdout bytes.Buffer
		stderr bytes.Buffer
		wg     sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&stderr, io.LimitReader(proc.Stderr(), maxCapturedStderr))
		_, _ = io.Copy(io.Discard, proc.Stderr())
	}()

	_, readErr := io.Copy(&stdout, proc.Stdout())
	wg.Wait()

	if err := proc.Wait(); err != nil {
		var ee *ExitError
		if errors.As(err, &ee) {
			ee.Stderr = stderr.String()
			return stdout.Bytes(), ee
		}
		return stdout.Bytes(), err
	}
	if readErr != nil {
		return stdout.Bytes(), fmt.Errorf("failed to read output of %s: %w", name, readErr)
	}
	return stdout.Bytes(), nil
}
