// Package screensaver drives an xscreensaver-style daemon through its control binary:
// watching state changes, querying whether the daemon runs, and starting or stopping it.
package screensaver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Command describes a child process to start.
type Command struct {
	Name   string
	Args   []string
	Stdout bool // pipe stdout to the caller; otherwise output is discarded
	Detach bool // run in its own session so it outlives terminal signals
}

// String returns the command line for logging.
func (c Command) String() string {
	s := c.Name
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}

// Process is a started child process.
type Process interface {
	// Stdout returns the output stream, or nil when Command.Stdout was false.
	Stdout() io.Reader

	// Wait blocks until the process exits. A nil error means exit status 0.
	Wait() error

	// Terminate sends SIGTERM. A process that already exited is not an error.
	Terminate() error

	// Pid returns the OS process id.
	Pid() int
}

// Executor starts child processes.
type Executor interface {
	Start(cmd Command) (Process, error)
}

// OSExecutor starts real processes with os/exec.
type OSExecutor struct{}

// NewOSExecutor creates an executor backed by os/exec.
func NewOSExecutor() *OSExecutor {
	return &OSExecutor{}
}

// Start launches cmd. Stdin is always /dev/null.
func (e *OSExecutor) Start(c Command) (Process, error) {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Stdin = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = sysProcAttr(c.Detach)

	p := &osProcess{cmd: cmd}
	if c.Stdout {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("failed to open stdout of %s: %w", c, err)
		}
		p.stdout = stdout
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", c, err)
	}
	return p, nil
}

type osProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (p *osProcess) Stdout() io.Reader {
	if p.stdout == nil {
		return nil
	}
	return p.stdout
}

func (p *osProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *osProcess) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Signal(syscall.SIGTERM)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (p *osProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Ensure OSExecutor implements Executor.
var _ Executor = (*OSExecutor)(nil)
