// Package screensavertest provides an in-memory Executor for tests.
package screensavertest

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ssicon/screensaver-icon/internal/screensaver"
)

// ErrTerminated is the Wait error of a process stopped with Terminate.
var ErrTerminated = errors.New("signal: terminated")

// ExitError is a non-zero exit status, matching the ExitCode method of *exec.ExitError.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }
func (e *ExitError) ExitCode() int { return e.Code }

// ExitStatus returns the Wait error for the given exit code, nil for 0.
func ExitStatus(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}

// Process is a fake child process. Its stdout is a pipe fed by Emit.
type Process struct {
	Cmd screensaver.Command

	pid    int
	stdout *io.PipeReader
	writer *io.PipeWriter
	done   chan struct{}

	mu         sync.Mutex
	err        error
	exited     bool
	terminated bool
}

func newProcess(cmd screensaver.Command, pid int) *Process {
	r, w := io.Pipe()
	return &Process{
		Cmd:    cmd,
		pid:    pid,
		stdout: r,
		writer: w,
		done:   make(chan struct{}),
	}
}

// Emit writes a line to stdout. It blocks until the line is read.
func (p *Process) Emit(line string) {
	_, _ = p.writer.Write([]byte(line + "\n"))
}

// Exit closes stdout and makes Wait return err. Only the first call counts.
func (p *Process) Exit(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return
	}
	p.exited = true
	p.err = err
	_ = p.writer.Close()
	close(p.done)
}

// Exited reports whether the process has exited.
func (p *Process) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

// Terminated reports whether Terminate was called.
func (p *Process) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

func (p *Process) Stdout() io.Reader {
	if !p.Cmd.Stdout {
		return nil
	}
	return p.stdout
}

func (p *Process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Process) Terminate() error {
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()
	p.Exit(ErrTerminated)
	return nil
}

func (p *Process) Pid() int { return p.pid }

// Executor records every Start call and returns fake processes.
// Commands are keyed by their first argument ("-watch", "-version", ...).
type Executor struct {
	mu      sync.Mutex
	nextPid int
	fail    map[string]error
	exits   map[string]error
	procs   map[string][]*Process
}

// NewExecutor creates an empty fake executor.
func NewExecutor() *Executor {
	return &Executor{
		nextPid: 1000,
		fail:    make(map[string]error),
		exits:   make(map[string]error),
		procs:   make(map[string][]*Process),
	}
}

// Fail makes Start return err for commands keyed by arg. A nil err clears it.
func (e *Executor) Fail(arg string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.fail, arg)
		return
	}
	e.fail[arg] = err
}

// AutoExit makes processes keyed by arg exit with err as soon as they start.
func (e *Executor) AutoExit(arg string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exits[arg] = err
}

// Start implements screensaver.Executor.
func (e *Executor) Start(cmd screensaver.Command) (screensaver.Process, error) {
	key := keyOf(cmd)

	e.mu.Lock()
	if err, ok := e.fail[key]; ok {
		e.mu.Unlock()
		return nil, err
	}
	e.nextPid++
	p := newProcess(cmd, e.nextPid)
	e.procs[key] = append(e.procs[key], p)
	exitErr, autoExit := e.exits[key]
	e.mu.Unlock()

	if autoExit {
		p.Exit(exitErr)
	}
	return p, nil
}

// Count returns how many processes keyed by arg were started.
func (e *Executor) Count(arg string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.procs[arg])
}

// Last returns the most recent process keyed by arg, or nil.
func (e *Executor) Last(arg string) *Process {
	e.mu.Lock()
	defer e.mu.Unlock()
	ps := e.procs[arg]
	if len(ps) == 0 {
		return nil
	}
	return ps[len(ps)-1]
}

// Processes returns all processes keyed by arg in start order.
func (e *Executor) Processes(arg string) []*Process {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Process(nil), e.procs[arg]...)
}

func keyOf(cmd screensaver.Command) string {
	if len(cmd.Args) == 0 {
		return cmd.Name
	}
	return cmd.Args[0]
}

var _ screensaver.Executor = (*Executor)(nil)
