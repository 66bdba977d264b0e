package screensaver

import (
	"bufio"
	"errors"
	"io"

	"go.uber.org/zap"
)

// maxLineSize bounds a single line of watch output.
const maxLineSize = 64 * 1024

// WatchSink receives events from the watch process. Both methods are called
// from the reader goroutine and must hand the event off to the owner's loop.
type WatchSink interface {
	WatchLine(gen int, t Trigger)
	WatchExited(gen int, err error)
}

// Watcher keeps a "<control> -watch" process running.
//
// Every spawn gets a generation number. Events carry it so the owner can drop
// events from a process that has since been replaced or stopped.
// Apart from the reader goroutine, a Watcher is owned by a single goroutine and is
// not safe for concurrent use.
type Watcher struct {
	exec    Executor
	control string
	sink    WatchSink
	logger  *zap.Logger

	gen     int
	proc    Process
	started bool
}

// NewWatcher creates a watcher for the given control binary.
func NewWatcher(exec Executor, control string, sink WatchSink, logger *zap.Logger) *Watcher {
	return &Watcher{
		exec:    exec,
		control: control,
		sink:    sink,
		logger:  logger.Named("watcher"),
	}
}

// Start spawns the watch process. On error the watcher stays started and
// Retry can be used to try again.
func (w *Watcher) Start() error {
	w.started = true
	return w.spawn()
}

// HandleExit reacts to WatchExited for gen by respawning immediately.
// It reports whether a new process was spawned. Stale generations and a
// stopped watcher are ignored.
func (w *Watcher) HandleExit(gen int) (bool, error) {
	if !w.Current(gen) {
		return false, nil
	}
	w.proc = nil
	if err := w.spawn(); err != nil {
		return false, err
	}
	return true, nil
}

// Retry spawns the watch process if the watcher is started but has none.
func (w *Watcher) Retry() error {
	if !w.started || w.proc != nil {
		return nil
	}
	return w.spawn()
}

// Current reports whether gen belongs to the live watch process.
func (w *Watcher) Current(gen int) bool {
	return w.started && gen == w.gen
}

// Listening reports whether a watch process is running.
func (w *Watcher) Listening() bool {
	return w.started && w.proc != nil
}

// Stop terminates the watch process. Stopping an already exited process
// (or a stopped watcher) succeeds.
func (w *Watcher) Stop() error {
	w.started = false
	w.gen++

	proc := w.proc
	w.proc = nil
	if proc == nil {
		return nil
	}
	return proc.Terminate()
}

func (w *Watcher) spawn() error {
	w.gen++
	gen := w.gen

	proc, err := w.exec.Start(Command{
		Name:   w.control,
		Args:   []string{"-watch"},
		Stdout: true,
	})
	if err != nil {
		w.proc = nil
		return err
	}
	w.proc = proc

	w.logger.Debug("watch process started", zap.Int("gen", gen), zap.Int("pid", proc.Pid()))
	go w.readLoop(gen, proc)
	return nil
}

func (w *Watcher) readLoop(gen int, proc Process) {
	if stdout := proc.Stdout(); stdout != nil {
		w.readLines(gen, stdout)
	}

	err := proc.Wait()
	w.sink.WatchExited(gen, err)
}

// readLines forwards triggers until stdout ends. A line longer than
// maxLineSize is skipped and reading continues with the next one.
func (w *Watcher) readLines(gen int, stdout io.Reader) {
	reader := bufio.NewReaderSize(stdout, 4096)
	line := make([]byte, 0, 256)
	overlong := false

	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				w.logger.Warn("watch output unreadable", zap.Int("gen", gen), zap.Error(err))
			}
			return
		}

		if !overlong && len(line)+len(chunk) > maxLineSize {
			overlong = true
		}
		if !overlong {
			line = append(line, chunk...)
		}
		if isPrefix {
			continue
		}

		if overlong {
			w.logger.Warn("skipping overlong watch line", zap.Int("gen", gen), zap.Int("max", maxLineSize))
		} else {
			w.handleLine(gen, string(line))
		}
		line = line[:0]
		overlong = false
	}
}

func (w *Watcher) handleLine(gen int, line string) {
	t, ok := ParseTrigger(line)
	if !ok {
		w.logger.Debug("ignoring watch line", zap.String("line", line))
		return
	}
	w.sink.WatchLine(gen, t)
}
