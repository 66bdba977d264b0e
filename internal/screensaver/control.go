package screensaver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotRunning is returned by StopDaemon when the control binary reports that
// there is no daemon to stop.
var ErrNotRunning = errors.New("screensaver daemon is not running")

// exitCoder is implemented by *exec.ExitError.
type exitCoder interface {
	ExitCode() int
}

// Control starts and stops the screensaver daemon.
type Control struct {
	exec    Executor
	control string
	daemon  string
	logger  *zap.Logger
}

// NewControl creates a Control for the given control and daemon binaries.
func NewControl(exec Executor, control, daemon string, logger *zap.Logger) *Control {
	return &Control{
		exec:    exec,
		control: control,
		daemon:  daemon,
		logger:  logger.Named("control"),
	}
}

// StartDaemon launches "<daemon> -nosplash" in its own session and returns
// without waiting. The process is reaped in the background.
func (c *Control) StartDaemon() error {
	proc, err := c.exec.Start(Command{
		Name:   c.daemon,
		Args:   []string{"-nosplash"},
		Detach: true,
	})
	if err != nil {
		return err
	}

	c.logger.Info("screensaver daemon started", zap.Int("pid", proc.Pid()))
	go func() {
		err := proc.Wait()
		c.logger.Debug("screensaver daemon exited", zap.Error(err))
	}()
	return nil
}

// StopDaemon runs "<control> -exit" and waits for it to finish.
// A non-zero exit status is reported as ErrNotRunning.
func (c *Control) StopDaemon(ctx context.Context) error {
	proc, err := c.exec.Start(Command{
		Name: c.control,
		Args: []string{"-exit"},
	})
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	select {
	case err := <-done:
		if err == nil {
			c.logger.Info("screensaver daemon asked to exit")
			return nil
		}
		var ec exitCoder
		if errors.As(err, &ec) && ec.ExitCode() > 0 {
			return fmt.Errorf("%w: %v", ErrNotRunning, err)
		}
		return fmt.Errorf("failed to stop screensaver: %w", err)
	case <-ctx.Done():
		_ = proc.Terminate()
		return ctx.Err()
	}
}
