package screensaver

import (
	"context"

	"go.uber.org/zap"
)

// QuerySink receives the result of a status query from the waiter goroutine.
type QuerySink interface {
	QueryDone(running bool)
}

// Query runs "<control> -version" to find out whether the daemon is running.
// At most one query is in flight; Refresh while busy is a no-op and the caller
// gets the result of the running query instead.
//
// Not safe for concurrent use; the owner calls Complete when QueryDone arrives.
type Query struct {
	exec    Executor
	control string
	sink    QuerySink
	logger  *zap.Logger

	inFlight bool
}

// NewQuery creates a status query for the given control binary.
func NewQuery(exec Executor, control string, sink QuerySink, logger *zap.Logger) *Query {
	return &Query{
		exec:    exec,
		control: control,
		sink:    sink,
		logger:  logger.Named("query"),
	}
}

// Refresh starts a query unless one is in flight.
// It reports whether a new process was spawned.
func (q *Query) Refresh() (bool, error) {
	if q.inFlight {
		q.logger.Debug("query already in flight")
		return false, nil
	}

	proc, err := q.exec.Start(versionCommand(q.control))
	if err != nil {
		return false, err
	}
	q.inFlight = true

	go func() {
		err := proc.Wait()
		if err != nil {
			q.logger.Debug("query exited non-zero", zap.Error(err))
		}
		q.sink.QueryDone(err == nil)
	}()
	return true, nil
}

// Complete clears the in-flight marker.
func (q *Query) Complete() {
	q.inFlight = false
}

// InFlight reports whether a query is running.
func (q *Query) InFlight() bool {
	return q.inFlight
}

// QueryOnce runs a single blocking status query, for use outside the event loop.
func QueryOnce(ctx context.Context, exec Executor, control string) (bool, error) {
	proc, err := exec.Start(versionCommand(control))
	if err != nil {
		return false, err
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	select {
	case err := <-done:
		return err == nil, nil
	case <-ctx.Done():
		_ = proc.Terminate()
		return false, ctx.Err()
	}
}

func versionCommand(control string) Command {
	return Command{Name: control, Args: []string{"-version"}}
}
