package coordinator_test

import (
	"sync"

	"github.com/ssicon/screensaver-icon/internal/presence"
	"github.com/ssicon/screensaver-icon/internal/screensaver"
)

// fakePresence is both the Locator and the Client of a fake chat client.
type fakePresence struct {
	mu        sync.Mutex
	current   int32
	idleAway  int32
	activated []int32
	err       error

	gate     chan struct{} // when set, ActivateStatus waits for it to close
	gateOnce sync.Once
}

func (f *fakePresence) Lookup() (presence.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f, nil
}

func (f *fakePresence) CurrentStatus() (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakePresence) IdleAwayStatus() (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idleAway, nil
}

func (f *fakePresence) ActivateStatus(id int32) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.activated = append(f.activated, id)
	f.current = id
	return nil
}

func (f *fakePresence) Activated() []int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int32(nil), f.activated...)
}

// Block makes ActivateStatus hang until Release.
func (f *fakePresence) Block() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
}

func (f *fakePresence) Release() {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		f.gateOnce.Do(func() { close(gate) })
	}
}

func (f *fakePresence) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type recordingIcon struct {
	mu         sync.Mutex
	states     []screensaver.State
	lastErr    error
	awayOnLock bool
}

func (i *recordingIcon) SetState(state screensaver.State, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.states = append(i.states, state)
	i.lastErr = err
}

func (i *recordingIcon) SetAwayOnLock(enabled bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.awayOnLock = enabled
}

func (i *recordingIcon) State() screensaver.State {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.states) == 0 {
		return screensaver.StateUnknown
	}
	return i.states[len(i.states)-1]
}

func (i *recordingIcon) LastErr() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastErr
}

func (i *recordingIcon) AwayOnLock() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.awayOnLock
}
