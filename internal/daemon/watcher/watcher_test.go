package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ssicon/screensaver-icon/internal/config"
	"github.com/ssicon/screensaver-icon/internal/models"
)

func startWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.SettingsFileName)

	w, err := New(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)
	return w, path
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for settings event")
		return Event{}
	}
}

func TestReloadsOnAtomicSave(t *testing.T) {
	w, path := startWatcher(t)

	s := models.NewSettings()
	s.AwayOnLock = false
	s.AwayTrigger = models.AwayTriggerLock
	require.NoError(t, config.SaveYAML(path, s))

	ev := nextEvent(t, w)
	require.Equal(t, EventSettingsChanged, ev.Type)
	require.NotNil(t, ev.Settings)
	assert.False(t, ev.Settings.AwayOnLock)
	assert.Equal(t, models.AwayTriggerLock, ev.Settings.AwayTrigger)
	assert.Equal(t, path, ev.Path)
}

func TestDebouncesBurstOfWrites(t *testing.T) {
	w, path := startWatcher(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("away_on_lock: false\n"), 0644))
	}

	ev := nextEvent(t, w)
	assert.Equal(t, EventSettingsChanged, ev.Type)

	select {
	case extra := <-w.Events():
		t.Fatalf("unexpected second event: %+v", extra)
	case <-time.After(3 * debounceDelay):
	}
}

func TestReportsInvalidSettings(t *testing.T) {
	w, path := startWatcher(t)

	require.NoError(t, os.WriteFile(path, []byte("away_trigger: sometimes\n"), 0644))

	ev := nextEvent(t, w)
	assert.Equal(t, EventSettingsInvalid, ev.Type)
	assert.Error(t, ev.Err)
	assert.Nil(t, ev.Settings)
}

func TestIgnoresOtherFiles(t *testing.T) {
	w, path := startWatcher(t)

	other := filepath.Join(filepath.Dir(path), config.DaemonFileName)
	require.NoError(t, os.WriteFile(other, []byte("pid: 1\n"), 0644))

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(3 * debounceDelay):
	}
}
