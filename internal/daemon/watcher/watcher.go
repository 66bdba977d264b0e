// Package watcher reloads settings.yaml when it changes on disk.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ssicon/screensaver-icon/internal/config"
	"github.com/ssicon/screensaver-icon/internal/models"
)

// EventType represents the type of settings event.
type EventType int

const (
	EventSettingsChanged EventType = iota
	EventSettingsInvalid           // the file changed but could not be loaded
)

const debounceDelay = 100 * time.Millisecond

// Event represents a debounced change of the settings file.
type Event struct {
	Type     EventType
	Path     string
	Settings *models.Settings // EventSettingsChanged
	Err      error            // EventSettingsInvalid
}

// Watcher watches the directory holding the settings file.
// The directory is watched rather than the file so atomic replaces are seen.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	dir        string
	file       string
	logger     *zap.Logger
	eventsChan chan Event
	done       chan struct{}
	stopOnce   sync.Once
	debounceMu sync.Mutex
	debounce   *time.Timer
}

// New creates a watcher for the settings file at path.
func New(path string, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		dir:        filepath.Dir(path),
		file:       filepath.Base(path),
		logger:     logger.Named("settings-watcher"),
		eventsChan: make(chan Event, 8),
		done:       make(chan struct{}),
	}, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start starts the watcher.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return err
	}
	go w.processEvents()
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.debounceMu.Unlock()
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != w.file {
		return
	}
	// Rename covers atomic writes (temp file renamed over the target).
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("fsnotify", zap.Stringer("op", event.Op), zap.String("path", event.Name))

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	path := filepath.Join(w.dir, w.file)

	ev := Event{Type: EventSettingsChanged, Path: path}
	settings, err := config.LoadSettingsFrom(path)
	if err != nil {
		w.logger.Warn("ignoring invalid settings", zap.String("path", path), zap.Error(err))
		ev.Type = EventSettingsInvalid
		ev.Err = err
	} else {
		ev.Settings = settings
	}

	select {
	case w.eventsChan <- ev:
	case <-w.done:
	}
}
