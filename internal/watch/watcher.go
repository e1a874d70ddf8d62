// Package watch follows a directory of TOML chart files.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/ephemeris"
)

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // chart file edited or created
	ChangeRemoved                    // chart file deleted
	ChangeInvalid                    // chart file no longer parses
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "invalid"
	}
}

// ChartChange is one debounced change of a chart file.
type ChartChange struct {
	Kind  ChangeKind
	File  string
	Chart *astro.Chart // set for ChangeModified
	Err   error        // set for ChangeInvalid
}

// Watcher monitors a chart directory using fsnotify.
type Watcher struct {
	Dir     string
	Changes <-chan ChartChange

	debounce time.Duration
	changes  chan ChartChange
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for dir. Start must be called to begin
// receiving changes.
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ch := make(chan ChartChange, 16)
	return &Watcher{
		Dir:      dir,
		Changes:  ch,
		debounce: 100 * time.Millisecond,
		changes:  ch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
	}, nil
}

func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. Changes nobody has
// received yet are dropped.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.watcher.Close()
		<-w.done
		close(w.changes)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !IsChartFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= w.debounce {
					if !w.emit(file) {
						return
					}
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// IsChartFile reports whether name is a chart file. Temporary files left by
// an atomic save are ignored.
func IsChartFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, ".toml") && !strings.HasPrefix(base, ".")
}

// emit reports false when the watcher was stopped before the change could
// be delivered.
func (w *Watcher) emit(file string) bool {
	change := ChartChange{File: file}
	c, err := ephemeris.LoadChartFile(file)
	switch {
	case err == nil:
		change.Kind, change.Chart = ChangeModified, c
	case errors.Is(err, os.ErrNotExist):
		change.Kind = ChangeRemoved
	default:
		change.Kind, change.Err = ChangeInvalid, err
	}
	select {
	case w.changes <- change:
		return true
	case <-w.stop:
		return false
	}
}
