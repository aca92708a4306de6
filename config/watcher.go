package config

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"ledgrid.net/zoneleds/util"
)

// Watcher observes the configuration file and emits a
// NotifConfigChanged notification after the file has been rewritten.
// Editors tend to produce several write events in quick succession, so
// events are debounced before anything is forwarded.
type Watcher struct {
	cfile    string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	events   chan *util.Notification
	stopchan chan struct{}
	done     chan struct{}
}

// NewWatcher starts watching cfile's directory. The returned Watcher
// is already running; call Stop to release it.
func NewWatcher(cfile string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: many editors replace the file
	// on save, which would otherwise drop the watch.
	if err := fsw.Add(filepath.Dir(cfile)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		cfile:    cfile,
		debounce: 200 * time.Millisecond,
		watcher:  fsw,
		events:   make(chan *util.Notification, 4),
		stopchan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Events returns the channel the debounced change notifications are
// delivered on.
func (w *Watcher) Events() <-chan *util.Notification {
	return w.events
}

func (w *Watcher) run() {
	defer close(w.done)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-w.stopchan:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.cfile) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			slog.Info("Config file changed", "file", w.cfile)
			select {
			case w.events <- util.NewNotification(util.NotifConfigChanged, "", w.cfile, time.Now()):
			default:
				// A notification is already queued; the consumer will
				// re-read the file anyway.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error", "error", err)
		}
	}
}

// Stop shuts the watcher down and waits for its goroutine to end.
func (w *Watcher) Stop() {
	close(w.stopchan)
	w.watcher.Close()
	<-w.done
}
