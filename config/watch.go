package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce collapses editor save bursts (truncate + write + chmod).
const debounce = 100 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk and publishes
// the parsed result on Updates. Files whose contents hash the same as the
// last published version are ignored.
type Watcher struct {
	path    string
	log     *zap.Logger
	watcher *fsnotify.Watcher

	Updates chan *Config
	Errors  chan error

	closeCh chan struct{}
	once    sync.Once
	done    chan struct{}

	lastSum uint64
}

// NewWatcher watches path's directory (so atomic-rename saves are seen).
func NewWatcher(path string, log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	w := &Watcher{
		path:    abs,
		log:     log,
		watcher: fw,
		Updates: make(chan *Config, 1),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	if data, err := os.ReadFile(abs); err == nil {
		w.lastSum = xxhash.Sum64(data)
	}
	go w.run()
	return w, nil
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Updates)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.publishErr(err)
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.publishErr(err)
		return
	}
	sum := xxhash.Sum64(data)
	if sum == w.lastSum {
		return
	}
	cfg, err := Parse(data)
	if err != nil {
		w.publishErr(err)
		return
	}
	w.lastSum = sum
	w.log.Info("config reloaded", zap.String("path", w.path), zap.Uint64("xxhash", sum))

	// Only the newest config matters; drop a stale unread one.
	select {
	case <-w.Updates:
	default:
	}
	select {
	case w.Updates <- cfg:
	case <-w.closeCh:
	}
}

func (w *Watcher) publishErr(err error) {
	w.log.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
	select {
	case w.Errors <- err:
	default:
	}
}
