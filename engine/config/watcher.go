package config

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/hellorift/engine/core"
)

// Watcher reloads the configuration file when it changes on disk. Parsed
// configurations are published on Updates; the frame loop drains it between
// ticks, so nothing here touches the session.
type Watcher struct {
	path     string
	fsnotify *fsnotify.Watcher
	updates  chan *Config
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func Watch(path string) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("config: nothing to watch")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Editors often replace the file instead of writing it, so the directory is watched.
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		fsnotify: fsWatch,
		updates:  make(chan *Config, 1),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.start()
	return w, nil
}

// Updates delivers the latest successfully parsed configuration.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Poll returns a pending configuration without blocking.
func (w *Watcher) Poll() (*Config, bool) {
	select {
	case cfg, ok := <-w.updates:
		return cfg, ok && cfg != nil
	default:
		return nil, false
	}
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.fsnotify.Close()
	})
	return err
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.reload()
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("config watcher: %s", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		// Half-written files fail to parse; the next write event retries.
		core.LogWarn("config reload skipped: %s", err)
		return
	}
	// Keep only the newest configuration.
	select {
	case <-w.updates:
	default:
	}
	w.updates <- cfg
	core.LogDebug("config %s reloaded", w.path)
}
