package config

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes on disk and hands the new
// config to the registered callback. Editors often replace files with a
// rename, so the parent directory is watched rather than the file itself.
type Watcher struct {
	path     string
	onChange func(*Config)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher starts watching path. onChange runs on every successful reload;
// reload failures are logged and the previous config stays in effect.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		watcher:  fw,
		done:     make(chan struct{}),
	}
	go w.loop()
	log.Printf("[CONFIG] watching %s for changes", path)
	return w, nil
}

func (w *Watcher) loop() {
	// Debounce: editors fire several events per save.
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(200*time.Millisecond, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[CONFIG] watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Printf("[CONFIG] reload of %s failed, keeping previous config: %v", w.path, err)
		return
	}
	log.Printf("[CONFIG] reloaded %s", w.path)
	w.onChange(cfg)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
