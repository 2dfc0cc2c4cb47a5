// Package watcher watches the configuration file and triggers hot reloads.
// It supports cross-platform fsnotify event handling.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/printforge/accountlink/internal/config"
)

// reloadDebounce absorbs the bursts of write events editors and atomic
// renames produce before a reload is attempted.
const reloadDebounce = 150 * time.Millisecond

// Watcher manages file watching for the daemon configuration file.
type Watcher struct {
	configPath     string
	reloadCallback func(*config.Config)
	watcher        *fsnotify.Watcher

	reloadMu    sync.Mutex
	reloadTimer *time.Timer
	lastHash    string
}

// NewWatcher creates a watcher for the given config file. The callback runs
// on the watcher goroutine with the freshly parsed configuration.
func NewWatcher(configPath string, reloadCallback func(*config.Config)) (*Watcher, error) {
	fsWatcher, errNewWatcher := fsnotify.NewWatcher()
	if errNewWatcher != nil {
		return nil, errNewWatcher
	}
	return &Watcher{
		configPath:     configPath,
		reloadCallback: reloadCallback,
		watcher:        fsWatcher,
	}, nil
}

// Start begins watching the configuration file. Watching the parent
// directory keeps the watch alive across atomic saves that replace the file.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.configPath)
	if errAdd := w.watcher.Add(dir); errAdd != nil {
		log.Errorf("failed to watch config directory %s: %v", dir, errAdd)
		return errAdd
	}
	log.Debugf("watching config file: %s", w.configPath)

	if data, err := os.ReadFile(w.configPath); err == nil {
		w.setHash(hashOf(data))
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the file watcher.
func (w *Watcher) Stop() error {
	w.stopReloadTimer()
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case errWatch, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("file watcher error: %v", errWatch)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	configOps := fsnotify.Write | fsnotify.Create | fsnotify.Rename
	if filepath.Clean(event.Name) != filepath.Clean(w.configPath) || event.Op&configOps == 0 {
		return
	}
	log.Debugf("config file change detected: %s %s", event.Op.String(), event.Name)
	w.scheduleReload()
}

func (w *Watcher) scheduleReload() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	if w.reloadTimer != nil {
		w.reloadTimer.Stop()
	}
	w.reloadTimer = time.AfterFunc(reloadDebounce, func() {
		w.reloadMu.Lock()
		w.reloadTimer = nil
		w.reloadMu.Unlock()
		w.reloadIfChanged()
	})
}

func (w *Watcher) stopReloadTimer() {
	w.reloadMu.Lock()
	if w.reloadTimer != nil {
		w.reloadTimer.Stop()
		w.reloadTimer = nil
	}
	w.reloadMu.Unlock()
}

func (w *Watcher) reloadIfChanged() {
	data, err := os.ReadFile(w.configPath)
	if err != nil {
		log.Errorf("failed to read config file for hash check: %v", err)
		return
	}
	if len(data) == 0 {
		log.Debug("ignoring empty config file write event")
		return
	}
	newHash := hashOf(data)
	if current := w.currentHash(); current != "" && current == newHash {
		log.Debug("config file content unchanged (hash match), skipping reload")
		return
	}

	cfg, errLoad := config.LoadConfig(w.configPath)
	if errLoad != nil {
		log.Errorf("config reload failed, keeping previous configuration: %v", errLoad)
		return
	}
	w.setHash(newHash)
	log.Infof("config file changed, reloading: %s", w.configPath)
	if w.reloadCallback != nil {
		w.reloadCallback(cfg)
	}
}

func (w *Watcher) currentHash() string {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	return w.lastHash
}

func (w *Watcher) setHash(hash string) {
	w.reloadMu.Lock()
	w.lastHash = hash
	w.reloadMu.Unlock()
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
