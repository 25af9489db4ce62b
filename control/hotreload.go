// control/hotreload.go
// Reloads a ConfigStore from its TOML file when the file changes on disk.

package control

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchFile reloads cs from path whenever the file is rewritten. Editors and
// config management tools often replace files rather than write in place, so
// the watch covers the parent directory and filters on the file name.
// The returned stop function ends the watch.
func WatchFile(cs *ConfigStore, path string, log *zap.Logger) (stop func() error, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := cs.LoadTOMLFile(abs); err != nil {
					log.Warn("control: hot reload failed", zap.String("path", abs), zap.Error(err))
					continue
				}
				log.Debug("control: config reloaded", zap.String("path", abs))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("control: config watch error", zap.Error(err))
			}
		}
	}()
	return watcher.Close, nil
}
