package sqlite

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/corvidae-labs/archivist/internal/logger"
)

// Watch reattaches the index when its database file is replaced on
// disk, so a rebuild by another process is picked up without a
// restart. The returned stop function releases the watcher.
func (x *Index) Watch() (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(x.dir); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != FileName {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				logger.Debug("index database changed on disk, reopening")
				if err := x.Reopen(); err != nil {
					logger.Warn("reopening index after change: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("index watcher: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
