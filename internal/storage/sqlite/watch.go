package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/fleetcal/internal/logger"
)

// watcher observes the database directory so writes made by other processes
// reach subscribers. Writes made through this Store broadcast directly.
type watcher struct {
	fs     *fsnotify.Watcher
	cancel context.CancelFunc
}

func (s *Store) startWatch() error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watch != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.watch = &watcher{fs: fw, cancel: cancel}
	go s.watchLoop(ctx, fw)

	logger.Debug("Watching database for external changes", "dir", dir)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, fw *fsnotify.Watcher) {
	// Matches the database file and its -journal / -wal / -shm companions.
	base := filepath.Base(s.path)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			// The change cannot be classified, so treat it as one.
			logger.Warn("Database watcher error", "error", err)
			s.hub.Broadcast()
		case evt, ok := <-fw.Events:
			if !ok {
				return
			}
			if !strings.HasPrefix(filepath.Base(evt.Name), base) {
				continue
			}
			if evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create) || evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
				s.hub.Broadcast()
			}
		}
	}
}

// stopWatch does not wait for watchLoop to return; it may run while the hub
// lock is held and watchLoop can be blocked broadcasting.
func (s *Store) stopWatch() {
	s.watchMu.Lock()
	w := s.watch
	s.watch = nil
	s.watchMu.Unlock()

	if w == nil {
		return
	}
	w.cancel()
	if err := w.fs.Close(); err != nil {
		logger.Warn("Failed to close database watcher", "error", err)
	}
}
