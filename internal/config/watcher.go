package config

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"schedkit/internal/eventbus"
	"schedkit/pkg/logx"
)

const debounceDelay = 300 * time.Millisecond

// Watch observes the schedule file and reports content changes. Armed
// schedules are deliberately not rebuilt on the fly; the watcher only
// tells the operator the running schedule has drifted from the file and
// a restart is needed to apply it.
//
// Blocks until ctx is done.
func Watch(ctx context.Context, path string, log logx.Logger, bus eventbus.Bus) error {
	if log.IsZero() {
		log = logx.Nop()
	}
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory, not the file: editors and atomic writers
	// replace the file, which drops a direct watch.
	if err := w.Add(dir); err != nil {
		return err
	}

	lastHash := hashFile(path)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	check := make(chan struct{}, 1)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceDelay, func() {
			select {
			case check <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	log.Debug("watching schedule file", logx.String("path", path))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
				debounce()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("schedule watch error", logx.Err(err))
		case <-check:
			h := hashFile(path)
			if h == lastHash {
				continue
			}
			lastHash = h
			log.Warn("schedule file changed; restart to apply", logx.String("path", path))
			if bus != nil {
				bus.Publish(eventbus.Event{Type: eventbus.ConfigChanged, Data: path})
			}
		}
	}
}

func hashFile(path string) uint64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}
