// Package watcher converts lyric files as they appear in a directory.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ytget/qrcdl/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is handled.
const DefaultDebounce = 300 * time.Millisecond

// Handler processes one settled file.
type Handler func(ctx context.Context, path string) error

// Watcher calls a Handler for every created or modified file in a directory
// whose extension matches. Bursts of events for the same file are collapsed.
type Watcher struct {
	dir      string
	ext      string
	handle   Handler
	debounce time.Duration
}

// New creates a watcher for files ending in ext (e.g. ".qrc") inside dir.
func New(dir, ext string, handle Handler) *Watcher {
	return &Watcher{
		dir:      dir,
		ext:      strings.ToLower(ext),
		handle:   handle,
		debounce: DefaultDebounce,
	}
}

// WithDebounce sets the quiet period.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

func (w *Watcher) matches(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == w.ext
}

// Run watches until ctx is cancelled. Handler errors are logged and do not
// stop the watcher. Run waits for in-flight handlers before returning.
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.WithComponent(logger.ComponentWatcher).With(map[string]interface{}{"dir": w.dir})

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	log.Info("Watching for lyric files", map[string]interface{}{"ext": w.ext})

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
		wg     sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		for name, t := range timers {
			if t.Stop() {
				wg.Done()
			}
			delete(timers, name)
		}
		mu.Unlock()
		wg.Wait()
	}()

	schedule := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[name]; ok && t.Stop() {
			wg.Done()
		}
		wg.Add(1)
		var t *time.Timer
		t = time.AfterFunc(w.debounce, func() {
			defer wg.Done()
			mu.Lock()
			if timers[name] == t {
				delete(timers, name)
			}
			mu.Unlock()

			if err := w.handle(ctx, name); err != nil {
				log.Warn("Conversion failed", map[string]interface{}{
					"file":  name,
					"error": err,
				})
				return
			}
			log.Debug("Converted file", map[string]interface{}{"file": name})
		})
		timers[name] = t
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.matches(event.Name) {
				continue
			}
			log.Trace("File event", map[string]interface{}{"file": event.Name, "op": event.Op.String()})
			schedule(event.Name)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", map[string]interface{}{"error": err})
		}
	}
}
