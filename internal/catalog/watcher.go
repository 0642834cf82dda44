package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads stores when their data directories change on disk.
// The scraper pipeline rewrites whole files, so events arrive in
// bursts; reloads are debounced per site.
type Watcher struct {
	fw       *fsnotify.Watcher
	log      Log
	stores   map[string]*Store // watched dir -> store
	debounce time.Duration
	onReload func(site string)
}

// NewWatcher creates a watcher over the given stores. onReload is
// called after a store reloads (used to invalidate the cache); it may
// be nil.
func NewWatcher(stores []*Store, log Log, onReload func(site string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fw:       fw,
		log:      log,
		stores:   make(map[string]*Store, len(stores)),
		debounce: 500 * time.Millisecond,
		onReload: onReload,
	}

	for _, st := range stores {
		for _, dir := range []string{st.DataDir(), filepath.Join(st.DataDir(), "products")} {
			if err := fw.Add(dir); err != nil {
				log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
				continue
			}
			w.stores[dir] = st
		}
	}

	return w, nil
}

// Run processes events until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fw.Close()

	pending := make(map[string]*Store) // site -> store awaiting reload
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			st := w.storeFor(ev.Name)
			if st == nil {
				continue
			}
			pending[st.Site()] = st
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Error("fsnotify error", zap.Error(err))

		case <-fire:
			fire = nil
			for site, st := range pending {
				if err := st.Load(ctx); err != nil {
					w.log.Error("catalog reload failed", zap.String("site", site), zap.Error(err))
					continue
				}
				if w.onReload != nil {
					w.onReload(site)
				}
			}
			pending = make(map[string]*Store)
		}
	}
}

func (w *Watcher) storeFor(path string) *Store {
	dir := filepath.Dir(path)
	if st, ok := w.stores[dir]; ok {
		return st
	}
	return nil
}
