package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
)

// Defaults for NewWatcher.
const (
	DefaultInterval = 7 * 24 * time.Hour
	DefaultDebounce = 500 * time.Millisecond
)

// Watcher keeps a catalog.Holder in sync with a data directory.
// A reload is triggered by file changes (debounced) and on a fixed interval.
// A failed reload is logged and the previous catalog stays in place.
type Watcher struct {
	dir      string
	minAttrs int
	holder   *catalog.Holder
	interval time.Duration
	debounce time.Duration
	onReload func(*catalog.Catalog)
}

// WatchOption customizes a Watcher.
type WatchOption func(*Watcher)

// WithInterval sets the periodic reload interval (<= 0 disables it).
func WithInterval(d time.Duration) WatchOption { return func(w *Watcher) { w.interval = d } }

// WithDebounce sets how long file events are coalesced before reloading.
func WithDebounce(d time.Duration) WatchOption { return func(w *Watcher) { w.debounce = d } }

// WithOnReload registers a callback run after every successful swap.
func WithOnReload(fn func(*catalog.Catalog)) WatchOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher reloads dir into holder.
func NewWatcher(dir string, minAttrs int, holder *catalog.Holder, opts ...WatchOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		minAttrs: minAttrs,
		holder:   holder,
		interval: DefaultInterval,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Reload builds a fresh catalog and swaps it in.
func (w *Watcher) Reload() error {
	cat, err := Open(w.dir, w.minAttrs)
	if err != nil {
		return err
	}
	w.holder.Swap(cat)
	if w.onReload != nil {
		w.onReload(cat)
	}
	return nil
}

// Run watches until ctx is done. File events are only watched when the
// Watcher has a directory; the embedded defaults only follow the interval.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if w.dir != "" {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("dataset watcher: %w", err)
		}
		defer fw.Close()
		if err := fw.Add(w.dir); err != nil {
			return fmt.Errorf("watch %s: %w", w.dir, err)
		}
		events, errs = fw.Events, fw.Errors
	}

	var tick <-chan time.Time
	if w.interval > 0 {
		t := time.NewTicker(w.interval)
		defer t.Stop()
		tick = t.C
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	log.Info().Str("dir", w.dir).Dur("interval", w.interval).Msg("catalog watcher started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !relevant(ev) {
				continue
			}
			log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("data file changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warn().Err(err).Msg("catalog watcher error")
		case <-pending:
			pending = nil
			w.reload("file change")
		case <-tick:
			w.reload("interval")
		}
	}
}

func (w *Watcher) reload(reason string) {
	if err := w.Reload(); err != nil {
		log.Error().Err(err).Str("reason", reason).Msg("catalog reload failed; keeping previous catalog")
		return
	}
	log.Info().Str("reason", reason).Msg("catalog reloaded")
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Base(ev.Name) {
	case CatalogJSON, CatalogYAML, CatalogYML, SchemaFile:
		return true
	}
	return false
}
