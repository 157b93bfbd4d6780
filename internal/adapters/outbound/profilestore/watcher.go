package profilestore

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/promptbroker/promptbroker/internal/domain"
)

// Watcher triggers the store's serialized reload when profile files change
// on disk. Events are debounced because editors emit bursts of writes.
type Watcher struct {
	source   domain.ProfileSource
	dir      string
	logger   *zap.Logger
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// NewWatcher watches dir for .md changes. The store's embedded catalog has
// no directory, so a store created without one cannot be watched.
func NewWatcher(source domain.ProfileSource, dir string, logger *zap.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, domain.E(domain.KindInvalidArgument, "watch mode requires a profiles directory")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, err, "creating filesystem watcher")
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, domain.Wrap(domain.KindInternal, err, "watching profiles directory")
	}
	return &Watcher{
		source:   source,
		dir:      dir,
		logger:   logger,
		debounce: 300 * time.Millisecond,
		fsw:      fsw,
	}, nil
}

// Run blocks until ctx is cancelled, reloading the catalog after each
// burst of relevant filesystem events.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var timer *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = timer.C
			} else {
				// Drain before Reset in case the timer fired between
				// events; otherwise the stale tick cuts the debounce
				// window short.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-pending:
			timer = nil
			pending = nil
			report, err := w.source.Reload(ctx)
			if err != nil {
				w.logger.Error("watch-triggered reload failed", zap.Error(err))
				continue
			}
			w.logger.Info("catalog reloaded on file change",
				zap.Int("profiles", report.ProfilesLoaded),
				zap.Int("errors", len(report.Errors)))
		}
	}
}
