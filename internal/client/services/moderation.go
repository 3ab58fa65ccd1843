package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/finbroker/internal/client/api"
	"github.com/dmitrijs2005/finbroker/internal/client/models"
	"github.com/dmitrijs2005/finbroker/internal/logging"
)

// DefaultPollInterval is the fixed moderation polling cadence; consumers
// may therefore observe counts up to this much behind the server.
const DefaultPollInterval = 10 * time.Second

// ModerationWatcher polls the aggregated moderation feed. The client never
// transitions moderation state itself; it only delivers snapshots.
type ModerationWatcher struct {
	gw       *api.Gateway
	interval time.Duration
	log      logging.Logger
}

func NewModerationWatcher(gw *api.Gateway, interval time.Duration, log logging.Logger) *ModerationWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &ModerationWatcher{gw: gw, interval: interval, log: log}
}

// Snapshot fetches the current pending summaries once.
func (w *ModerationWatcher) Snapshot(ctx context.Context) ([]models.PendingSummary, error) {
	var out []models.PendingSummary
	if err := w.gw.GetJSON(ctx, "/moderation/pending", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Watch polls at the fixed interval and delivers each snapshot on the
// returned channel until ctx is cancelled. A slow consumer only ever loses
// older snapshots: the channel holds the latest one. Poll failures are
// logged and skipped; the next tick tries again.
func (w *ModerationWatcher) Watch(ctx context.Context) <-chan []models.PendingSummary {
	ch := make(chan []models.PendingSummary, 1)

	go func() {
		defer close(ch)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			summaries, err := w.Snapshot(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.log.Warn(ctx, "moderation poll failed", "error", err)
			} else {
				select {
				case ch <- summaries:
				default:
					// Drop the stale snapshot, keep the fresh one.
					select {
					case <-ch:
					default:
					}
					ch <- summaries
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return ch
}
