package pmon

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/voluzi/pmon/pkg/record"
)

// HandleEvent runs one sampling cycle for an archive event.
//
// Events whose timestamp lags wallclock by more than their own interval are
// discarded and leave the baseline untouched. Otherwise a record is appended
// when a baseline exists, the baseline moves to now and old records are
// pruned. Store errors are returned and leave the baseline untouched.
func (m *Monitor) HandleEvent(ctx context.Context, ev record.ArchiveEvent) error {
	if !m.initialized {
		return ErrNotInitialized
	}

	now := m.now()
	if delta := now - ev.DateTime; delta > ev.Interval*60 {
		log.WithFields(map[string]interface{}{
			"event-time": ev.DateTime,
			"interval":   ev.Interval,
			"delta":      delta,
		}).Debug("skipping record: time difference too big")
		return nil
	}

	if m.hasLast {
		rec := m.Sample(ctx, now, m.lastTS)
		if err := m.store.AddRecord(ctx, rec); err != nil {
			return err
		}
		m.lastRecord.Store(&rec)
		log.WithFields(map[string]interface{}{
			"dateTime": rec.DateTime,
			"interval": rec.Interval,
		}).Debug("saved record")
	}
	m.lastTS, m.hasLast = now, true

	if m.cfg.MaxAge > 0 {
		if _, err := m.Prune(ctx, now-m.cfg.MaxAge); err != nil {
			return err
		}
	}
	return nil
}
