package pmon

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Prune deletes records older than cutoff and compacts the archive. Only the
// deletion can fail; compaction is best effort.
func (m *Monitor) Prune(ctx context.Context, cutoff int64) (int64, error) {
	n, err := m.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if err := m.store.Compact(ctx); err != nil {
		log.Debugf("archive compaction failed: %v", err)
	}
	if n > 0 {
		log.WithFields(map[string]interface{}{
			"cutoff":  cutoff,
			"deleted": n,
		}).Info("pruned archive")
	}
	return n, nil
}
