package pmon

import (
	"context"

	log "github.com/sirupsen/logrus"
	"k8s.io/utils/ptr"

	"github.com/voluzi/pmon/pkg/record"
)

// Sample assembles a record for now, with the interval measured from last.
// Sampler failures are logged and leave the affected fields unset.
func (m *Monitor) Sample(ctx context.Context, now, last int64) record.Record {
	rec := record.Record{
		DateTime: now,
		USUnits:  record.Metric,
		Interval: floorDiv(now-last, 60),
	}

	pm, err := m.cfg.ProcessProvider.Sample(ctx, m.cfg.Pid, m.cfg.Process)
	if err != nil {
		log.WithFields(map[string]interface{}{
			"pid":     m.cfg.Pid,
			"process": m.cfg.Process,
		}).Errorf("process sample failed: %v", err)
	} else {
		rec.MemVSZ = ptr.To(pm.VSZ)
		rec.MemRSS = ptr.To(pm.RSS)
	}

	hm, err := m.cfg.HostMemory.Read()
	if err != nil {
		log.Debugf("host memory read failed: %v", err)
	} else {
		rec.MemTotal = ptr.To(hm.MemTotal)
		rec.MemFree = ptr.To(hm.MemFree)
		rec.MemUsed = ptr.To(hm.MemUsed)
		rec.SwapTotal = ptr.To(hm.SwapTotal)
		rec.SwapFree = ptr.To(hm.SwapFree)
		rec.SwapUsed = ptr.To(hm.SwapUsed)
	}

	rec.ResRSS = m.cfg.PeakRSS()
	return rec
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
