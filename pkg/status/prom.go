package status

import (
	"sort"

	prom "github.com/prometheus/client_model/go"
	"k8s.io/utils/ptr"

	"github.com/voluzi/pmon/pkg/record"
)

const (
	metricPrefix    = "pmon_"
	timestampMetric = metricPrefix + "last_record_timestamp_seconds"
	intervalMetric  = metricPrefix + "interval_minutes"
)

// MetricName maps a record column to its exported gauge name.
func MetricName(column string) string {
	switch column {
	case "dateTime":
		return timestampMetric
	case "interval":
		return intervalMetric
	default:
		return metricPrefix + column + "_kilobytes"
	}
}

// MetricFamilies renders one gauge per populated observation of rec, sorted
// by name. A nil record yields no families.
func MetricFamilies(rec *record.Record) []*prom.MetricFamily {
	if rec == nil {
		return nil
	}

	var out []*prom.MetricFamily
	for column, value := range rec.Fields() {
		if column == "usUnits" {
			continue
		}
		out = append(out, &prom.MetricFamily{
			Name: ptr.To(MetricName(column)),
			Help: ptr.To("pmon " + column + " of the last archived record"),
			Type: prom.MetricType_GAUGE.Enum(),
			Metric: []*prom.Metric{{
				Gauge: &prom.Gauge{Value: ptr.To(float64(value))},
			}},
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GetName() < out[j].GetName()
	})
	return out
}
