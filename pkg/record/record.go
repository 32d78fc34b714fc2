package record

import "strings"

// UnitSystem tags the unit system a record was measured in.
type UnitSystem int

const (
	US       UnitSystem = 1
	Metric   UnitSystem = 16
	MetricWX UnitSystem = 17
)

func (u UnitSystem) String() string {
	switch u {
	case US:
		return "us"
	case Metric:
		return "metric"
	case MetricWX:
		return "metricwx"
	default:
		return "unknown"
	}
}

// ParseUnitSystem is the inverse of UnitSystem.String.
func ParseUnitSystem(s string) (UnitSystem, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us":
		return US, true
	case "metric":
		return Metric, true
	case "metricwx":
		return MetricWX, true
	}
	return 0, false
}

// Record is a single archive sample keyed by DateTime.
// Optional fields are nil when their sampler failed.
type Record struct {
	DateTime  int64      `gorm:"column:dateTime;primaryKey;autoIncrement:false" json:"dateTime"`
	USUnits   UnitSystem `gorm:"column:usUnits" json:"usUnits"`
	Interval  int64      `gorm:"column:interval" json:"interval"`
	MemVSZ    *int64     `gorm:"column:mem_vsz" json:"mem_vsz,omitempty"`
	MemRSS    *int64     `gorm:"column:mem_rss" json:"mem_rss,omitempty"`
	ResRSS    int64      `gorm:"column:res_rss" json:"res_rss"`
	SwapTotal *int64     `gorm:"column:swap_total" json:"swap_total,omitempty"`
	SwapFree  *int64     `gorm:"column:swap_free" json:"swap_free,omitempty"`
	SwapUsed  *int64     `gorm:"column:swap_used" json:"swap_used,omitempty"`
	MemTotal  *int64     `gorm:"column:mem_total" json:"mem_total,omitempty"`
	MemFree   *int64     `gorm:"column:mem_free" json:"mem_free,omitempty"`
	MemUsed   *int64     `gorm:"column:mem_used" json:"mem_used,omitempty"`
}

// Fields returns the populated observations of the record keyed by column
// name. Absent optional fields are left out.
func (r Record) Fields() map[string]int64 {
	out := map[string]int64{
		"dateTime": r.DateTime,
		"usUnits":  int64(r.USUnits),
		"interval": r.Interval,
		"res_rss":  r.ResRSS,
	}
	optional := map[string]*int64{
		"mem_vsz":    r.MemVSZ,
		"mem_rss":    r.MemRSS,
		"swap_total": r.SwapTotal,
		"swap_free":  r.SwapFree,
		"swap_used":  r.SwapUsed,
		"mem_total":  r.MemTotal,
		"mem_free":   r.MemFree,
		"mem_used":   r.MemUsed,
	}
	for name, v := range optional {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}

// ArchiveEvent is emitted by the host once per completed archive period.
// Interval is in minutes.
type ArchiveEvent struct {
	DateTime int64 `json:"dateTime"`
	Interval int64 `json:"interval"`
}
