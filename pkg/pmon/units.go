package pmon

import (
	"github.com/voluzi/pmon/pkg/record"
	"github.com/voluzi/pmon/pkg/units"
)

const (
	GroupData = "group_data"
	UnitKB    = "kB"
)

// RegisterUnits adds the memory observation types and the kB unit to reg.
func RegisterUnits(reg *units.Registry) {
	for _, obs := range record.MemoryFields {
		reg.SetGroup(obs, GroupData)
	}
	reg.SetUnit(record.US, GroupData, UnitKB)
	reg.SetUnit(record.Metric, GroupData, UnitKB)
	reg.SetFormat(UnitKB, "%.0f")
	reg.SetLabel(UnitKB, " kB")
	reg.AddConversion(UnitKB, "B", func(v float64) float64 { return v * 1024 })
	reg.AddConversion(UnitKB, "MB", func(v float64) float64 { return v / 1024 })
}

// Describe formats the memory observations of rec with their units.
func (m *Monitor) Describe(rec record.Record) map[string]string {
	return Describe(m.units, rec)
}

// Describe formats the memory observations of rec using the units in reg.
// Observations reg cannot format are left out.
func Describe(reg *units.Registry, rec record.Record) map[string]string {
	out := make(map[string]string)
	fields := rec.Fields()
	for _, obs := range record.MemoryFields {
		v, ok := fields[obs]
		if !ok {
			continue
		}
		s, err := reg.Format(rec.USUnits, obs, float64(v))
		if err != nil {
			continue
		}
		out[obs] = s
	}
	return out
}
