// Package units holds observation unit metadata: which group an observation
// belongs to, which unit a group uses in each unit system and how values of
// a unit are formatted and converted.
package units

import (
	"fmt"
	"sync"

	"emperror.dev/errors"
	"github.com/c2h5oh/datasize"

	"github.com/voluzi/pmon/pkg/record"
)

var (
	ErrUnknownObservation = errors.New("unknown observation type")
	ErrNoConversion       = errors.New("no conversion between units")
)

// Conversion converts a value from one unit into another.
type Conversion func(float64) float64

// Registry is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	groups      map[string]string
	systems     map[record.UnitSystem]map[string]string
	formats     map[string]string
	labels      map[string]string
	conversions map[string]map[string]Conversion
}

func NewRegistry() *Registry {
	return &Registry{
		groups:      make(map[string]string),
		systems:     make(map[record.UnitSystem]map[string]string),
		formats:     make(map[string]string),
		labels:      make(map[string]string),
		conversions: make(map[string]map[string]Conversion),
	}
}

// SetGroup assigns an observation type to a unit group.
func (r *Registry) SetGroup(obsType, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[obsType] = group
}

// SetUnit sets the unit used by a group in the given unit system.
func (r *Registry) SetUnit(system record.UnitSystem, group, unit string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.systems[system] == nil {
		r.systems[system] = make(map[string]string)
	}
	r.systems[system][group] = unit
}

func (r *Registry) SetFormat(unit, format string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[unit] = format
}

func (r *Registry) SetLabel(unit, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[unit] = label
}

func (r *Registry) AddConversion(from, to string, fn Conversion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conversions[from] == nil {
		r.conversions[from] = make(map[string]Conversion)
	}
	r.conversions[from][to] = fn
}

// Group returns the unit group of an observation type.
func (r *Registry) Group(obsType string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[obsType]
	return g, ok
}

// Unit returns the unit of an observation type in the given unit system.
func (r *Registry) Unit(system record.UnitSystem, obsType string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.groups[obsType]
	if !ok {
		return "", errors.WithDetails(ErrUnknownObservation, "obsType", obsType)
	}
	unit, ok := r.systems[system][group]
	if !ok {
		return "", errors.Errorf("group %s has no unit in unit system %s", group, system)
	}
	return unit, nil
}

// Convert converts value from one unit into another.
func (r *Registry) Convert(value float64, from, to string) (float64, error) {
	if from == to {
		return value, nil
	}
	r.mu.RLock()
	fn, ok := r.conversions[from][to]
	r.mu.RUnlock()
	if !ok {
		return 0, errors.WithDetails(ErrNoConversion, "from", from, "to", to)
	}
	return fn(value), nil
}

// Format renders an observation value with the format and label of its unit.
func (r *Registry) Format(system record.UnitSystem, obsType string, value float64) (string, error) {
	unit, err := r.Unit(system, obsType)
	if err != nil {
		return "", err
	}
	r.mu.RLock()
	format, ok := r.formats[unit]
	label := r.labels[unit]
	r.mu.RUnlock()
	if !ok {
		format = "%v"
	}
	return fmt.Sprintf(format, value) + label, nil
}

// Humanize renders a value held in the given unit as a human readable size.
// The unit must be convertible to bytes ("B").
func (r *Registry) Humanize(value float64, unit string) (string, error) {
	bytes, err := r.Convert(value, unit, "B")
	if err != nil {
		return "", err
	}
	if bytes < 0 {
		return "-" + datasize.ByteSize(-bytes).HumanReadable(), nil
	}
	return datasize.ByteSize(bytes).HumanReadable(), nil
}
