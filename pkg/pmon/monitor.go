// Package pmon records the memory footprint of a monitored process and of the
// host into an archive, one record per archive event.
package pmon

import (
	"context"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/voluzi/pmon/pkg/record"
	"github.com/voluzi/pmon/pkg/units"
)

var (
	ErrSchemaMismatch = errors.New("archive schema mismatch")
	ErrNotInitialized = errors.New("monitor is not initialized")
)

// Store is the archive the monitor appends to.
type Store interface {
	Columns(ctx context.Context) ([]string, error)
	AddRecord(ctx context.Context, rec record.Record) error
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
	Compact(ctx context.Context) error
	Close() error
}

// Monitor is not safe for concurrent use except for LastRecord. Events must
// be delivered serially.
type Monitor struct {
	cfg         *Options
	store       Store
	units       *units.Registry
	initialized bool

	// lastTS is the wallclock time of the last processed event.
	lastTS  int64
	hasLast bool

	lastRecord atomic.Pointer[record.Record]
}

func New(store Store, opts ...Option) *Monitor {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	reg := options.Units
	if reg == nil {
		reg = units.NewRegistry()
	}
	RegisterUnits(reg)

	return &Monitor{
		cfg:   options,
		store: store,
		units: reg,
	}
}

// Initialize checks that the archive columns match the declared schema.
// A mismatch is a configuration error and the monitor stays unusable.
func (m *Monitor) Initialize(ctx context.Context) error {
	cols, err := m.store.Columns(ctx)
	if err != nil {
		return errors.Wrap(err, "read archive columns")
	}
	declared := m.cfg.Schema.Names()
	if !slices.Equal(cols, declared) {
		return errors.Wrapf(ErrSchemaMismatch, "%v != %v", cols, declared)
	}
	m.initialized = true

	log.WithFields(map[string]interface{}{
		"process": m.cfg.Process,
		"pid":     m.cfg.Pid,
		"max-age": m.cfg.MaxAge,
	}).Info("process monitor initialized")
	return nil
}

// Shutdown closes the archive.
func (m *Monitor) Shutdown() {
	if err := m.store.Close(); err != nil {
		log.Debugf("error closing archive: %v", err)
	}
}

// SetProcess changes the process filter used by subsequent samples.
func (m *Monitor) SetProcess(name string, pid int) {
	m.cfg.Process = name
	m.cfg.Pid = pid
}

// SetMaxAge changes the retention window in seconds.
func (m *Monitor) SetMaxAge(seconds int64) {
	m.cfg.MaxAge = seconds
}

// Baseline returns the timestamp the next interval is computed from.
func (m *Monitor) Baseline() (int64, bool) {
	return m.lastTS, m.hasLast
}

// LastRecord returns the last record appended to the archive.
func (m *Monitor) LastRecord() (record.Record, bool) {
	rec := m.lastRecord.Load()
	if rec == nil {
		return record.Record{}, false
	}
	return *rec, true
}

// Units returns the registry holding the monitor's unit metadata.
func (m *Monitor) Units() *units.Registry {
	return m.units
}

func (m *Monitor) now() int64 {
	return m.cfg.Clock().Round(time.Second).Unix()
}
