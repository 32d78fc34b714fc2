package pmon

import (
	"os"
	"time"

	"github.com/voluzi/pmon/pkg/record"
	"github.com/voluzi/pmon/pkg/sampler"
	"github.com/voluzi/pmon/pkg/units"
)

const (
	DefaultProcess = "weewxd"
	DefaultMaxAge  = int64(2592000)
)

func defaultOptions() *Options {
	return &Options{
		Process:         DefaultProcess,
		Pid:             os.Getpid(),
		MaxAge:          DefaultMaxAge,
		ProcessProvider: sampler.NewPsProvider(sampler.DefaultPsTimeout),
		HostMemory:      sampler.NewHostMemoryReader(sampler.DefaultMeminfoPath),
		PeakRSS:         sampler.PeakRSS,
		Clock:           time.Now,
		Schema:          record.DefaultSchema,
	}
}

type Options struct {
	Process         string
	Pid             int
	MaxAge          int64
	ProcessProvider sampler.ProcessMetricsProvider
	HostMemory      sampler.HostMemorySource
	PeakRSS         func() int64
	Clock           func() time.Time
	Units           *units.Registry
	Schema          record.Schema
}

type Option func(*Options)

// WithProcess sets the substring looked up in the process listing.
func WithProcess(name string) Option {
	return func(opts *Options) {
		opts.Process = name
	}
}

// WithPid sets the pid handed to the process provider.
func WithPid(pid int) Option {
	return func(opts *Options) {
		opts.Pid = pid
	}
}

// WithMaxAge sets the retention window in seconds. Zero or less disables
// pruning.
func WithMaxAge(seconds int64) Option {
	return func(opts *Options) {
		opts.MaxAge = seconds
	}
}

func WithProcessProvider(p sampler.ProcessMetricsProvider) Option {
	return func(opts *Options) {
		opts.ProcessProvider = p
	}
}

func WithHostMemory(h sampler.HostMemorySource) Option {
	return func(opts *Options) {
		opts.HostMemory = h
	}
}

func WithPeakRSS(fn func() int64) Option {
	return func(opts *Options) {
		opts.PeakRSS = fn
	}
}

func WithClock(fn func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = fn
	}
}

// WithUnits sets the registry the monitor registers its units into.
func WithUnits(reg *units.Registry) Option {
	return func(opts *Options) {
		opts.Units = reg
	}
}

func WithSchema(schema record.Schema) Option {
	return func(opts *Options) {
		opts.Schema = schema
	}
}
