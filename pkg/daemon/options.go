package daemon

import (
	"time"

	"github.com/voluzi/pmon/pkg/pmon"
)

const DefaultStopTimeout = 5 * time.Second

func defaultOptions() *Options {
	return &Options{
		StopTimeout: DefaultStopTimeout,
	}
}

type Options struct {
	// ConfigFile is watched for changes when set.
	ConfigFile     string
	StopTimeout    time.Duration
	MonitorOptions []pmon.Option
}

type Option func(*Options)

func WithConfigFile(path string) Option {
	return func(opts *Options) {
		opts.ConfigFile = path
	}
}

func WithStopTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.StopTimeout = d
	}
}

// WithMonitorOptions appends options applied after the ones derived from
// the configuration.
func WithMonitorOptions(o ...pmon.Option) Option {
	return func(opts *Options) {
		opts.MonitorOptions = append(opts.MonitorOptions, o...)
	}
}
