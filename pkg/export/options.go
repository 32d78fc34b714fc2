package export

import (
	"time"

	"github.com/c2h5oh/datasize"
)

const (
	DefaultBlockSize    = "1MB"
	DefaultBlocks       = 4
	DefaultReportPeriod = time.Second
)

type Options struct {
	BlockSize    datasize.ByteSize
	Blocks       int
	ReportPeriod time.Duration
}

func defaultOptions() *Options {
	return &Options{
		BlockSize:    datasize.MustParseString(DefaultBlockSize),
		Blocks:       DefaultBlocks,
		ReportPeriod: DefaultReportPeriod,
	}
}

type Option func(*Options)

// WithBlockSize sets the size of each block compressed in parallel.
func WithBlockSize(size string) Option {
	return func(o *Options) {
		o.BlockSize = datasize.MustParseString(size)
	}
}

// WithBlocks sets how many blocks are compressed concurrently.
func WithBlocks(n int) Option {
	return func(o *Options) {
		o.Blocks = n
	}
}

func WithReportPeriod(period time.Duration) Option {
	return func(o *Options) {
		o.ReportPeriod = period
	}
}
