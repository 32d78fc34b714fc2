package status

import "time"

const DefaultAddr = "127.0.0.1:8765"

func defaultOptions() *Options {
	return &Options{
		Addr:              DefaultAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
}

type Option func(*Options)

func WithAddr(addr string) Option {
	return func(opts *Options) {
		opts.Addr = addr
	}
}

func WithReadHeaderTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.ReadHeaderTimeout = d
	}
}
