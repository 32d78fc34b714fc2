// Package daemon runs the recorder: it follows archive events, feeds them to
// the monitor one at a time and serves the status endpoint.
package daemon

import (
	"context"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/voluzi/pmon/internal/config"
	"github.com/voluzi/pmon/internal/store"
	"github.com/voluzi/pmon/pkg/pmon"
	"github.com/voluzi/pmon/pkg/record"
	"github.com/voluzi/pmon/pkg/sampler"
	"github.com/voluzi/pmon/pkg/status"
	"github.com/voluzi/pmon/pkg/trigger"
)

type Daemon struct {
	cfg     *config.Config
	opts    *Options
	monitor *pmon.Monitor
	source  *trigger.EventSource
	status  *status.Server
	reloads chan *config.Config
}

func New(cfg *config.Config, opts ...Option) (*Daemon, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	path, table, err := cfg.Archive()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(path, table, record.DefaultSchema, true)
	if err != nil {
		return nil, err
	}

	pm := cfg.ProcessMonitor
	monitorOpts := append([]pmon.Option{
		pmon.WithProcess(pm.Process),
		pmon.WithPid(pm.Pid),
		pmon.WithMaxAge(pm.MaxAge.Seconds()),
		pmon.WithProcessProvider(NewProvider(pm)),
		pmon.WithHostMemory(sampler.NewHostMemoryReader(pm.Meminfo)),
	}, options.MonitorOptions...)
	monitor := pmon.New(st, monitorOpts...)

	source, err := trigger.NewEventSource(pm.Trigger, pm.CreateFifo)
	if err != nil {
		monitor.Shutdown()
		return nil, err
	}

	d := &Daemon{
		cfg:     cfg,
		opts:    options,
		monitor: monitor,
		source:  source,
		reloads: make(chan *config.Config),
	}
	if pm.StatusAddr != "" {
		d.status = status.NewServer(monitor, status.WithAddr(pm.StatusAddr))
	}

	log.WithFields(map[string]interface{}{
		"archive":  path,
		"table":    table,
		"trigger":  pm.Trigger,
		"provider": pm.Provider,
		"status":   pm.StatusAddr,
	}).Info("recorder configured")
	return d, nil
}

// NewProvider builds the process provider named by the configuration. Pid 0
// is resolved by process name.
func NewProvider(pm config.MonitorConfig) sampler.ProcessMetricsProvider {
	var provider sampler.ProcessMetricsProvider = sampler.NewPsProvider(pm.PsTimeout.Duration())
	if pm.Provider == config.ProviderGopsutil {
		provider = sampler.NewGopsutilProvider(sampler.DefaultProcessCacheTTL)
	}
	return sampler.NewNameLookupProvider(provider, sampler.DefaultProcessCacheTTL)
}

func (d *Daemon) Monitor() *pmon.Monitor {
	return d.monitor
}

// Run blocks until ctx is cancelled or a component fails. A schema mismatch
// is returned before anything starts. The archive is closed on return.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.monitor.Shutdown()

	go d.source.Start()
	if err := d.monitor.Initialize(ctx); err != nil {
		d.stopSource()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.loop(gctx)
	})

	if d.status != nil {
		g.Go(d.status.Start)
	}

	if d.opts.ConfigFile != "" {
		g.Go(func() error {
			err := config.Watch(gctx, d.opts.ConfigFile, d.cfg, func(cfg *config.Config) {
				select {
				case d.reloads <- cfg:
				case <-gctx.Done():
				}
			})
			if err != nil {
				log.Errorf("error watching config file: %v", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("stopping recorder")
		d.stopSource()
		if d.status == nil {
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), d.opts.StopTimeout)
		defer cancel()
		return d.status.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// loop is the only goroutine touching the monitor after Initialize.
func (d *Daemon) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-d.source.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("archive event source closed")
			}
			if ev.Err != nil {
				log.Errorf("error reading archive event: %v", ev.Err)
				continue
			}
			if err := d.monitor.HandleEvent(ctx, ev.ArchiveEvent); err != nil {
				log.WithFields(map[string]interface{}{
					"dateTime": ev.DateTime,
					"interval": ev.Interval,
				}).Errorf("error handling archive event: %v", err)
			}

		case cfg := <-d.reloads:
			d.apply(cfg)
		}
	}
}

func (d *Daemon) apply(cfg *config.Config) {
	next := cfg.ProcessMonitor
	cur := &d.cfg.ProcessMonitor

	d.monitor.SetProcess(next.Process, next.Pid)
	d.monitor.SetMaxAge(next.MaxAge.Seconds())
	cur.Process, cur.Pid, cur.MaxAge = next.Process, next.Pid, next.MaxAge

	log.WithFields(map[string]interface{}{
		"process": next.Process,
		"pid":     next.Pid,
		"max-age": next.MaxAge.Seconds(),
	}).Info("applied configuration change")

	oldPath, oldTable, _ := d.cfg.Archive()
	newPath, newTable, _ := cfg.Archive()
	if oldPath != newPath || oldTable != newTable || next.Trigger != cur.Trigger ||
		next.Provider != cur.Provider || next.StatusAddr != cur.StatusAddr {
		log.Warn("changes to data binding, trigger, provider or status address require a restart")
	}
}

func (d *Daemon) stopSource() {
	go func() {
		for range d.source.Events {
		}
	}()

	done := make(chan error, 1)
	go func() { done <- d.source.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			log.Debugf("error stopping archive event source: %v", err)
		}
	case <-time.After(d.opts.StopTimeout):
		log.Warn("archive event source did not stop in time")
	}
}
