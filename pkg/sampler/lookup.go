package sampler

import (
	"context"
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/jellydator/ttlcache/v3"
	"github.com/shirou/gopsutil/process"
)

// NameLookupProvider samples by name when no pid is given: pid 0 resolves to
// the first other process whose name or command line contains the filter.
// Resolved pids are cached until a sample of them fails.
type NameLookupProvider struct {
	inner ProcessMetricsProvider
	find  func(ctx context.Context, nameFilter string) (int, error)
	pids  *ttlcache.Cache[string, int]
}

var _ ProcessMetricsProvider = (*NameLookupProvider)(nil)

func NewNameLookupProvider(inner ProcessMetricsProvider, ttl time.Duration) *NameLookupProvider {
	if ttl <= 0 {
		ttl = DefaultProcessCacheTTL
	}
	return &NameLookupProvider{
		inner: inner,
		find:  FindProcessByName,
		pids: ttlcache.New[string, int](
			ttlcache.WithTTL[string, int](ttl),
		),
	}
}

func (p *NameLookupProvider) Sample(ctx context.Context, pid int, nameFilter string) (ProcessMemory, error) {
	if pid > 0 {
		return p.inner.Sample(ctx, pid, nameFilter)
	}

	if item := p.pids.Get(nameFilter); item != nil {
		pid = item.Value()
	} else {
		found, err := p.find(ctx, nameFilter)
		if err != nil {
			return ProcessMemory{}, err
		}
		pid = found
		p.pids.Set(nameFilter, pid, ttlcache.DefaultTTL)
	}

	mem, err := p.inner.Sample(ctx, pid, nameFilter)
	if err != nil {
		p.pids.Delete(nameFilter)
	}
	return mem, err
}

// FindProcessByName returns the pid of the first process other than the
// caller whose name or command line contains nameFilter.
func FindProcessByName(ctx context.Context, nameFilter string) (int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list processes")
	}

	self := int32(os.Getpid())
	for _, proc := range procs {
		if proc.Pid == self {
			continue
		}
		if ok, err := processMatches(ctx, proc, nameFilter); err == nil && ok {
			return int(proc.Pid), nil
		}
	}
	return 0, errors.WithDetails(ErrProcessNotFound, "filter", nameFilter)
}
