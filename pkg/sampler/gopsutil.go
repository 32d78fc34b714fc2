package sampler

import (
	"context"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/jellydator/ttlcache/v3"
	"github.com/shirou/gopsutil/process"
)

const DefaultProcessCacheTTL = 10 * time.Minute

// GopsutilProvider samples a process through a structured OS query instead of
// parsing command output. Process handles are cached per pid.
type GopsutilProvider struct {
	processes *ttlcache.Cache[int32, *process.Process]
}

var _ ProcessMetricsProvider = (*GopsutilProvider)(nil)

func NewGopsutilProvider(ttl time.Duration) *GopsutilProvider {
	if ttl <= 0 {
		ttl = DefaultProcessCacheTTL
	}
	return &GopsutilProvider{
		processes: ttlcache.New[int32, *process.Process](
			ttlcache.WithTTL[int32, *process.Process](ttl),
		),
	}
}

func (g *GopsutilProvider) getProcess(pid int32) (*process.Process, error) {
	if item := g.processes.Get(pid); item != nil {
		return item.Value(), nil
	}
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}
	g.processes.Set(pid, proc, ttlcache.DefaultTTL)
	return proc, nil
}

func (g *GopsutilProvider) Sample(ctx context.Context, pid int, nameFilter string) (ProcessMemory, error) {
	proc, err := g.getProcess(int32(pid))
	if err != nil {
		return ProcessMemory{}, errors.Wrapf(err, "find process %d", pid)
	}

	matches, err := processMatches(ctx, proc, nameFilter)
	if err != nil {
		g.processes.Delete(int32(pid))
		return ProcessMemory{}, err
	}
	if !matches {
		return ProcessMemory{}, errors.WithDetails(ErrProcessNotFound, "pid", pid, "filter", nameFilter)
	}

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		g.processes.Delete(int32(pid))
		return ProcessMemory{}, errors.Wrap(err, "failed to get memory info")
	}

	return ProcessMemory{
		VSZ: int64(mem.VMS / 1024),
		RSS: int64(mem.RSS / 1024),
	}, nil
}

func processMatches(ctx context.Context, proc *process.Process, nameFilter string) (bool, error) {
	name, err := proc.NameWithContext(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get process name")
	}
	if strings.Contains(name, nameFilter) {
		return true, nil
	}
	cmdline, err := proc.CmdlineWithContext(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get process cmdline")
	}
	return strings.Contains(cmdline, nameFilter), nil
}
