package sampler

import (
	"context"
	"os/exec"
	"strconv"
	"time"

	"emperror.dev/errors"
)

const DefaultPsTimeout = 5 * time.Second

// PsProvider samples a process by running `ps up <pid>`.
type PsProvider struct {
	timeout time.Duration
	run     func(ctx context.Context, pid int) ([]byte, error)
}

var _ ProcessMetricsProvider = (*PsProvider)(nil)

// NewPsProvider returns a provider whose ps invocation is killed after
// timeout. A non-positive timeout uses DefaultPsTimeout.
func NewPsProvider(timeout time.Duration) *PsProvider {
	if timeout <= 0 {
		timeout = DefaultPsTimeout
	}
	return &PsProvider{
		timeout: timeout,
		run:     runPs,
	}
}

func runPs(ctx context.Context, pid int) ([]byte, error) {
	return exec.CommandContext(ctx, "ps", "up", strconv.Itoa(pid)).Output()
}

func (p *PsProvider) Sample(ctx context.Context, pid int, nameFilter string) (ProcessMemory, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.run(ctx, pid)
	if ctx.Err() == context.DeadlineExceeded {
		return ProcessMemory{}, errors.WithDetails(ErrTimeout, "pid", pid, "timeout", p.timeout)
	}
	if err != nil {
		return ProcessMemory{}, errors.Wrapf(err, "ps up %d", pid)
	}
	return ParseProcessListing(out, nameFilter)
}
