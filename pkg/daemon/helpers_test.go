package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/gomega"

	"github.com/voluzi/pmon/internal/config"
	"github.com/voluzi/pmon/pkg/sampler"
)

type stepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

type fakeProvider struct {
	mu      sync.Mutex
	filters []string
}

func (p *fakeProvider) Sample(_ context.Context, _ int, nameFilter string) (sampler.ProcessMemory, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filters = append(p.filters, nameFilter)
	return sampler.ProcessMemory{VSZ: 150000, RSS: 40000}, nil
}

func (p *fakeProvider) Filters() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.filters...)
}

type fakeHost struct{}

func (fakeHost) Read() (sampler.HostMemory, error) {
	return sampler.HostMemory{
		MemTotal:  8000,
		MemFree:   2000,
		MemUsed:   6000,
		SwapTotal: 1000,
		SwapFree:  400,
		SwapUsed:  600,
	}, nil
}

func freeAddr() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer l.Close()
	return l.Addr().String()
}

func writeConfig(dir, process, statusAddr string) (string, *config.Config) {
	trigger := filepath.Join(dir, "events.jsonl")
	if _, err := os.Stat(trigger); os.IsNotExist(err) {
		Expect(os.WriteFile(trigger, nil, 0o644)).To(Succeed())
	}

	path := filepath.Join(dir, "pmon.conf")
	body := fmt.Sprintf(`
[ProcessMonitor]
process = %q
max_age = "30d"
trigger = %q
status_addr = %q

[Databases.pmon_sqlite]
database_name = %q
`, process, trigger, statusAddr, filepath.Join(dir, "pmon.sdb"))
	Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())

	cfg, err := config.Load(path)
	Expect(err).NotTo(HaveOccurred())
	return path, cfg
}

func appendEvent(cfg *config.Config, dateTime, interval int64) {
	f, err := os.OpenFile(cfg.ProcessMonitor.Trigger, os.O_APPEND|os.O_WRONLY, 0o644)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	_, err = fmt.Fprintf(f, "{\"dateTime\": %d, \"interval\": %d}\n", dateTime, interval)
	Expect(err).NotTo(HaveOccurred())
}
