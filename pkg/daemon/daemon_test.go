package daemon

import (
	"context"
	"time"

	"emperror.dev/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/voluzi/pmon/internal/config"
	"github.com/voluzi/pmon/internal/store"
	"github.com/voluzi/pmon/pkg/pmon"
	"github.com/voluzi/pmon/pkg/record"
	"github.com/voluzi/pmon/pkg/sampler"
	"github.com/voluzi/pmon/pkg/status"
)

const t0 = int64(1700000000)

var _ = Describe("Daemon", func() {
	var (
		dir      string
		provider *fakeProvider
		clock    *stepClock
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		provider = &fakeProvider{}
		clock = &stepClock{next: time.Unix(t0, 0), step: 300 * time.Second}
	})

	newDaemon := func(cfg *config.Config) *Daemon {
		d, err := New(cfg, WithStopTimeout(2*time.Second), WithMonitorOptions(
			pmon.WithProcessProvider(provider),
			pmon.WithHostMemory(fakeHost{}),
			pmon.WithPeakRSS(func() int64 { return 20480 }),
			pmon.WithClock(clock.Now),
		))
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	Context("running", func() {
		It("archives one record per archive event after the first", func() {
			addr := freeAddr()
			_, cfg := writeConfig(dir, "weewxd", addr)
			d := newDaemon(cfg)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- d.Run(ctx) }()

			By("sending the baseline event and a regular event")
			appendEvent(cfg, t0, 5)
			appendEvent(cfg, t0+300, 5)

			client := status.NewClient(addr)
			Eventually(func(g Gomega) {
				rec, err := client.LastRecord(context.Background())
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(rec.DateTime).To(Equal(t0 + 300))
			}).Should(Succeed())

			By("sending a stale event and another regular event")
			appendEvent(cfg, 1, 5)
			appendEvent(cfg, t0+900, 5)

			Eventually(func(g Gomega) {
				rec, err := client.LastRecord(context.Background())
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(rec.DateTime).To(Equal(t0 + 900))
				// the stale event left the baseline at t0+300
				g.Expect(rec.Interval).To(Equal(int64(10)))
				g.Expect(*rec.MemRSS).To(Equal(int64(40000)))
				g.Expect(*rec.SwapUsed).To(Equal(int64(600)))
				g.Expect(rec.ResRSS).To(Equal(int64(20480)))
			}).Should(Succeed())

			fams, err := client.Metrics(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(fams).To(HaveKey("pmon_mem_used_kilobytes"))

			cancel()
			Eventually(done).Should(Receive(BeNil()))

			By("reading the archive back")
			path, table, err := cfg.Archive()
			Expect(err).NotTo(HaveOccurred())
			st, err := store.Open(path, table, record.DefaultSchema, false)
			Expect(err).NotTo(HaveOccurred())
			defer st.Close()

			records, err := st.Records(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[0].DateTime).To(Equal(t0 + 300))
			Expect(records[0].Interval).To(Equal(int64(5)))
			Expect(records[1].DateTime).To(Equal(t0 + 900))
			Expect(provider.Filters()).To(ConsistOf("weewxd", "weewxd"))
		})

		It("runs without a status server", func() {
			_, cfg := writeConfig(dir, "weewxd", "")
			d := newDaemon(cfg)
			Expect(d.status).To(BeNil())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- d.Run(ctx) }()

			appendEvent(cfg, t0, 5)
			appendEvent(cfg, t0+300, 5)
			Eventually(func() bool {
				_, ok := d.Monitor().LastRecord()
				return ok
			}).Should(BeTrue())

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})

	Context("initialization", func() {
		It("refuses to start on a mismatching archive", func() {
			_, cfg := writeConfig(dir, "weewxd", "")
			path, table, err := cfg.Archive()
			Expect(err).NotTo(HaveOccurred())

			st, err := store.Open(path, table, record.DefaultSchema[:3], true)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Close()).To(Succeed())

			d := newDaemon(cfg)
			err = d.Run(context.Background())
			Expect(errors.Is(err, pmon.ErrSchemaMismatch)).To(BeTrue())
			Expect(provider.Filters()).To(BeEmpty())
		})

		It("rejects an unknown data binding", func() {
			_, cfg := writeConfig(dir, "weewxd", "")
			cfg.ProcessMonitor.DataBinding = "missing"
			_, err := New(cfg)
			Expect(errors.Is(err, config.ErrInvalid)).To(BeTrue())
		})
	})

	Context("process provider", func() {
		It("resolves unset pids by name for both providers", func() {
			for _, name := range []string{config.ProviderPs, config.ProviderGopsutil} {
				p := NewProvider(config.MonitorConfig{Provider: name, PsTimeout: config.Duration(time.Second)})
				Expect(p).To(BeAssignableToTypeOf(&sampler.NameLookupProvider{}))
			}
		})
	})

	Context("configuration reload", func() {
		It("applies process and retention changes to the monitor", func() {
			_, cfg := writeConfig(dir, "weewxd", "")
			d := newDaemon(cfg)
			defer d.monitor.Shutdown()
			defer d.source.Stop()

			_, next := writeConfig(dir, "python3", "")
			next.ProcessMonitor.MaxAge = config.Duration(time.Hour)
			d.apply(next)

			Expect(d.cfg.ProcessMonitor.Process).To(Equal("python3"))
			Expect(d.cfg.ProcessMonitor.MaxAge.Seconds()).To(Equal(int64(3600)))

			Expect(d.monitor.Initialize(context.Background())).To(Succeed())
			d.monitor.Sample(context.Background(), t0+60, t0)
			Expect(provider.Filters()).To(Equal([]string{"python3"}))
		})
	})
})
