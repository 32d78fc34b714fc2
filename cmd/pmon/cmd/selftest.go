package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/voluzi/pmon/internal/store"
	"github.com/voluzi/pmon/pkg/daemon"
	"github.com/voluzi/pmon/pkg/pmon"
	"github.com/voluzi/pmon/pkg/record"
	"github.com/voluzi/pmon/pkg/sampler"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Samples three times with manufactured timestamps and prints the records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		dir, err := os.MkdirTemp("", "pmon-selftest")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		st, err := store.Open(filepath.Join(dir, "selftest.sdb"), "archive", record.DefaultSchema, true)
		if err != nil {
			return err
		}

		pm := cfg.ProcessMonitor
		m := pmon.New(st,
			pmon.WithProcess(pm.Process),
			pmon.WithPid(pm.Pid),
			pmon.WithProcessProvider(daemon.NewProvider(pm)),
			pmon.WithHostMemory(sampler.NewHostMemoryReader(pm.Meminfo)),
		)
		defer m.Shutdown()

		if err := m.Initialize(cmd.Context()); err != nil {
			return err
		}
		start := time.Now().Round(time.Second).Unix()
		_, err = pmon.RunSelfTest(cmd.Context(), m, cmd.OutOrStdout(), start)
		return err
	},
}
