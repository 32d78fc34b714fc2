package cmd

import (
	"fmt"
	"sort"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/voluzi/pmon/pkg/pmon"
	"github.com/voluzi/pmon/pkg/status"
	"github.com/voluzi/pmon/pkg/units"
)

var statusAddr string
var asJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints the last record archived by a running recorder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := statusAddr
		if addr == "" {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			addr = cfg.ProcessMonitor.StatusAddr
		}
		if addr == "" {
			return errors.New("status server is disabled; pass --addr")
		}

		rec, err := status.NewClient(addr).LastRecord(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			b, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}

		reg := units.NewRegistry()
		pmon.RegisterUnits(reg)

		fmt.Fprintf(out, "dateTime: %d\ninterval: %d\n", rec.DateTime, rec.Interval)
		fields := rec.Fields()
		desc := pmon.Describe(reg, *rec)
		keys := make([]string, 0, len(desc))
		for k := range desc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			human, err := reg.Humanize(float64(fields[k]), pmon.UnitKB)
			if err != nil {
				human = "-"
			}
			fmt.Fprintf(out, "%s: %s (%s)\n", k, desc[k], human)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "",
		"Status server address. Defaults to status_addr from the configuration",
	)
	statusCmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw record as JSON")
}
