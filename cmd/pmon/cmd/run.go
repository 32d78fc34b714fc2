package cmd

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/pmon/pkg/daemon"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Records memory usage on every archive event until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		d, err := daemon.New(cfg, daemon.WithConfigFile(configFile))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := d.Run(ctx); err != nil {
			return err
		}
		log.Info("recorder stopped")
		return nil
	},
}
