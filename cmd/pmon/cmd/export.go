package cmd

import (
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/pmon/internal/config"
	"github.com/voluzi/pmon/internal/store"
	"github.com/voluzi/pmon/pkg/export"
	"github.com/voluzi/pmon/pkg/record"
)

var since string
var blockSize string
var blocks int

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Writes archived records as gzip compressed JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var cutoff int64
		if since != "" {
			d, err := config.ParseDuration(since)
			if err != nil {
				return errors.Wrapf(err, "invalid --since %q", since)
			}
			cutoff = time.Now().Add(-d).Unix()
		}

		path, table, err := cfg.Archive()
		if err != nil {
			return err
		}
		st, err := store.Open(path, table, record.DefaultSchema, false)
		if err != nil {
			return err
		}
		defer st.Close()

		start := time.Now()
		summary, err := export.ExportFile(cmd.Context(), st, args[0], cutoff,
			export.WithBlockSize(blockSize),
			export.WithBlocks(blocks),
		)
		if err != nil {
			return err
		}
		log.WithFields(map[string]interface{}{
			"file":         args[0],
			"records":      summary.Records,
			"time-elapsed": time.Since(start),
		}).Info("export successful")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&since, "since",
		config.GetString("EXPORT_SINCE", ""),
		"Only export records newer than this (e.g. 7d). Empty exports everything",
	)
	exportCmd.Flags().StringVar(&blockSize, "block-size",
		config.GetString("EXPORT_BLOCK_SIZE", export.DefaultBlockSize),
		"Size of each block compressed in parallel",
	)
	exportCmd.Flags().IntVar(&blocks, "blocks",
		config.GetInt("EXPORT_BLOCKS", export.DefaultBlocks),
		"Number of blocks compressed concurrently",
	)
}
