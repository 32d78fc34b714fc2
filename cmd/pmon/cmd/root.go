package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/pmon/internal/config"
)

var logLevel string
var configFile string

var rootCmd = &cobra.Command{
	Use:   "pmon",
	Short: "Process and host memory recorder",
	Long: `pmon records the memory footprint of a monitored process and of the host
into an SQLite archive, one record per archive event.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(logLvl)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel,
		"log-level",
		config.GetString("LOG_LEVEL", "info"),
		"Log level. One of debug, info, warn, error, fatal, panic.",
	)
	rootCmd.PersistentFlags().StringVar(&configFile,
		"config",
		config.GetString("CONFIG", ""),
		"Configuration file (TOML, or YAML by extension). Defaults apply when empty.",
	)

	rootCmd.AddCommand(runCmd, selftestCmd, exportCmd, statusCmd)
}

// loadConfig reads the configuration and, unless --log-level was given,
// applies the file's log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
		if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
			log.SetLevel(lvl)
		}
	}
	return cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
