// Package config loads the pmon configuration file, applies environment
// overrides and watches the file for changes.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
)

const (
	ProviderPs       = "ps"
	ProviderGopsutil = "gopsutil"

	DefaultDataBinding = "pmon_binding"
	DefaultDatabase    = "pmon_sqlite"
	DefaultTable       = "archive"
	DefaultArchivePath = "/var/lib/weewx/pmon.sdb"
	DefaultTrigger     = "/var/run/pmon/archive.fifo"
	DefaultStatusAddr  = "127.0.0.1:8765"
	DefaultMeminfo     = "/proc/meminfo"
	DefaultProcess     = "weewxd"
	DefaultMaxAge      = 2592000 * time.Second
	DefaultPsTimeout   = 5 * time.Second
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	LogLevel       string                 `toml:"log_level"`
	ProcessMonitor MonitorConfig          `toml:"ProcessMonitor"`
	DataBindings   map[string]DataBinding `toml:"DataBindings"`
	Databases      map[string]Database    `toml:"Databases"`
}

// MonitorConfig is the [ProcessMonitor] stanza.
type MonitorConfig struct {
	Process     string   `toml:"process"`
	// Pid 0 looks the process up by name.
	Pid         int      `toml:"pid"`
	MaxAge      Duration `toml:"max_age"`
	DataBinding string   `toml:"data_binding"`
	Provider    string   `toml:"provider"`
	PsTimeout   Duration `toml:"ps_timeout"`
	Meminfo     string   `toml:"meminfo"`
	Trigger     string   `toml:"trigger"`
	CreateFifo  bool     `toml:"create_fifo"`
	StatusAddr  string   `toml:"status_addr"`
}

type DataBinding struct {
	Database  string `toml:"database"`
	TableName string `toml:"table_name"`
}

type Database struct {
	DatabaseName string `toml:"database_name"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"log_level": "info",
		"ProcessMonitor": map[string]interface{}{
			"process":      DefaultProcess,
			"pid":          0,
			"max_age":      int64(DefaultMaxAge / time.Second),
			"data_binding": DefaultDataBinding,
			"provider":     ProviderPs,
			"ps_timeout":   DefaultPsTimeout.String(),
			"meminfo":      DefaultMeminfo,
			"trigger":      DefaultTrigger,
			"create_fifo":  false,
			"status_addr":  DefaultStatusAddr,
		},
		"DataBindings": map[string]interface{}{
			DefaultDataBinding: map[string]interface{}{
				"database":   DefaultDatabase,
				"table_name": DefaultTable,
			},
		},
		"Databases": map[string]interface{}{
			DefaultDatabase: map[string]interface{}{
				"database_name": DefaultArchivePath,
			},
		},
	}
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	return build(nil)
}

// Load reads a TOML or YAML file (by extension), merges it over the defaults
// and applies PMON_* environment overrides. An empty path yields the
// defaults plus overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		return build(nil)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading configuration file")
	}

	var parsed interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parsed, err = yamlDecode(string(body))
	default:
		parsed, err = tomlDecode(string(body))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return build(parsed)
}

func build(patch interface{}) (*Config, error) {
	var merged interface{} = defaults()
	if patch != nil {
		var err error
		if merged, err = merge(merged, patch); err != nil {
			return nil, errors.Wrap(err, "merging configuration")
		}
	}

	encoded, err := tomlEncode(merged)
	if err != nil {
		return nil, errors.Wrap(err, "encoding configuration")
	}

	cfg := &Config{}
	if _, err := toml.Decode(encoded, cfg); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	pm := &c.ProcessMonitor
	c.LogLevel = GetString("LOG_LEVEL", c.LogLevel)
	pm.Process = GetString("PROCESS", pm.Process)
	pm.MaxAge = Duration(GetDuration("MAX_AGE", pm.MaxAge.Duration()))
	pm.Trigger = GetString("TRIGGER", pm.Trigger)
	pm.StatusAddr = GetString("STATUS_ADDR", pm.StatusAddr)

	if path, ok := lookupEnv("DATABASE"); ok {
		if binding, found := c.DataBindings[pm.DataBinding]; found {
			if c.Databases == nil {
				c.Databases = map[string]Database{}
			}
			c.Databases[binding.Database] = Database{DatabaseName: path}
		}
	}
}

func (c *Config) Validate() error {
	pm := c.ProcessMonitor
	if pm.Provider != ProviderPs && pm.Provider != ProviderGopsutil {
		return errors.WithDetails(ErrInvalid, "reason", "unknown provider", "provider", pm.Provider)
	}
	if pm.Pid < 0 {
		return errors.WithDetails(ErrInvalid, "reason", "negative pid", "pid", pm.Pid)
	}
	if pm.PsTimeout <= 0 {
		return errors.WithDetails(ErrInvalid, "reason", "ps_timeout must be positive")
	}
	_, _, err := c.Archive()
	return err
}

// Archive resolves the data binding to the database file and table name.
func (c *Config) Archive() (path, table string, err error) {
	binding, ok := c.DataBindings[c.ProcessMonitor.DataBinding]
	if !ok {
		return "", "", errors.WithDetails(ErrInvalid, "reason", "unknown data binding", "binding", c.ProcessMonitor.DataBinding)
	}
	db, ok := c.Databases[binding.Database]
	if !ok || db.DatabaseName == "" {
		return "", "", errors.WithDetails(ErrInvalid, "reason", "unknown database", "database", binding.Database)
	}
	table = binding.TableName
	if table == "" {
		table = DefaultTable
	}
	return db.DatabaseName, table, nil
}

