package config

import (
	"context"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/hashstructure/v2"
	log "github.com/sirupsen/logrus"
)

// Fingerprint hashes the [ProcessMonitor] stanza.
func (c *Config) Fingerprint() (uint64, error) {
	return hashstructure.Hash(c.ProcessMonitor, hashstructure.FormatV2, nil)
}

// Watch reloads path whenever it changes on disk and calls onChange with the
// new configuration when the [ProcessMonitor] stanza differs from current.
// Files that fail to load are logged and skipped. Watch blocks until ctx is
// done or the watcher fails.
func Watch(ctx context.Context, path string, current *Config, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	last, err := current.Fingerprint()
	if err != nil {
		return err
	}

	name := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("could not retrieve event")
			}
			if filepath.Clean(event.Name) != name || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				log.WithError(err).Warn("ignoring invalid configuration file")
				continue
			}
			hash, err := cfg.Fingerprint()
			if err != nil {
				return err
			}
			if hash == last {
				continue
			}
			last = hash
			log.WithField("file", path).Info("configuration changed")
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("could not retrieve error")
			}
			return err
		}
	}
}
