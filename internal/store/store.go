// Package store is the SQLite archive backing the recorder.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"emperror.dev/errors"
	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/voluzi/pmon/pkg/record"
)

const DefaultTable = "archive"

var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is an append-only archive table in a SQLite database.
type Store struct {
	db    *gorm.DB
	table string
}

// Open opens the database at path. When initialize is set the archive table
// is created from schema if it does not exist yet.
func Open(path, table string, schema record.Schema, initialize bool) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validIdentifier.MatchString(table) {
		return nil, errors.Errorf("invalid table name %q", table)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open database %s", path)
	}

	s := &Store{db: db, table: table}
	if initialize {
		if err := s.createTable(schema); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	log.WithFields(map[string]interface{}{
		"database": path,
		"table":    table,
	}).Debug("opened archive")
	return s, nil
}

func (s *Store) createTable(schema record.Schema) error {
	cols := make([]string, 0, len(schema))
	for _, c := range schema {
		if !validIdentifier.MatchString(c.Name) {
			return errors.Errorf("invalid column name %q", c.Name)
		}
		cols = append(cols, fmt.Sprintf("%q %s", c.Name, c.Type))
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", s.table, strings.Join(cols, ", "))
	return errors.Wrap(s.db.Exec(stmt).Error, "create archive table")
}

// Table returns the archive table name.
func (s *Store) Table() string {
	return s.table
}

// Columns returns the column names of the archive table in table order.
func (s *Store) Columns(ctx context.Context) ([]string, error) {
	var cols []string
	err := s.db.WithContext(ctx).
		Raw("SELECT name FROM pragma_table_info(?) ORDER BY cid", s.table).
		Scan(&cols).Error
	if err != nil {
		return nil, errors.Wrapf(err, "read columns of %s", s.table)
	}
	return cols, nil
}

// AddRecord appends rec. A record with an existing DateTime is rejected.
func (s *Store) AddRecord(ctx context.Context, rec record.Record) error {
	err := s.db.WithContext(ctx).Table(s.table).Create(&rec).Error
	return errors.Wrapf(err, "add record %d", rec.DateTime)
}

// DeleteBefore removes every record with DateTime older than cutoff and
// returns how many were removed.
func (s *Store) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	res := s.db.WithContext(ctx).Table(s.table).
		Where(`"dateTime" < ?`, cutoff).
		Delete(&record.Record{})
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "delete records before %d", cutoff)
	}
	return res.RowsAffected, nil
}

// Compact reclaims space left by deleted records.
func (s *Store) Compact(ctx context.Context) error {
	return errors.Wrap(s.db.WithContext(ctx).Exec("VACUUM").Error, "vacuum")
}

// Records returns every record with DateTime at or after since, oldest first.
func (s *Store) Records(ctx context.Context, since int64) ([]record.Record, error) {
	var out []record.Record
	err := s.db.WithContext(ctx).Table(s.table).
		Where(`"dateTime" >= ?`, since).
		Order(`"dateTime" ASC`).
		Find(&out).Error
	if err != nil {
		return nil, errors.Wrap(err, "read records")
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
