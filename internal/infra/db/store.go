package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"schnorrd/internal/config"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type Store struct {
	DB *gorm.DB
}

// NewStore opens postgres when POSTGRES_DSN is set. Without it the store runs in no-db
// mode and every repository reports errDBUnavailable.
func NewStore(cfg config.Config, log logrus.FieldLogger) (*Store, error) {
	if cfg.PostgresDSN == "" {
		if log != nil {
			log.Info("POSTGRES_DSN not set; postgres key store disabled")
		}
		return &Store{DB: nil}, nil
	}

	gdb, err := Open(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	return &Store{DB: gdb}, nil
}

func Open(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return gdb, nil
}

// Migrate applies the embedded migrations in file name order. Every statement is
// idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errDBUnavailable
	}
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		payload, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(payload)) == "" {
			continue
		}
		if err := s.DB.WithContext(ctx).Exec(string(payload)).Error; err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errDBUnavailable
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
