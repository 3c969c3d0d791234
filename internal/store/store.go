// Package store is the gorm-backed persistence layer. Every query the service
// issues lives here so the same code runs on Postgres and on SQLite.
package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"atspro/internal/config"
	"atspro/internal/errors"
	"atspro/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = stderrors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = stderrors.New("duplicate record")
)

// Store wraps a gorm handle. Inside Transaction the handle is the tx.
type Store struct {
	db     *gorm.DB
	logger *errors.Logger
}

// Open connects to the configured database and applies pool settings.
func Open(cfg config.DatabaseConfig, log *errors.Logger) (*Store, error) {
	if log == nil {
		log = errors.NewNopLogger()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.ConnectionString())
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.ConnectionString()))
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported database driver: %s", cfg.Driver), nil)
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Silent),
	}
	if cfg.LogQueries {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeDatabase, "failed to connect to database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeDatabase, "failed to access connection pool", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Info("Connected to database", "driver", cfg.Driver)
	return &Store{db: db, logger: log}, nil
}

// sqliteDSN turns on foreign keys and a busy timeout unless the caller set
// pragmas explicitly.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// New wraps an existing gorm handle.
func New(db *gorm.DB, log *errors.Logger) *Store {
	if log == nil {
		log = errors.NewNopLogger()
	}
	return &Store{db: db, logger: log}
}

// Migrate creates or upgrades every table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return errors.NewInternalError(errors.ErrCodeDatabase, "schema migration failed", err)
	}
	s.logger.Info("Database schema migrated", "tables", len(models.All()))
	return nil
}

// Ping checks the connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn inside a database transaction. fn must only use the
// Store it is given.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, logger: s.logger})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// wrap normalises gorm errors into ErrNotFound / ErrDuplicate.
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isDuplicate(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isDuplicate(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}

// Day formats t as the calendar-day key used by analytics tables.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
