// Package postgres implements the repository interfaces on PostgreSQL through GORM.
//
// It mirrors the sqlite package: one DB owns the pool and hands out a
// repository per collection. Rows are mapped through private record types so
// the model package stays free of gorm tags.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sakif/organlink/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// uniqueViolation is the SQLSTATE Postgres reports for a UNIQUE clash.
const uniqueViolation = "23505"

// DB wraps a *gorm.DB.
type DB struct {
	gdb *gorm.DB
}

// Open connects to dsn, verifies the connection and migrates the schema.
func Open(ctx context.Context, dsn string) (*DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	gdb, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: getting database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("postgres: pinging: %w", err)
	}

	db := &DB{gdb: gdb}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) Users() repository.UserRepository       { return &UserDB{gdb: db.gdb} }
func (db *DB) Organs() repository.OrganRepository     { return &OrganDB{gdb: db.gdb} }
func (db *DB) Requests() repository.RequestRepository { return &RequestDB{gdb: db.gdb} }

// migrate creates or alters tables to match the record types. Order matters:
// referenced tables first.
func (db *DB) migrate(ctx context.Context) error {
	return db.gdb.WithContext(ctx).AutoMigrate(
		&userRecord{},
		&chatTurnRecord{},
		&organRecord{},
		&requestRecord{},
	)
}

// isUniqueViolation reports whether err carries SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// orderBy renders a SortOrder for gorm's Order().
func orderBy(o repository.SortOrder) string {
	if o == repository.OldestFirst {
		return "created_at ASC, id ASC"
	}
	return "created_at DESC, id DESC"
}
