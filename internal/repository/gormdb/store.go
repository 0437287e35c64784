// Package gormdb is the relational implementation of repository.Store. It runs
// on Postgres in production and on SQLite for development and tests.
package gormdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
)

// Postgres error codes retried as conflicts.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// Store implements repository.Store on top of gorm.
type Store struct {
	db      *gorm.DB
	locking bool
	logger  *zap.Logger
}

// New wraps an open gorm handle. Row locks are only issued on dialects that
// support SELECT ... FOR UPDATE.
func New(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:      db,
		locking: db.Dialector.Name() == DriverPostgres,
		logger:  log,
	}
}

// DB exposes the underlying handle for seeding and diagnostics.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Atomic runs fn in a single database transaction.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(ctx, &txn{db: gtx, locking: s.locking})
	})
	return translate(err)
}

// Close releases the connection pool.
func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type txn struct {
	db      *gorm.DB
	locking bool
}

var _ repository.Tx = (*txn)(nil)

// forUpdate returns a query that write-locks the selected rows.
func (t *txn) forUpdate() *gorm.DB {
	if !t.locking {
		return t.db
	}
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *txn) live() *gorm.DB {
	return t.db.Where("is_deleted = ?", false)
}

// bumpVersion increments a version column guarded by the expected value.
func (t *txn) bumpVersion(model interface{}, entity, id string, version int64) error {
	res := t.db.Model(model).
		Where("id = ? AND version = ?", id, version).
		UpdateColumn("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return fmt.Errorf("bump %s version: %w", entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Conflict(entity, id, errors.New("stale version"))
	}
	return nil
}

func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NotFound(entity, id)
	}
	return fmt.Errorf("load %s %s: %w", entity, id, err)
}

// translate maps driver-level concurrency failures onto models.ErrConflict.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *models.Error
	if errors.As(err, &domainErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return models.Conflict("transaction", "", err)
		}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked {
			return models.Conflict("transaction", "", err)
		}
	}
	return err
}
