package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/config"
	"github.com/anvika-shop/storefront/internal/repository"
)

//go:embed schema.sql
var schemaSQL string

// dbtx is satisfied by both *sql.DB and *sql.Tx so every repository can run
// either directly or inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// NewConnection opens a Postgres connection pool
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// EnsureSchema applies the embedded schema. Statements are idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Store binds every repository to one *sql.DB and runs transactional units
// of work.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	repos  *repository.Repositories
}

// NewStore creates a Store backed by the given connection pool
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
		repos:  newRepositories(db, logger),
	}
}

// Repos returns the repositories bound to the connection pool
func (s *Store) Repos() *repository.Repositories {
	return s.repos
}

// WithinTx runs fn with repositories bound to a single transaction. Any
// error from fn rolls the transaction back; no partial state survives.
func (s *Store) WithinTx(ctx context.Context, fn func(*repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(newRepositories(tx, s.logger)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func newRepositories(db dbtx, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Users:    NewUserRepository(db, logger),
		Products: NewProductRepository(db, logger),
		Orders:   NewOrderRepository(db, logger),
		Coupons:  NewCouponRepository(db, logger),
		Configs:  NewConfigRepository(db, logger),
		Reviews:  NewReviewRepository(db, logger),
	}
}
