package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/wanderai/api-server/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Replicas start together on deploy; the advisory lock keeps their DDL
// from interleaving.
const migrateLockKey = 0x77616e646572 // "wander"

type DB struct {
	*sqlx.DB
}

// Connect opens the session store pool and verifies it answers within ctx.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect session store: %w", err)
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(config.DBConnMaxLifetime)

	return &DB{db}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Migrate applies the embedded chat_sessions schema. Statements are
// idempotent and run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	return db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", migrateLockKey); err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		log.Debug().Msg("session schema applied")
		return nil
	})
}

type TxFunc func(tx *sqlx.Tx) error

// WithTx runs fn in a transaction, committing only if fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn TxFunc) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
