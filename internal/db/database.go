//go:generate mockgen -source ./database.go -destination=./mocks/database.go -package=mock_database
package db

import (
	"context"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type DB interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	ExecQueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	BeginTx(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
}

// Tx is a read-committed transaction. Listing mutations lock rows through it
// with SELECT ... FOR UPDATE.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// querier is what both the pool and a pgx transaction offer.
type querier interface {
	pgxscan.Querier
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type scanner struct {
	q querier
}

func (s scanner) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return pgxscan.Get(ctx, s.q, dest, query, args...)
}

func (s scanner) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return pgxscan.Select(ctx, s.q, dest, query, args...)
}

func (s scanner) Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error) {
	return s.q.Exec(ctx, query, args...)
}

func (s scanner) ExecQueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row {
	return s.q.QueryRow(ctx, query, args...)
}

type Database struct {
	scanner
	pool *pgxpool.Pool
}

func NewDatabase(pool *pgxpool.Pool) *Database {
	return &Database{scanner: scanner{q: pool}, pool: pool}
}

func (d *Database) GetPool() *pgxpool.Pool {
	return d.pool
}

func (d *Database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *Database) Close() {
	d.pool.Close()
}

func (d *Database) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	return &transaction{scanner: scanner{q: tx}, tx: tx}, nil
}

type transaction struct {
	scanner
	tx pgx.Tx
}

func (t *transaction) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *transaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
