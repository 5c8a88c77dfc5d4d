package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/fahstats/internal/domain/record"
)

const (
	defaultPGTable          = "fah_history"
	defaultPGConnectTimeout = 10 * time.Second
)

// execer is the part of a pgx pool the sink needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink inserts history rows into a pre-provisioned table:
//
//	CREATE TABLE fah_history (
//	    captured_on date   NOT NULL,
//	    rank        bigint NOT NULL,
//	    total_users bigint NOT NULL,
//	    credit      bigint NOT NULL,
//	    work_units  bigint NOT NULL
//	);
//
// Rows are plain inserts; repeated runs produce repeated rows.
type PostgresSink struct {
	dsn            string
	table          string
	connectTimeout time.Duration

	// connect opens the database; replaced in tests.
	connect func(ctx context.Context) (execer, func(), error)
}

// NewPostgresSink returns a sink for dsn.
func NewPostgresSink(dsn string, opts ...PostgresOption) *PostgresSink {
	s := &PostgresSink{
		dsn:            dsn,
		table:          defaultPGTable,
		connectTimeout: defaultPGConnectTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.connect = s.openPool
	return s
}

func (s *PostgresSink) openPool(ctx context.Context) (execer, func(), error) {
	cfg, err := pgxpool.ParseConfig(s.dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 1
	cfg.ConnConfig.ConnectTimeout = s.connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return pool, pool.Close, nil
}

// InsertSQL returns the statement used for one row.
func (s *PostgresSink) InsertSQL() string {
	return `INSERT INTO ` + quoteTable(s.table) + `
		(captured_on, rank, total_users, credit, work_units)
		VALUES ($1, $2, $3, $4, $5)`
}

// Insert stores row.
func (s *PostgresSink) Insert(ctx context.Context, row record.Row) error {
	day, err := time.Parse(record.DateLayout, row.Date)
	if err != nil {
		return fmt.Errorf("%w: date %q: %w", ErrPostgresWrite, row.Date, err)
	}

	db, closeDB, err := s.connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPostgresWrite, err)
	}
	defer closeDB()

	tag, err := db.Exec(ctx, s.InsertSQL(), day, row.Rank, row.OutOf, row.Score, row.WU)
	if err != nil {
		return fmt.Errorf("%w: insert into %s: %w", ErrPostgresWrite, s.table, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: insert into %s affected %d rows", ErrPostgresWrite, s.table, tag.RowsAffected())
	}
	return nil
}

// quoteTable quotes an optionally schema-qualified table name.
func quoteTable(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}
