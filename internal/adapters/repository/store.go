// Package repository defines the history sinks a snapshot is written to.
package repository

import (
	"context"

	"github.com/okian/fahstats/internal/domain/record"
)

// Sink names used in logs and metrics.
const (
	SinkCSV      = "csv"
	SinkInflux   = "influx"
	SinkPostgres = "postgres"
)

// RowAppender appends tabular history rows.
type RowAppender interface {
	// Append writes one row at the end of the history.
	Append(ctx context.Context, row record.Row) error
}

// RowReader reads the tabular history back.
type RowReader interface {
	ReadRows(ctx context.Context) ([]record.Row, error)
}

// PointWriter stores time-series points.
type PointWriter interface {
	WritePoint(ctx context.Context, p record.Point) error
}

// HistoryInserter stores a snapshot row in a relational table.
type HistoryInserter interface {
	Insert(ctx context.Context, row record.Row) error
}
