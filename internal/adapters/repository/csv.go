package repository

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okian/fahstats/internal/domain/record"
)

const csvFileMode = 0o644

// CSVSink is the append-only tabular history file. Lines end in CRLF like
// files written by Python's csv module.
type CSVSink struct {
	path        string
	writeHeader bool
}

// NewCSVSink returns a sink appending to path.
func NewCSVSink(path string, opts ...CSVOption) *CSVSink {
	s := &CSVSink{
		path:        path,
		writeHeader: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the history file path.
func (s *CSVSink) Path() string { return s.path }

// Append writes one row at the end of the file, creating it when missing.
// The header is written first only when enabled and the file is empty.
func (s *CSVSink) Append(ctx context.Context, row record.Row) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCSVWrite, err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, csvFileMode)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrCSVWrite, s.path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrCSVWrite, s.path, err)
	}

	bufw := bufio.NewWriter(f)
	w := csv.NewWriter(bufw)
	w.UseCRLF = true
	if s.writeHeader && fi.Size() == 0 {
		if err := w.Write(record.Columns); err != nil {
			return fmt.Errorf("%w: header: %w", ErrCSVWrite, err)
		}
	}
	if err := w.Write(row.Record()); err != nil {
		return fmt.Errorf("%w: row: %w", ErrCSVWrite, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrCSVWrite, err)
	}
	if err := bufw.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrCSVWrite, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %w", ErrCSVWrite, err)
	}
	return f.Close()
}

// ReadRows returns every stored row in file order. A header line, if present,
// is skipped. A missing file yields no rows.
func (s *CSVSink) ReadRows(ctx context.Context) ([]record.Row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrCSVRead, s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	var rows []record.Row
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCSVRead, err)
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %w", ErrCSVRead, filepath.Base(s.path), line, err)
		}
		if record.IsHeader(rec) {
			continue
		}
		row, err := record.ParseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %w", ErrCSVRead, filepath.Base(s.path), line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
