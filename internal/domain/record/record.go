// Package record projects a snapshot into the shapes each sink stores.
//
// The tabular row and the time-series point deliberately use different time
// formats: the row keeps only the calendar date, the point pins the date to a
// fixed 11:00 UTC timestamp regardless of when the snapshot was taken.
package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/fahstats/internal/domain/model"
)

// DateLayout is the tabular Date column format (MM/DD/YYYY).
const DateLayout = "01/02/2006"

// pointHour is appended to the capture date for time-series points.
const pointHour = "T11:00:00Z"

// Column and field names shared by all sinks.
const (
	ColumnDate  = "Date"
	ColumnRank  = "Rank"
	ColumnOutOf = "Out Of"
	ColumnScore = "Score"
	ColumnWU    = "WU"
)

// Columns is the fixed column order of the tabular sink.
var Columns = []string{ColumnDate, ColumnRank, ColumnOutOf, ColumnScore, ColumnWU}

// Row is one line of the tabular history.
type Row struct {
	Date  string
	Rank  int64
	OutOf int64
	Score int64
	WU    int64
}

// NewRow builds the tabular projection of a snapshot.
func NewRow(s model.Snapshot) Row {
	return Row{
		Date:  s.CapturedAt.Format(DateLayout),
		Rank:  s.Rank,
		OutOf: s.TotalUsers,
		Score: s.Credit,
		WU:    s.WorkUnits,
	}
}

// Record returns the row's cells in Columns order.
func (r Row) Record() []string {
	return []string{
		r.Date,
		strconv.FormatInt(r.Rank, 10),
		strconv.FormatInt(r.OutOf, 10),
		strconv.FormatInt(r.Score, 10),
		strconv.FormatInt(r.WU, 10),
	}
}

// IsHeader reports whether rec is the column header line.
func IsHeader(rec []string) bool {
	if len(rec) != len(Columns) {
		return false
	}
	for i, c := range Columns {
		// tolerate a UTF-8 BOM written by spreadsheet tools
		if strings.TrimPrefix(strings.TrimSpace(rec[i]), "\ufeff") != c {
			return false
		}
	}
	return true
}

// ParseRow reads a stored record back into a Row.
func ParseRow(rec []string) (Row, error) {
	if len(rec) != len(Columns) {
		return Row{}, fmt.Errorf("%w: want %d columns, got %d", ErrMalformedRow, len(Columns), len(rec))
	}
	date := strings.TrimSpace(rec[0])
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Row{}, fmt.Errorf("%w: date %q: %v", ErrMalformedRow, date, err)
	}

	vals := make([]int64, 4)
	for i := range vals {
		v, err := strconv.ParseInt(strings.TrimSpace(rec[i+1]), 10, 64)
		if err != nil {
			return Row{}, fmt.Errorf("%w: column %q: %v", ErrMalformedRow, Columns[i+1], err)
		}
		vals[i] = v
	}

	return Row{Date: date, Rank: vals[0], OutOf: vals[1], Score: vals[2], WU: vals[3]}, nil
}

// Point is one time-series sample.
type Point struct {
	Measurement string
	Time        string // YYYY-MM-DDT11:00:00Z
	Fields      map[string]interface{}
}

// NewPoint builds the time-series projection of a snapshot.
func NewPoint(measurement string, s model.Snapshot) Point {
	return Point{
		Measurement: measurement,
		Time:        s.CapturedAt.Format("2006-01-02") + pointHour,
		Fields: map[string]interface{}{
			ColumnRank:  s.Rank,
			ColumnOutOf: s.TotalUsers,
			ColumnScore: s.Credit,
			ColumnWU:    s.WorkUnits,
		},
	}
}

// Timestamp parses the point's fixed-hour time string.
func (p Point) Timestamp() (time.Time, error) {
	return time.Parse(time.RFC3339, p.Time)
}

// String renders the point the way it is logged before writing.
func (p Point) String() string {
	return fmt.Sprintf("[{measurement:%s time:%s fields:{Rank:%v Out Of:%v Score:%v WU:%v}}]",
		p.Measurement, p.Time,
		p.Fields[ColumnRank], p.Fields[ColumnOutOf], p.Fields[ColumnScore], p.Fields[ColumnWU])
}
