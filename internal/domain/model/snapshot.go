// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DonorStats is the subset of the stats API donor document the collector uses.
// Values are kept as raw JSON number literals so presence and integrality can be
// checked before anything is written.
type DonorStats struct {
	Name       string
	WorkUnits  *string // "wus"
	Rank       *string // "rank"
	TotalUsers *string // "total_users"
	Credit     *string // "credit"
}

// Snapshot is one observation of a donor's statistics.
type Snapshot struct {
	CapturedAt time.Time
	Rank       int64
	TotalUsers int64
	Credit     int64
	WorkUnits  int64
}

// NewSnapshot validates raw donor stats and builds a Snapshot captured at the
// given instant. Every numeric field must be present, integral and non-negative.
func NewSnapshot(stats DonorStats, capturedAt time.Time) (Snapshot, error) {
	wus, err := requireInt("wus", stats.WorkUnits)
	if err != nil {
		return Snapshot{}, err
	}
	rank, err := requireInt("rank", stats.Rank)
	if err != nil {
		return Snapshot{}, err
	}
	total, err := requireInt("total_users", stats.TotalUsers)
	if err != nil {
		return Snapshot{}, err
	}
	credit, err := requireInt("credit", stats.Credit)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		CapturedAt: capturedAt,
		Rank:       rank,
		TotalUsers: total,
		Credit:     credit,
		WorkUnits:  wus,
	}, nil
}

// requireInt parses a JSON number literal into an int64.
// Float literals such as 4.5e+07 are accepted when they carry no fraction.
func requireInt(key string, raw *string) (int64, error) {
	if raw == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, key)
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("%w: %s=%d", ErrNegative, key, v)
		}
		return v, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrNotIntegral, key, s)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s=%q", ErrNotIntegral, key, s)
	}
	if f < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrNegative, key, s)
	}
	return int64(f), nil
}
