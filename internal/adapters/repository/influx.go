package repository

import (
	"context"
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/okian/fahstats/internal/domain/record"
)

const (
	defaultInfluxTimeout = 10 * time.Second

	// influxPrecision matches the whole-second point times.
	influxPrecision = "s"
)

// InfluxSink writes points into an InfluxDB 1.x database.
type InfluxSink struct {
	addr            string
	database        string
	timeout         time.Duration
	retentionPolicy string
	username        string
	password        string
}

// NewInfluxSink returns a sink for database at addr (http://host:8086).
// A connection is opened per write; the collector writes once per run.
func NewInfluxSink(addr, database string, opts ...InfluxOption) *InfluxSink {
	s := &InfluxSink{
		addr:     addr,
		database: database,
		timeout:  defaultInfluxTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WritePoint connects, selects the database and writes p.
func (s *InfluxSink) WritePoint(ctx context.Context, p record.Point) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInfluxWrite, err)
	}

	ts, err := p.Timestamp()
	if err != nil {
		return fmt.Errorf("%w: point time %q: %w", ErrInfluxWrite, p.Time, err)
	}

	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     s.addr,
		Username: s.username,
		Password: s.password,
		Timeout:  s.timeout,
	})
	if err != nil {
		return fmt.Errorf("%w: connect %s: %w", ErrInfluxWrite, s.addr, err)
	}
	defer c.Close()

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:        s.database,
		Precision:       influxPrecision,
		RetentionPolicy: s.retentionPolicy,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInfluxWrite, err)
	}

	pt, err := client.NewPoint(p.Measurement, nil, p.Fields, ts)
	if err != nil {
		return fmt.Errorf("%w: point: %w", ErrInfluxWrite, err)
	}
	bp.AddPoint(pt)

	if err := c.Write(bp); err != nil {
		return fmt.Errorf("%w: %s/%s: %w", ErrInfluxWrite, s.addr, s.database, err)
	}
	return nil
}
