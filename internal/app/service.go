// Package service runs one collection: fetch the donor's stats, build the
// snapshot, write it to the enabled sinks.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/fahstats/internal/adapters/http/statsapi"
	repository "github.com/okian/fahstats/internal/adapters/repository"
	"github.com/okian/fahstats/internal/domain/model"
	"github.com/okian/fahstats/internal/domain/record"
	"github.com/okian/fahstats/pkg/logger"
	"github.com/okian/fahstats/pkg/metrics"
)

// Result describes a finished run.
type Result struct {
	Snapshot model.Snapshot
	Row      record.Row
	Point    record.Point
	Elapsed  time.Duration
	// SinkErrors holds failures of best-effort sinks, keyed by sink name.
	SinkErrors map[string]error
}

// Service implements the collection pipeline.
type Service struct {
	donor       string
	measurement string

	fetcher statsapi.Fetcher
	csv     repository.RowAppender
	influx  repository.PointWriter
	history repository.HistoryInserter

	logger  logger.Logger
	metrics *metrics.Manager
	now     func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDonor sets the donor queried on the stats API.
func WithDonor(donor string) Option {
	return func(s *Service) {
		s.donor = donor
	}
}

// WithMeasurement sets the time-series measurement name.
func WithMeasurement(name string) Option {
	return func(s *Service) {
		s.measurement = name
	}
}

// WithFetcher sets the stats source.
func WithFetcher(f statsapi.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithCSVSink enables the tabular sink. Its failures end the run.
func WithCSVSink(sink repository.RowAppender) Option {
	return func(s *Service) {
		s.csv = sink
	}
}

// WithInfluxSink enables the time-series sink. Its failures are logged only.
func WithInfluxSink(sink repository.PointWriter) Option {
	return func(s *Service) {
		s.influx = sink
	}
}

// WithPostgresSink enables the history table sink. Its failures are logged only.
func WithPostgresSink(sink repository.HistoryInserter) Option {
	return func(s *Service) {
		s.history = sink
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the run metrics.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		fetcher: statsapi.New(),
		logger:  logger.Nop(),
		metrics: metrics.NewManager(metrics.WithMetricsEnabled(false)),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run performs one collection. An error means nothing trustworthy was
// recorded: the fetch failed, the response was invalid, or the CSV append
// failed. Influx and Postgres failures are logged and reported in
// Result.SinkErrors only.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	start := s.now()
	res, err := s.run(ctx, start)

	elapsed := s.now().Sub(start)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
	}
	s.metrics.RecordRun(result, elapsed, start.Add(elapsed))

	if err != nil {
		return nil, err
	}
	res.Elapsed = elapsed
	s.logger.Info(ctx, fmt.Sprintf("Done: %.2f seconds", elapsed.Seconds()))
	return res, nil
}

func (s *Service) run(ctx context.Context, start time.Time) (*Result, error) {
	if s.donor == "" {
		return nil, fmt.Errorf("%w: donor not configured", ErrInvalidSnapshot)
	}

	fetchStart := s.now()
	stats, err := s.fetcher.Fetch(ctx, s.donor)
	s.metrics.RecordFetch(s.now().Sub(fetchStart))
	if err != nil {
		s.metrics.RecordFetchError(fetchErrorKind(err))
		s.logger.Error(ctx, "Exception occurred", logger.String("step", "fetch"), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	snap, err := model.NewSnapshot(stats, start)
	if err != nil {
		s.metrics.RecordFetchError("invalid")
		s.logger.Error(ctx, "Exception occurred", logger.String("step", "snapshot"), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	s.metrics.RecordSnapshot(snap.Rank, snap.TotalUsers, snap.Credit, snap.WorkUnits)
	s.logger.Debug(ctx, "snapshot built",
		logger.Int64("rank", snap.Rank),
		logger.Int64("total_users", snap.TotalUsers),
		logger.Int64("credit", snap.Credit),
		logger.Int64("work_units", snap.WorkUnits),
	)

	res := &Result{
		Snapshot:   snap,
		Row:        record.NewRow(snap),
		Point:      record.NewPoint(s.measurement, snap),
		SinkErrors: make(map[string]error),
	}
	s.logger.Info(ctx, "InfluxDB record: "+res.Point.String())

	if s.csv != nil {
		err := s.csv.Append(ctx, res.Row)
		s.metrics.RecordSinkWrite(repository.SinkCSV, err)
		if err != nil {
			s.logger.Error(ctx, "Exception occurred", logger.String("step", repository.SinkCSV), logger.Error(err))
			return nil, err
		}
	}

	if s.influx != nil {
		err := s.influx.WritePoint(ctx, res.Point)
		s.metrics.RecordSinkWrite(repository.SinkInflux, err)
		if err != nil {
			res.SinkErrors[repository.SinkInflux] = err
			s.logger.Error(ctx, "Exception occurred", logger.String("step", repository.SinkInflux), logger.Error(err))
		}
	}

	if s.history != nil {
		err := s.history.Insert(ctx, res.Row)
		s.metrics.RecordSinkWrite(repository.SinkPostgres, err)
		if err != nil {
			res.SinkErrors[repository.SinkPostgres] = err
			s.logger.Error(ctx, "Exception occurred", logger.String("step", repository.SinkPostgres), logger.Error(err))
		}
	}

	return res, nil
}

// fetchErrorKind labels a fetch failure for metrics.
func fetchErrorKind(err error) string {
	switch {
	case errors.Is(err, statsapi.ErrHTTPStatus):
		return "status"
	case errors.Is(err, statsapi.ErrDecode):
		return "decode"
	default:
		return "transport"
	}
}
