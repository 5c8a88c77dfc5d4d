// Package metrics provides Prometheus metrics describing a collector run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Manager holds the metrics of one collector run.
type Manager struct {
	namespace    string
	subsystem    string
	enabled      bool
	customLabels map[string]string
	registry     *prometheus.Registry
	jobName      string

	// Run
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Gauge
	lastSuccessUnix prometheus.Gauge

	// Fetch
	fetchDuration prometheus.Gauge
	fetchErrors   *prometheus.CounterVec

	// Sinks
	sinkWrites *prometheus.CounterVec

	// Donor snapshot
	donorRank       prometheus.Gauge
	donorTotalUsers prometheus.Gauge
	donorCredit     prometheus.Gauge
	donorWorkUnits  prometheus.Gauge
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:    "fahstats",
		subsystem:    "collector",
		enabled:      true,
		customLabels: make(map[string]string),
		jobName:      "fahstats",
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Collector runs by result",
		ConstLabels: labels,
	}, []string{"result"})

	m.runDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Wall-clock duration of the last run",
		ConstLabels: labels,
	})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_success_unixtime",
		Help:        "Unix time of the last successful run",
		ConstLabels: labels,
	})

	m.fetchDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_duration_seconds",
		Help:        "Duration of the stats API request",
		ConstLabels: labels,
	})

	m.fetchErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_errors_total",
		Help:        "Stats API failures by kind",
		ConstLabels: labels,
	}, []string{"kind"})

	m.sinkWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sink_writes_total",
		Help:        "Sink writes by sink and result",
		ConstLabels: labels,
	}, []string{"sink", "result"})

	m.donorRank = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "donor",
		Name:        "rank",
		Help:        "Donor leaderboard position",
		ConstLabels: labels,
	})

	m.donorTotalUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "donor",
		Name:        "total_users",
		Help:        "Number of ranked donors",
		ConstLabels: labels,
	})

	m.donorCredit = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "donor",
		Name:        "credit",
		Help:        "Donor cumulative score",
		ConstLabels: labels,
	})

	m.donorWorkUnits = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "donor",
		Name:        "work_units",
		Help:        "Donor completed work units",
		ConstLabels: labels,
	})
}

// RecordRun records the outcome and duration of a run.
func (m *Manager) RecordRun(result string, d time.Duration, finished time.Time) {
	if !m.enabled {
		return
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Set(d.Seconds())
	if result == ResultSuccess {
		m.lastSuccessUnix.Set(float64(finished.Unix()))
	}
}

// RecordFetch records the stats API request duration.
func (m *Manager) RecordFetch(d time.Duration) {
	if !m.enabled {
		return
	}
	m.fetchDuration.Set(d.Seconds())
}

// RecordFetchError counts a failed request by kind (transport, status, decode, invalid).
func (m *Manager) RecordFetchError(kind string) {
	if !m.enabled {
		return
	}
	m.fetchErrors.WithLabelValues(kind).Inc()
}

// RecordSinkWrite counts one sink write.
func (m *Manager) RecordSinkWrite(sink string, err error) {
	if !m.enabled {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.sinkWrites.WithLabelValues(sink, result).Inc()
}

// RecordSnapshot exposes the donor's values.
func (m *Manager) RecordSnapshot(rank, totalUsers, credit, workUnits int64) {
	if !m.enabled {
		return
	}
	m.donorRank.Set(float64(rank))
	m.donorTotalUsers.Set(float64(totalUsers))
	m.donorCredit.Set(float64(credit))
	m.donorWorkUnits.Set(float64(workUnits))
}

// GetRegistry returns the registry the metrics live in.
func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// The file is replaced atomically.
func (m *Manager) WriteTextfile(path string) error {
	if !m.enabled {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: textfile %s: %w", ErrExportFailed, path, err)
	}
	return nil
}

// Push sends the registry to a Pushgateway, replacing the job's group.
func (m *Manager) Push(ctx context.Context, url string) error {
	if !m.enabled {
		return nil
	}
	if err := push.New(url, m.jobName).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("%w: pushgateway %s: %w", ErrExportFailed, url, err)
	}
	return nil
}
