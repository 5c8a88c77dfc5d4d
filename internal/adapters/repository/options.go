package repository

import (
	"time"
)

// CSVOption applies a configuration option to the CSVSink.
type CSVOption func(*CSVSink)

// WithHeader writes the column header when the file is new or empty.
func WithHeader(enabled bool) CSVOption {
	return func(s *CSVSink) {
		s.writeHeader = enabled
	}
}

// InfluxOption applies a configuration option to the InfluxSink.
type InfluxOption func(*InfluxSink)

// WithInfluxTimeout bounds each request to InfluxDB.
func WithInfluxTimeout(d time.Duration) InfluxOption {
	return func(s *InfluxSink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetentionPolicy writes into a non-default retention policy.
func WithRetentionPolicy(rp string) InfluxOption {
	return func(s *InfluxSink) {
		s.retentionPolicy = rp
	}
}

// WithCredentials sets basic-auth credentials. An empty username disables auth.
func WithCredentials(username, password string) InfluxOption {
	return func(s *InfluxSink) {
		s.username = username
		s.password = password
	}
}

// PostgresOption applies a configuration option to the PostgresSink.
type PostgresOption func(*PostgresSink)

// WithTable sets the target table, optionally schema-qualified ("history.fah").
func WithTable(table string) PostgresOption {
	return func(s *PostgresSink) {
		if table != "" {
			s.table = table
		}
	}
}

// WithConnectTimeout bounds connection setup.
func WithConnectTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresSink) {
		if d > 0 {
			s.connectTimeout = d
		}
	}
}
