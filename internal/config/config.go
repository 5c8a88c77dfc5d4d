// Package config defines collector configuration structures and loading hooks.
//
// Conventions:
// - Keys match the YAML file and FAHSTATS_<KEY> environment variables.
// - Provide New() to build a Config with defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// FahUser is the donor name or id queried on the stats API.
	FahUser string `koanf:"fah_user" validate:"required"`

	// UserStatsLog is the log file path, absolute or relative to the working directory.
	UserStatsLog string `koanf:"user_stats_log" validate:"required"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"required|in:debug,info,warn,warning,error"`

	// StatsAPIBaseURL is the stats host; /api/donor/<user> is appended.
	StatsAPIBaseURL string `koanf:"stats_api_base_url" validate:"required|fullUrl"`

	// HTTPTimeout bounds the stats API request.
	HTTPTimeout time.Duration `koanf:"http_timeout" validate:"required|min:1"`

	// Tabular (CSV) sink.
	WriteHistoryToCSV bool   `koanf:"write_history_to_csv"`
	CSVFile           string `koanf:"csv_file"`
	CSVWriteHeader    bool   `koanf:"csv_write_header"`

	// Time-series (InfluxDB) sink.
	WriteHistoryToInflux bool          `koanf:"write_history_to_influx"`
	InfluxHost           string        `koanf:"influx_host"`
	InfluxPort           int           `koanf:"influx_port" validate:"required|uint|min:1|max:65535"`
	InfluxDB             string        `koanf:"influx_db"`
	InfluxTimeout        time.Duration `koanf:"influx_timeout"`
	InfluxUsername       string        `koanf:"influx_username"`
	InfluxPassword       string        `koanf:"influx_password"`
	InfluxRetention      string        `koanf:"influx_retention_policy"`
	HistoricMeasure      string        `koanf:"historic_measure"`

	// History table (Postgres) sink.
	WriteHistoryToPostgres bool          `koanf:"write_history_to_postgres"`
	PGDSN                  string        `koanf:"pg_dsn"`
	PGTable                string        `koanf:"pg_table"`
	PGConnectTimeout       time.Duration `koanf:"pg_connect_timeout"`

	// Run metrics export; both optional.
	MetricsTextfile    string `koanf:"metrics_textfile"`
	MetricsPushgateway string `koanf:"metrics_pushgateway"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "debug",
		StatsAPIBaseURL:  "https://statsclassic.foldingathome.org",
		HTTPTimeout:      30 * time.Second,
		CSVWriteHeader:   true,
		InfluxPort:       8086,
		InfluxTimeout:    10 * time.Second,
		PGTable:          "fah_history",
		PGConnectTimeout: 10 * time.Second,
	}
}

// InfluxAddr returns the InfluxDB HTTP endpoint.
func (c *Config) InfluxAddr() string {
	host := strings.TrimRight(strings.TrimSpace(c.InfluxHost), "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.InfluxPort))
}
