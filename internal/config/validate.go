package config

import (
	"fmt"
	"strings"

	"github.com/gookit/validate"
)

// Validate checks static rules from the struct tags, then the rules that
// depend on which sinks are enabled.
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, v.Errors.One())
	}

	var missing []string
	need := func(enabled bool, key, val string) {
		if enabled && strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	need(c.WriteHistoryToCSV, "csv_file", c.CSVFile)
	need(c.WriteHistoryToInflux, "influx_host", c.InfluxHost)
	need(c.WriteHistoryToInflux, "influx_db", c.InfluxDB)
	need(c.WriteHistoryToInflux, "historic_measure", c.HistoricMeasure)
	need(c.WriteHistoryToPostgres, "pg_dsn", c.PGDSN)
	need(c.WriteHistoryToPostgres, "pg_table", c.PGTable)
	if len(missing) > 0 {
		return fmt.Errorf("%w: required when the sink is enabled: %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}
