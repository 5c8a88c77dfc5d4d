package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/fahstats/internal/adapters/http/statsapi"
	"github.com/okian/fahstats/internal/adapters/repository"
	service "github.com/okian/fahstats/internal/app"
	"github.com/okian/fahstats/internal/config"
	"github.com/okian/fahstats/pkg/logger"
	"github.com/okian/fahstats/pkg/metrics"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// errNoCSV is returned by history when no CSV file is configured.
var errNoCSV = errors.New("csv_file is not configured")

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A bare invocation runs the collector.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "fahstats",
		Short:         "Record Folding@home donor statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd.Context(), configPath, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (default $"+config.PathEnv+")")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Fetch the donor stats once and write them to the enabled sinks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd.Context(), configPath, stderr)
		},
	})

	var last int
	history := &cobra.Command{
		Use:   "history",
		Short: "Print the rows recorded in the CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context(), configPath)
			if err != nil {
				fmt.Fprintln(stderr, "failed to load config: "+err.Error())
				return err
			}
			if err := printHistory(cmd.Context(), cfg, last, stdout); err != nil {
				fmt.Fprintln(stderr, err.Error())
				return err
			}
			return nil
		},
	}
	history.Flags().IntVarP(&last, "last", "n", 0, "only print the last N rows")
	root.AddCommand(history)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(stdout, "fahstats "+version)
		},
	})

	return root
}

// runCommand loads the config, opens the log and performs one collection.
func runCommand(ctx context.Context, configPath string, stderr io.Writer) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		// Logger isn't available yet
		fmt.Fprintln(stderr, "failed to load config: "+err.Error())
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config: "+err.Error())
		return err
	}

	log, closeLog, err := logger.New(logger.WithFile(cfg.UserStatsLog), logger.WithLevel(level))
	if err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging: "+err.Error())
		return err
	}
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintln(stderr, "failed to close log: "+err.Error())
		}
	}()

	log = log.With(logger.String("run_id", uuid.NewString()))
	log.Debug(ctx, "starting run",
		logger.String("version", version),
		logger.String("user", cfg.FahUser),
		logger.Bool("csv", cfg.WriteHistoryToCSV),
		logger.Bool("influx", cfg.WriteHistoryToInflux),
		logger.Bool("postgres", cfg.WriteHistoryToPostgres),
	)

	m := metrics.NewManager(metrics.WithCustomLabels(map[string]string{"donor": cfg.FahUser}))
	svc := newService(cfg, log, m)

	_, runErr := svc.Run(ctx)
	exportMetrics(ctx, cfg, m, log)
	return runErr
}

// newService wires the fetcher and the enabled sinks from cfg.
func newService(cfg *config.Config, log logger.Logger, m *metrics.Manager) *service.Service {
	opts := []service.Option{
		service.WithDonor(cfg.FahUser),
		service.WithMeasurement(cfg.HistoricMeasure),
		service.WithFetcher(statsapi.New(
			statsapi.WithBaseURL(cfg.StatsAPIBaseURL),
			statsapi.WithTimeout(cfg.HTTPTimeout),
			statsapi.WithUserAgent("fahstats/"+version),
		)),
		service.WithLogger(log),
		service.WithMetrics(m),
	}

	if cfg.WriteHistoryToCSV {
		opts = append(opts, service.WithCSVSink(repository.NewCSVSink(cfg.CSVFile,
			repository.WithHeader(cfg.CSVWriteHeader),
		)))
	}
	if cfg.WriteHistoryToInflux {
		opts = append(opts, service.WithInfluxSink(repository.NewInfluxSink(cfg.InfluxAddr(), cfg.InfluxDB,
			repository.WithInfluxTimeout(cfg.InfluxTimeout),
			repository.WithCredentials(cfg.InfluxUsername, cfg.InfluxPassword),
			repository.WithRetentionPolicy(cfg.InfluxRetention),
		)))
	}
	if cfg.WriteHistoryToPostgres {
		opts = append(opts, service.WithPostgresSink(repository.NewPostgresSink(cfg.PGDSN,
			repository.WithTable(cfg.PGTable),
			repository.WithConnectTimeout(cfg.PGConnectTimeout),
		)))
	}

	return service.New(opts...)
}

// exportMetrics writes the run metrics to the configured targets. Failures
// never change the exit status.
func exportMetrics(ctx context.Context, cfg *config.Config, m *metrics.Manager, log logger.Logger) {
	if cfg.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Warn(ctx, "metrics textfile not written", logger.Error(err))
		}
	}
	if cfg.MetricsPushgateway != "" {
		if err := m.Push(ctx, cfg.MetricsPushgateway); err != nil {
			log.Warn(ctx, "metrics push failed", logger.Error(err))
		}
	}
}

// printHistory writes the stored rows as an aligned table.
func printHistory(ctx context.Context, cfg *config.Config, last int, out io.Writer) error {
	if cfg.CSVFile == "" {
		return errNoCSV
	}

	var reader repository.RowReader = repository.NewCSVSink(cfg.CSVFile)
	rows, err := reader.ReadRows(ctx)
	if err != nil {
		return err
	}
	if last > 0 && len(rows) > last {
		rows = rows[len(rows)-last:]
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tRank\tOut Of\tScore\tWU\t")
	for _, r := range rows {
		fmt.Fprintln(tw, r.Date+"\t"+
			strconv.FormatInt(r.Rank, 10)+"\t"+
			strconv.FormatInt(r.OutOf, 10)+"\t"+
			strconv.FormatInt(r.Score, 10)+"\t"+
			strconv.FormatInt(r.WU, 10)+"\t")
	}
	return tw.Flush()
}
