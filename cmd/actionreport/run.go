package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/mbd888/actionreport/internal/actions"
	"github.com/mbd888/actionreport/internal/config"
	"github.com/mbd888/actionreport/internal/idgen"
	"github.com/mbd888/actionreport/internal/logging"
	"github.com/mbd888/actionreport/internal/metrics"
	"github.com/mbd888/actionreport/internal/money"
	"github.com/mbd888/actionreport/internal/report"
	"github.com/mbd888/actionreport/internal/traces"
)

type runFlags struct {
	start        string
	end          string
	subject      string
	sample       int
	timezone     string
	table        string
	databaseURL  string
	subjectField string
	metricsFile  string
	logLevel     string
	logFormat    string
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [actions.json | -]",
		Short: "Filter a report and print the commission summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if len(args) == 1 {
				cfg.ActionsFile = args[0]
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			runID := idgen.WithPrefix("run_")
			ctx := logging.WithRunID(logging.WithLogger(cmd.Context(), logger), runID)

			shutdown, err := traces.Init(ctx, cfg.OTLPEndpoint, Version, logger)
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(flushCtx); err != nil {
					logger.Warn("trace shutdown failed", "error", err)
				}
			}()

			return runReport(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.start, "start", "", "inclusive range start (YYYY-MM-DD or RFC 3339)")
	fl.StringVar(&f.end, "end", "", "inclusive range end; a bare date means 23:59:59 of that day")
	fl.StringVar(&f.subject, "subject", "", "only actions attributed to this creator id")
	fl.IntVar(&f.sample, "sample", config.DefaultSampleSize, "number of matched actions to list")
	fl.StringVar(&f.timezone, "timezone", "", "location for bare dates (default UTC)")
	fl.StringVar(&f.table, "table", "", "PostgreSQL table to read when no file is given")
	fl.StringVar(&f.databaseURL, "database-url", "", "PostgreSQL connection string")
	fl.StringVar(&f.subjectField, "subject-field", "", "JSON key holding the creator id")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fl.StringVar(&f.logFormat, "log-format", "", "text or json")

	return cmd
}

// apply overrides cfg with every flag the user set explicitly.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("start") {
		cfg.Start = f.start
	}
	if changed("end") {
		cfg.End = f.end
	}
	if changed("subject") {
		cfg.SubjectID = f.subject
		cfg.HasSubject = true
	}
	if changed("sample") {
		cfg.SampleSize = f.sample
	}
	if changed("timezone") {
		cfg.Timezone = f.timezone
	}
	if changed("table") {
		cfg.ActionsTable = f.table
	}
	if changed("database-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if changed("subject-field") {
		cfg.SubjectField = f.subjectField
	}
	if changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
}

func runReport(ctx context.Context, cfg *config.Config, stdin io.Reader, out io.Writer) error {
	logger := logging.L(ctx)
	started := time.Now()

	criteria, err := cfg.Criteria()
	if err != nil {
		return err
	}

	src, sourceName, closeSource, err := openSource(cfg, stdin)
	if err != nil {
		return err
	}
	defer closeSource()

	loadCtx, loadSpan := traces.StartSpan(ctx, "actions.load", traces.Source(sourceName), traces.RunID(logging.RunID(ctx)))
	records, err := src.Load(loadCtx)
	if err != nil {
		loadSpan.RecordError(err)
		loadSpan.End()
		return fmt.Errorf("load actions: %w", err)
	}
	loadSpan.SetAttributes(traces.RecordCount(len(records)))
	loadSpan.End()

	logger.Debug("actions loaded", "source", sourceName, "count", len(records))

	_, runSpan := traces.StartSpan(ctx, "report.run", traces.RecordCount(len(records)))
	if criteria.HasSubject {
		runSpan.SetAttributes(traces.SubjectID(criteria.SubjectID))
	}
	if criteria.DateRange != nil {
		runSpan.SetAttributes(traces.DateRange(
			criteria.DateRange.Start.Format(time.RFC3339),
			criteria.DateRange.End.Format(time.RFC3339),
		))
	}
	result := report.Run(records, criteria, cfg.SampleSize)
	runSpan.SetAttributes(traces.MatchedCount(result.MatchedRecords), traces.Commission(result.Commission()))
	runSpan.End()

	if result.SkippedDates > 0 {
		logger.Debug("actions skipped: unparseable event date", "count", result.SkippedDates)
	}
	if result.InvalidPayouts > 0 {
		logger.Debug("actions counted as zero: unparseable payout", "count", result.InvalidPayouts)
	}

	if err := report.Render(out, result); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	metrics.ObserveRun(sourceName, result, time.Since(started))
	if pg, ok := src.(*actions.PostgresSource); ok {
		metrics.RecordDBStats(pg.DB)
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics textfile", "path", cfg.MetricsFile, "error", err)
		}
	}

	logger.Info("report complete",
		"source", sourceName,
		"total", result.TotalRecords,
		"matched", result.MatchedRecords,
		"commissionable", result.CommissionableCount,
		"commission", money.Format(result.TotalCommission),
	)
	return nil
}

// openSource picks the file source when a path is configured and the
// database otherwise.
func openSource(cfg *config.Config, stdin io.Reader) (actions.Source, string, func(), error) {
	if cfg.ActionsFile != "" {
		return &actions.FileSource{Path: cfg.ActionsFile, Fields: cfg.Fields(), Stdin: stdin}, "file", func() {}, nil
	}
	if !cfg.HasInput() {
		return nil, "", nil, fmt.Errorf("%w: pass a report file or set DATABASE_URL", actions.ErrInputMissing)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open database: %w", err)
	}
	src, err := actions.NewPostgresSource(db, cfg.ActionsTable)
	if err != nil {
		_ = db.Close()
		return nil, "", nil, err
	}
	return src, "postgres", func() { _ = db.Close() }, nil
}
