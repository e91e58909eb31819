package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"soraprobe/internal/history"
	"soraprobe/internal/infra"
	"soraprobe/internal/infra/credentials"
	"soraprobe/internal/probe"
	"soraprobe/internal/providers/sora"
	"soraprobe/internal/report"
	"soraprobe/internal/storage"
	"soraprobe/internal/suite"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	var (
		keyFlag     string
		dryRun      bool
		verbose     bool
		suitePath   string
		reportDir   string
		showHistory int
	)
	flag.StringVar(&keyFlag, "key", "", "API key (fallbacks to the first argument, OPENAI_API_KEY, then the credential store)")
	flag.BoolVar(&dryRun, "dry-run", cfg.DryRun, "validate the submission payload without sending it")
	flag.BoolVar(&verbose, "verbose", cfg.Verbose, "log payloads, model listings and response bodies")
	flag.StringVar(&suitePath, "suite", cfg.SuitePath, "YAML file with parameter validation cases")
	flag.StringVar(&reportDir, "report-dir", cfg.ReportDir, "directory for JSON run reports")
	flag.IntVar(&showHistory, "history", 0, "print the last N runs from PROBE_HISTORY_DIR and exit")
	flag.Parse()

	logger := infra.NewLogger(cfg.AppEnv, verbose).With().Str("cmd", "probe").Logger()

	var local *history.LocalStore
	if cfg.HistoryDir != "" {
		local, err = history.OpenLocal(cfg.HistoryDir)
		if err != nil {
			logger.Warn().Err(err).Msg("local history disabled")
		} else {
			defer local.Close()
		}
	}
	if showHistory > 0 {
		return printHistory(local, showHistory, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks []history.Sink
	if local != nil {
		sinks = append(sinks, local)
	}
	var store *credentials.Store
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn().Err(err).Msg("database unavailable, run history disabled")
		} else {
			defer pool.Close()
			runner := infra.NewSQLRunner(pool, logger)
			recorder := history.NewRecorder(runner)
			if err := recorder.EnsureSchema(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to prepare probe_runs table, run history disabled")
			} else {
				sinks = append(sinks, recorder)
			}
			store = credentials.NewStore(runner)
		}
	}

	key := resolveKey(ctx, keyFlag, flag.Arg(0), cfg.APIKey, store, logger)

	cases := suite.Default()
	if suitePath != "" {
		cases, err = suite.Load(suitePath)
		if err != nil {
			logger.Error().Err(err).Str("path", suitePath).Msg("failed to load parameter suite")
			return 1
		}
	}

	client, err := sora.NewClient(sora.Options{
		APIKey:          key,
		BaseURL:         cfg.BaseURL,
		GenerationsPath: cfg.GenerationsPath,
		Organization:    cfg.Organization,
		Logger:          &logger,
		LightTimeout:    cfg.LightTimeout,
		SubmitTimeout:   cfg.SubmitTimeout,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to build api client")
		return 1
	}

	runner := probe.NewRunner(probe.Config{
		APIKey:  key,
		DryRun:  dryRun,
		Verbose: verbose,
		Suite:   cases,
	}, client, &logger)
	rep := runner.Run(ctx)
	report.Print(logger, rep)

	saveReport(reportSinks(cfg, reportDir, logger), sinks, rep, logger)
	return rep.ExitCode
}

func reportSinks(cfg *infra.Config, dir string, logger infra.Logger) []storage.ReportSink {
	var out []storage.ReportSink
	if dir != "" {
		fs, err := storage.NewFileStore(dir)
		if err != nil {
			logger.Warn().Err(err).Msg("report directory unavailable")
		} else {
			out = append(out, fs)
		}
	}
	if cfg.ReportBucket != "" {
		s3store, err := storage.NewS3Store(storage.S3Config{
			Bucket:    cfg.ReportBucket,
			Prefix:    cfg.ReportPrefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("report bucket unavailable")
		} else {
			out = append(out, s3store)
		}
	}
	return out
}

func printHistory(local *history.LocalStore, n int, logger infra.Logger) int {
	if local == nil {
		logger.Error().Msg("PROBE_HISTORY_DIR is not set or could not be opened")
		return 1
	}
	runs, err := local.Recent(n)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read local history")
		return 1
	}
	for _, rep := range runs {
		logger.Info().
			Str("run_id", rep.RunID).
			Time("started_at", rep.StartedAt).
			Bool("dry_run", rep.DryRun).
			Int("passed", rep.Passed).
			Int("failed", rep.Failed).
			Int("skipped", rep.Skipped).
			Int("exit_code", rep.ExitCode).
			Msg("run")
	}
	return 0
}

func resolveKey(ctx context.Context, flagKey, argKey, envKey string, store *credentials.Store, logger infra.Logger) string {
	for _, k := range []string{flagKey, argKey, envKey} {
		if k = strings.TrimSpace(k); k != "" {
			return k
		}
	}
	if store == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	key, err := store.OpenAIAPIKey(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read stored api key")
		return ""
	}
	if key != "" {
		logger.Info().Str("key", credentials.MaskKey(key)).Msg("using api key from credential store")
	}
	return key
}

// saveReport writes the optional sinks. Failures are logged and never change
// the exit status.
func saveReport(reports []storage.ReportSink, runs []history.Sink, rep report.Report, logger infra.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, sink := range reports {
		loc, err := sink.SaveReport(ctx, rep)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to write report")
			continue
		}
		logger.Info().Str("location", loc).Msg("report written")
	}
	for _, sink := range runs {
		if err := sink.Record(ctx, rep); err != nil {
			logger.Warn().Err(err).Msg("failed to record run history")
			continue
		}
		logger.Debug().Str("run_id", rep.RunID).Msg("run history recorded")
	}
}
