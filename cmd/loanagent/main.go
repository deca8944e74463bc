// Command loanagent drives the loan model gateway over JSON lines.
//
// Each stdin line is one call, {"name": "predict", "arguments": {...}}, and each
// call produces exactly one JSON response line on stdout. Logs go to stderr.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/YuminosukeSato/loanml/dataset"
	"github.com/YuminosukeSato/loanml/gateway"
	"github.com/YuminosukeSato/loanml/internal/config"
	"github.com/YuminosukeSato/loanml/internal/telemetry"
	"github.com/YuminosukeSato/loanml/lifecycle"
	"github.com/YuminosukeSato/loanml/lightgbm"
	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/pkg/log"
	"github.com/YuminosukeSato/loanml/report"
	"github.com/YuminosukeSato/loanml/sample"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "loanagent:", err)
		os.Exit(1)
	}
}

type options struct {
	configPath     string
	envFile        string
	manifest       bool
	importancePlot string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("loanagent", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file (default: ./loanml.yaml if present)")
	fs.StringVar(&opts.envFile, "env", ".env", "dotenv file loaded before reading the environment")
	fs.BoolVar(&opts.manifest, "manifest", false, "print the operation definitions and exit")
	fs.StringVar(&opts.importancePlot, "importance-plot", "", "write a feature importance chart (.png or .svg) on exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return err
	}
	logger, err := log.New(cfg.Logging.Format, stderr, cfg.LogLevel())
	if err != nil {
		return err
	}
	log.SetLogger(logger)

	if opts.manifest {
		gw, err := gateway.New(lifecycle.New(), sample.NewDefaultState(), nil)
		if err != nil {
			return err
		}
		return writeManifest(stdout, gw.Definitions())
	}

	repo, err := dataset.Open(cfg.Dataset.Path, cfg.DatasetOptions(), cfg.Dataset.TestFraction, cfg.Dataset.Seed)
	if err != nil {
		return err
	}
	logger.Info("Dataset loaded",
		log.PathKey, cfg.Dataset.Path,
		log.SamplesKey, repo.Full().Len(),
		log.PositivesKey, repo.Full().Positives(),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := telemetry.New(reg)
	if err != nil {
		return err
	}

	engine := lifecycle.New(
		lifecycle.WithLogger(logger.With(log.ComponentKey, "lifecycle")),
		lifecycle.WithTrainObserver(metrics.ObserveTraining),
		lifecycle.WithTrainerCallbacks(trainingCallbacks(cfg.Training, logger)...),
	)
	gw, err := gateway.New(engine, sample.NewDefaultState(), repo,
		gateway.WithDefaultHyperparameters(cfg.Model),
		gateway.WithObserver(gateway.LogObserver(logger.With(log.ComponentKey, "gateway"))),
		gateway.WithObserver(metrics.ObserveCall),
	)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		stop := serveMetrics(cfg.Metrics.Address, reg, logger)
		defer stop()
	}

	serveErr := serve(ctx, gw, stdin, stdout)

	if opts.importancePlot != "" {
		if err := writeImportancePlot(engine, opts.importancePlot); err != nil {
			logger.Warn("Importance plot not written", err, log.PathKey, opts.importancePlot)
		}
	}
	return serveErr
}

func trainingCallbacks(tc config.TrainingConfig, logger log.Logger) []lifecycle.CallbackFactory {
	var factories []lifecycle.CallbackFactory
	if rounds := tc.EarlyStoppingRounds; rounds > 0 {
		cbLogger := logger.With(log.ComponentKey, "lightgbm")
		factories = append(factories, func() lightgbm.Callback {
			return lightgbm.EarlyStoppingCallback(rounds, lightgbm.MetricTrainingLogloss, true, cbLogger)
		})
	}
	if limit := tc.TimeLimit; limit > 0 {
		factories = append(factories, func() lightgbm.Callback { return lightgbm.TimeLimit(limit) })
	}
	return factories
}

func writeManifest(w io.Writer, defs []gateway.Definition) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(defs)
}

func writeImportancePlot(engine *lifecycle.Engine, path string) error {
	importance, err := engine.FeatureImportance(lightgbm.ImportanceGain)
	if err != nil {
		return err
	}
	return report.SaveImportance(path, importance, "Feature importance (gain)")
}

func serveMetrics(addr string, reg *prometheus.Registry, logger log.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics endpoint stopped", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
