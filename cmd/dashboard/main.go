package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/apex-analytics/apex-dashboard/cmd/dashboard/cli"
	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/export"
	analytichttp "github.com/apex-analytics/apex-dashboard/internal/analytics/http"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/svg"
	"github.com/apex-analytics/apex-dashboard/internal/app"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
	"github.com/apex-analytics/apex-dashboard/internal/observability"
	"github.com/apex-analytics/apex-dashboard/internal/platform/cache"
	"github.com/apex-analytics/apex-dashboard/internal/platform/db"
	"github.com/apex-analytics/apex-dashboard/internal/view"
	"github.com/apex-analytics/apex-dashboard/jobs"
	"github.com/apex-analytics/apex-dashboard/report"
)

const usage = `usage: dashboard [command]

commands:
  serve                              run the HTTP dashboard (default)
  validate --file PATH [--json]      check that a dataset file loads
  summary --file PATH [--merchant M] [--all]
                                     print KPI, error and brand tables
  jobs trigger dataset:refresh [--persist]
  jobs stats                         show default queue counters
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		os.Exit(serve(ctx))
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ExitOnError)
		file := fs.String("file", "", "dataset file")
		asJSON := fs.Bool("json", false, "print JSON")
		_ = fs.Parse(args)
		os.Exit(cli.ValidateCommand(ctx, cli.ValidateOptions{File: *file, JSONOutput: *asJSON}))
	case "summary":
		fs := flag.NewFlagSet("summary", flag.ExitOnError)
		file := fs.String("file", "", "dataset file")
		merchant := fs.String("merchant", "", "merchant name (default: first)")
		all := fs.Bool("all", false, "list every error")
		_ = fs.Parse(args)
		os.Exit(cli.SummaryCommand(ctx, cli.SummaryOptions{File: *file, Merchant: *merchant, All: *all}))
	case "jobs":
		os.Exit(runJobs(ctx, args))
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(cli.ExitUsage)
	}
}

func runJobs(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return cli.ExitUsage
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return cli.ExitUsage
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitUsage
	}
	defer func() { _ = jobsCLI.Close() }()

	switch args[0] {
	case "trigger":
		fs := flag.NewFlagSet("jobs trigger", flag.ExitOnError)
		persist := fs.Bool("persist", false, "also store a postgres snapshot")
		_ = fs.Parse(args[1:])
		name := fs.Arg(0)
		if name == "" {
			name = jobs.TaskDatasetRefresh
		}
		info, err := jobsCLI.Trigger(ctx, name, *persist)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cli.ExitUsage
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cli.ExitUsage
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	default:
		fmt.Fprintf(os.Stderr, "unknown jobs command %q\n", args[0])
		return cli.ExitUsage
	}
	return cli.ExitOK
}

func serve(ctx context.Context) int {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var querier dataset.Querier
	if cfg.DatasetSource == app.SourcePostgres {
		dbpool, err := db.New(ctx, cfg.PGDSN, 0)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			return 1
		}
		defer dbpool.Close()
		querier = dbpool
	}
	source, err := app.NewDatasetSource(cfg, querier)
	if err != nil {
		logger.Error("dataset source", slog.Any("error", err))
		return 1
	}

	var (
		datasetCache *analytics.Cache
		inspector    *asynq.Inspector
	)
	if cfg.CacheEnabled() {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, serving without cache", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
			datasetCache = analytics.NewCache(redisClient, cfg.CacheTTL)

			inspector = asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			defer func() {
				if err := inspector.Close(); err != nil {
					logger.Warn("inspector close", slog.Any("error", err))
				}
			}()
		}
	}

	service := analytics.NewService(source, datasetCache, logger).
		WithObserver(metrics).
		WithFetchTimeout(cfg.DatasetFetchTimeout)

	templates, err := view.NewEngine(view.DefaultLayout(cfg.DatasetMerchantLabel))
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		return 1
	}

	reportClient := report.NewClient(cfg.GotenbergURL)
	renderer := svg.Renderer{}
	analyticsHandler := analytichttp.NewHandler(
		logger,
		service,
		templates,
		renderer,
		renderer,
		renderer,
		&export.PDFExporter{Renderer: reportClient},
	)
	analyticsHandler.WithAllowedOrigins(cfg.CORSAllowedOrigins)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AnalyticsHandler: analyticsHandler,
		ReportHandler:    report.NewHandler(reportClient, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	service.Start(ctx)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if datasetCache != nil {
		group.Go(func() error {
			if err := service.ListenForUpdates(gctx); err != nil {
				logger.Warn("cache invalidation listener", slog.Any("error", err))
			}
			return nil
		})
	}
	if cfg.DatasetSource == app.SourcePostgres {
		listener := &dataset.SnapshotListener{DSN: cfg.PGDSN, Logger: logger}
		group.Go(func() error {
			err := listener.Listen(gctx, func(fingerprint string) {
				logger.Info("snapshot stored", slog.String("fingerprint", fingerprint))
				if datasetCache != nil {
					// One server bumps per snapshot; the bump reaches every server.
					if _, err := datasetCache.BumpOnce(gctx, fingerprint); err != nil {
						logger.Warn("bump cache after snapshot", slog.Any("error", err))
					}
					return
				}
				if err := service.Reload(gctx); err != nil {
					logger.Warn("reload after snapshot", slog.Any("error", err))
				}
			})
			if err != nil {
				logger.Warn("snapshot listener", slog.Any("error", err))
			}
			return nil
		})
	}
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		return 1
	}
	return 0
}
