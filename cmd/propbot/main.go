package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/propbot/config"
	"github.com/alejandrodnm/propbot/internal/adapters/discord"
	"github.com/alejandrodnm/propbot/internal/adapters/narrative"
	"github.com/alejandrodnm/propbot/internal/adapters/notify"
	"github.com/alejandrodnm/propbot/internal/adapters/oddsapi"
	"github.com/alejandrodnm/propbot/internal/adapters/store"
	"github.com/alejandrodnm/propbot/internal/pipeline"
	"github.com/alejandrodnm/propbot/internal/ports"
	"github.com/alejandrodnm/propbot/internal/tracker"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one pick cycle and exit")
	grade := flag.Bool("grade", false, "grade today's pending tickets against real stats and exit")
	dryRun := flag.Bool("dry-run", false, "in-memory storage, no Discord posts")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full ticket table (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	setupLogger(cfg.Log)

	slog.Info("propbot starting",
		"config", *configPath,
		"sports", cfg.Bot.Sports,
		"interval", cfg.RunInterval(),
		"dry_run", *dryRun,
		"once", *once,
		"grade", *grade,
	)

	client := oddsapi.NewClient(cfg.API.OddsBase, cfg.API.OddsKey)

	dsn := cfg.Storage.DSN
	if *dryRun {
		dsn = ":memory:"
	}
	db, err := store.NewSQLiteStore(dsn)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", dsn)
		os.Exit(1)
	}
	defer db.Close()

	tr := tracker.New(db)
	notifier := notify.NewConsole(*table)

	var poster ports.Poster
	if cfg.Discord.WebhookURL != "" && !*dryRun {
		poster = discord.NewWebhook(cfg.Discord.WebhookURL)
	}

	var narrator ports.Narrator
	if cfg.Narrative.APIKey != "" {
		narrator = narrative.NewOpenAINarrator(cfg.Narrative.APIKey, cfg.Narrative.BaseURL, cfg.Narrative.Model)
	}

	p := pipeline.New(cfg.PipelineConfig(), tr, poster, narrator, notifier)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *grade {
		runGrading(ctx, cfg, client, tr, notifier)
		return
	}

	if err := run(ctx, cfg, client, p, *once); err != nil {
		slog.Error("propbot exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("propbot stopped cleanly")
}

// run ejecuta ciclos de generación de picks hasta que el contexto se cancele
// (o un solo ciclo con -once).
func run(ctx context.Context, cfg *config.Config, client *oddsapi.Client, p *pipeline.Pipeline, once bool) error {
	ticker := time.NewTicker(cfg.RunInterval())
	defer ticker.Stop()

	for {
		runCycle(ctx, cfg, client, p)

		if once {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// runCycle corre el pipeline completo para cada deporte configurado. Las
// fallas de fetch de un deporte no frenan a los demás.
func runCycle(ctx context.Context, cfg *config.Config, client *oddsapi.Client, p *pipeline.Pipeline) {
	for _, sport := range cfg.Bot.Sports {
		props, err := client.FetchProps(ctx, sport)
		if err != nil {
			slog.Warn("failed to fetch props", "sport", sport, "err", err)
			continue
		}
		if len(props) == 0 {
			slog.Info("no props available", "sport", sport)
			continue
		}

		signals, err := client.FetchSignals(ctx, sport)
		if err != nil {
			slog.Warn("failed to fetch game signals, running without them", "sport", sport, "err", err)
			signals = nil
		}

		report, err := p.Run(ctx, props, signals)
		if err != nil {
			slog.Error("pipeline run failed", "sport", sport, "err", err)
			continue
		}
		slog.Info("cycle complete",
			"sport", sport,
			"tickets", len(report.Tickets),
			"last_call", len(report.LastCall),
		)
	}
}

// runGrading cierra el día: busca los partidos con tickets pendientes, trae
// los stats reales y gradea.
func runGrading(ctx context.Context, cfg *config.Config, client *oddsapi.Client, tr *tracker.Tracker, notifier *notify.Console) {
	day := tracker.Day(time.Now())

	games, err := tr.PendingGames(ctx, day)
	if err != nil {
		slog.Error("failed to list pending games", "err", err)
		os.Exit(1)
	}
	if len(games) == 0 {
		slog.Info("no pending tickets to grade", "day", day)
		return
	}

	actuals := make(map[string]float64)
	for _, sport := range cfg.Bot.Sports {
		for _, game := range games {
			stats, err := client.FetchActuals(ctx, sport, game)
			if err != nil {
				slog.Warn("failed to fetch actuals", "sport", sport, "game", game, "err", err)
				continue
			}
			for key, value := range stats {
				actuals[key] = value
			}
		}
	}

	report, err := tr.GradeDay(ctx, day, actuals)
	if err != nil {
		slog.Error("grading failed", "err", err)
		os.Exit(1)
	}
	slog.Info("grading complete",
		"day", day,
		"graded", report.Graded,
		"pending", report.Pending,
		"wins", report.Wins,
		"losses", report.Losses,
		"pushes", report.Pushes,
	)

	perf, err := tr.Performance(ctx)
	if err != nil {
		slog.Warn("failed to load performance summary", "err", err)
		return
	}
	notifier.PrintPerformance(perf)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
