package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"newsroom/simulator"
)

func main() {
	_ = godotenv.Load()
	cfg := simulator.DefaultSimConfig()

	flag.StringVar(&cfg.BaseURL, "url", envOr("SIM_URL", cfg.BaseURL), "newsroom API base URL")
	flag.IntVar(&cfg.NumUsers, "users", cfg.NumUsers, "number of simulated readers")
	flag.IntVar(&cfg.NumCategories, "categories", cfg.NumCategories, "number of categories to create")
	flag.DurationVar(&cfg.Duration, "duration", cfg.Duration, "how long to run")
	flag.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "time between activity rounds")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent requests per round")
	flag.Float64Var(&cfg.ZipfS, "zipf", cfg.ZipfS, "popularity skew (must be > 1)")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.StringVar(&cfg.EditorEmail, "editor-email", envOr("SIM_EDITOR_EMAIL", cfg.EditorEmail), "editor account listed in ADMIN_EMAILS")
	flag.StringVar(&cfg.EditorPassword, "editor-password", envOr("SIM_EDITOR_PASSWORD", cfg.EditorPassword), "editor password")
	verbose := flag.Bool("v", false, "log every failed request")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.TimeOnly})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	sim := simulator.NewSimulator(cfg)
	if err := sim.Run(ctx); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	m := sim.GetMetrics()
	slog.Info("simulation completed",
		"users", m.TotalUsers,
		"active", m.ActiveUsers,
		"posts", m.TotalPosts,
		"approved", m.ApprovedPosts,
		"comments", m.TotalComments,
		"likes", m.TotalLikes,
		"follows", m.TotalFollows,
		"bookmarks", m.TotalBookmarks,
		"views", m.TotalViews,
		"errors", m.ErrorCount,
		"rps", m.RequestsPerSecond,
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
