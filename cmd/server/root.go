package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourname/hardpoint-mm/internal/api"
	"github.com/yourname/hardpoint-mm/internal/config"
	"github.com/yourname/hardpoint-mm/internal/match"
	"github.com/yourname/hardpoint-mm/internal/metrics"
	"github.com/yourname/hardpoint-mm/internal/store"
	"github.com/yourname/hardpoint-mm/internal/synth"
	"github.com/yourname/hardpoint-mm/internal/ws"
	"github.com/yourname/hardpoint-mm/pkg/logger"
	"github.com/yourname/hardpoint-mm/pkg/types"
)

type flags struct {
	configPath string
	logLevel   string
	cycles     int
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:          "hardpoint-mm",
		Short:        "Skill-based 5v5 matchmaking service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "YAML config file (default $"+config.FileEnv+")")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/websocket service and the matchmaking loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}
	simulate := &cobra.Command{
		Use:   "simulate",
		Short: "Run matchmaking cycles back-to-back and print the final stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, f)
		},
	}
	simulate.Flags().IntVar(&f.cycles, "cycles", 1000, "Number of cycles to run")

	root.AddCommand(serve, simulate)
	return root
}

// setup loads config and initializes the logger on the command's error
// stream, leaving stdout to command output.
func setup(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if err := logger.Init(
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithLevel(cfg.LogLevel),
		logger.WithFormat(cfg.LogFormat),
	); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func newEngine(cfg *config.Config, log logger.Logger) *match.Engine {
	gen := synth.New(
		synth.WithSeed(cfg.Seed),
		synth.WithRating(cfg.RatingMin, cfg.RatingMax, cfg.RatingMean, cfg.RatingStdDev),
		synth.WithPing(cfg.PingMin, cfg.PingMax),
	)
	return match.NewEngine(
		match.WithGenerator(gen),
		match.WithBandWidth(cfg.BandWidth),
		match.WithMaxPoolSize(cfg.MaxPoolSize),
		match.WithAdmitProbability(cfg.AdmitProbability),
		match.WithHistorySize(cfg.HistorySize),
		match.WithRatingBounds(cfg.RatingMin, cfg.RatingMax),
		match.WithRetention(cfg.RetainMatched),
		match.WithEngineLogger(log.Named("engine")),
	)
}

func runServe(cmd *cobra.Command, f *flags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := setup(cmd, f)
	if err != nil {
		return err
	}
	log := logger.Named("server")
	metrics.Init()

	hub := ws.NewHub()
	go hub.Run(ctx)
	sinks := match.Sinks{hub}

	if cfg.RedisAddr != "" {
		pub := store.NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword,
			store.WithChannel(cfg.RedisChannel),
			store.WithHistory(cfg.RedisHistoryKey, cfg.HistorySize))
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			log.Warn(ctx, "redis unavailable, events will not be mirrored", logger.Error(err))
		}
		sinks = append(sinks, pub)
	}

	mm := match.NewMatchmaker(newEngine(cfg, log), sinks,
		match.WithPeriod(time.Duration(cfg.TickMS)*time.Millisecond),
		match.WithSpeed(cfg.Speed),
		match.WithLogger(log.Named("matchmaker")))
	if cfg.Autostart {
		mm.Start(ctx)
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: api.NewRouter(ctx, hub, mm)}
	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "http listening", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info(context.Background(), "shutting down")

	mm.Stop()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func runSimulate(cmd *cobra.Command, f *flags) error {
	ctx := cmd.Context()
	if f.cycles <= 0 {
		return fmt.Errorf("cycles must be positive, got %d", f.cycles)
	}
	cfg, err := setup(cmd, f)
	if err != nil {
		return err
	}
	log := logger.Named("simulate")

	trace := match.SinkFunc(func(ctx context.Context, ev types.Event) {
		if formed, ok := ev.Payload.(types.MatchFormed); ok {
			log.Debug(ctx, "match", logger.Int("match_id", formed.Match.ID), logger.Int("gap", formed.Match.Gap))
		}
	})
	mm := match.NewMatchmaker(newEngine(cfg, log), trace,
		match.WithSpeed(cfg.Speed),
		match.WithLogger(log.Named("matchmaker")))
	start := time.Now()
	for i := 0; i < f.cycles; i++ {
		mm.Step(ctx)
	}
	stats := mm.Stats()
	log.Info(ctx, "simulation finished",
		logger.Int("cycles", f.cycles),
		logger.Int("matches", stats.TotalMatches),
		logger.Float64("avg_balance", stats.AvgBalance),
		logger.Float64("avg_wait", stats.AvgWait),
		logger.String("elapsed", time.Since(start).String()))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
