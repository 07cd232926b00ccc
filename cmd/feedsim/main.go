package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/blazesportsintel/livefeed/internal/config"
	"github.com/blazesportsintel/livefeed/internal/fixtures"
	"github.com/blazesportsintel/livefeed/internal/queue"
)

var (
	cfgFile string
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
)

func setupLogger(verbose bool, level string) (*zap.Logger, error) {
	var zapConfig zap.Config
	if verbose {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.DisableStacktrace = true
	}

	if level != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(level)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(l)
		}
	}

	return zapConfig.Build()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "feedsim",
		Short: "Replay recorded play-by-play fixtures into the live event stream",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}

			logger, err = setupLogger(verbose, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("setting up logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(newReplayCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newReplayCmd() *cobra.Command {
	var (
		gameID          string
		fixturePath     string
		eventsPerSecond float64
		loop            bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Publish fixture events to the game's Redis stream at a fixed pace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID == "" {
				gameID = cfg.Replay.GameID
			}
			if fixturePath == "" {
				fixturePath = cfg.Replay.FixturePath
			}
			if eventsPerSecond == 0 {
				eventsPerSecond = cfg.Replay.EventsPerSecond
			}
			if !loop {
				loop = cfg.Replay.Loop
			}

			if gameID == "" {
				return fmt.Errorf("--game-id is required")
			}
			if fixturePath == "" {
				return fmt.Errorf("--fixture is required")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return runReplay(ctx, gameID, fixturePath, eventsPerSecond, loop)
		},
	}

	cmd.Flags().StringVar(&gameID, "game-id", "", "game to publish events for")
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "fixture file (.jsonl or .jsonl.zst)")
	cmd.Flags().Float64Var(&eventsPerSecond, "events-per-second", 0, "publish pace")
	cmd.Flags().BoolVar(&loop, "loop", false, "restart from the top when the fixture ends")

	return cmd
}

func runReplay(ctx context.Context, gameID, fixturePath string, eventsPerSecond float64, loop bool) error {
	events, err := fixtures.LoadEvents(fixturePath, logger)
	if err != nil {
		return err
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	source := queue.NewRedisSource(client, "feedsim", logger)

	limiter := rate.NewLimiter(rate.Limit(eventsPerSecond), 1)

	logger.Info("replay starting",
		zap.String("gameId", gameID),
		zap.String("fixture", fixturePath),
		zap.Int("events", len(events)),
		zap.Float64("eventsPerSecond", eventsPerSecond),
		zap.Bool("loop", loop),
	)

	published := 0
	for {
		for _, event := range events {
			if err := limiter.Wait(ctx); err != nil {
				logger.Info("replay stopped", zap.Int("published", published))
				return nil
			}

			if err := source.Publish(ctx, gameID, event); err != nil {
				logger.Warn("publish failed", zap.Error(err))
				continue
			}
			published++
		}

		if !loop {
			break
		}
		logger.Info("fixture exhausted, looping", zap.Int("published", published))
	}

	logger.Info("replay complete", zap.Int("published", published))
	return nil
}
