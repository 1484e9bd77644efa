// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telegram-markov-bot/internal/application"
	"telegram-markov-bot/internal/config"
	"telegram-markov-bot/internal/domain/ports/repository"
	tele "telegram-markov-bot/internal/infra/adapters/telegram"
	"telegram-markov-bot/internal/infra/api"
	"telegram-markov-bot/internal/infra/i18n"
	"telegram-markov-bot/internal/infra/keylock"
	"telegram-markov-bot/internal/infra/logging"
	"telegram-markov-bot/internal/infra/memstate"
	"telegram-markov-bot/internal/infra/metrics"
	red "telegram-markov-bot/internal/infra/redis"
	"telegram-markov-bot/internal/infra/sched"
	"telegram-markov-bot/internal/infra/storage/filestore"
	"telegram-markov-bot/internal/infra/worker"
	"telegram-markov-bot/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, full message previews)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("bot stopped")
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	// ---- Storage ----
	samples, err := filestore.NewSampleStore(cfg.Storage.DialogsDir, logger)
	if err != nil {
		return fmt.Errorf("sample store: %w", err)
	}
	settingsStore, err := filestore.NewSettingsStore(cfg.Storage.SettingsDir, logger)
	if err != nil {
		return fmt.Errorf("settings store: %w", err)
	}

	// ---- Redis (optional) ----
	var (
		settingsRepo repository.SettingsRepository = settingsStore
		states       repository.DialogStateRepository
		limiter      tele.RateLimiter
		sweepers     map[string]sched.Sweeper
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		settingsRepo = red.NewSettingsCacheDecorator(settingsStore, redisClient, cfg.Redis.TTL, logger)
		states = red.NewStateRepo(redisClient)
		limiter = red.NewRateLimiter(redisClient)
		logger.Info().Str("addr", cfg.Redis.URL).Msg("redis enabled")
	} else {
		memStates, memLimiter := memstate.NewStateRepo(0), memstate.NewRateLimiter()
		states, limiter = memStates, memLimiter
		sweepers = map[string]sched.Sweeper{"dialogs": memStates, "rate_limits": memLimiter}
		logger.Info().Msg("redis disabled; using in-process state")
	}

	// ---- Use cases ----
	corpusUC := usecase.NewCorpusUseCase(samples, logger)
	settingsUC := usecase.NewSettingsUseCase(settingsRepo, keylock.New(), logger)
	generateUC := usecase.NewGenerateUseCase(samples, settingsUC, nil, usecase.GenerateConfig{
		CommandAttempts:   cfg.Generation.CommandAttempts,
		AutoReplyAttempts: cfg.Generation.AutoReplyAttempts,
		Filler:            cfg.Generation.Filler,
		CapsChance:        cfg.Generation.CapsChance,
	}, logger)
	dialogUC := usecase.NewDialogUseCase(states, settingsUC, logger)

	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	// ---- Facade ----
	facade := application.NewBotFacade(corpusUC, settingsUC, generateUC, dialogUC, translator, logger)

	// ---- Telegram ----
	pool := worker.NewPool(cfg.Bot.Workers, 0, logger)
	bot, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, cfg.RateLimit, facade, translator, limiter, pool, cfg.Runtime.Dev, logger)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.StartPolling(gctx) })
	if sweepers != nil {
		g.Go(func() error { return sched.NewSweepWorker(time.Minute, sweepers, logger).Run(gctx) })
	}

	// ---- Admin API ----
	if cfg.Admin.Port > 0 {
		srv := api.NewServer(corpusUC, settingsUC, generateUC, bot,
			api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL), logger)
		g.Go(func() error { return srv.Run(gctx, fmt.Sprintf(":%d", cfg.Admin.Port)) })
	}

	return g.Wait()
}
