package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/holy-trivia-bot/internal/achievement"
	"github.com/aliskhannn/holy-trivia-bot/internal/config"
	"github.com/aliskhannn/holy-trivia-bot/internal/delivery/telegram"
	"github.com/aliskhannn/holy-trivia-bot/internal/feedback"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/postgres"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/redis"
	"github.com/aliskhannn/holy-trivia-bot/internal/logger"
	"github.com/aliskhannn/holy-trivia-bot/internal/metrics"
	questions "github.com/aliskhannn/holy-trivia-bot/internal/repository"
	"github.com/aliskhannn/holy-trivia-bot/internal/service"
)

// leaderboardRebuildLimit bounds how many players are reloaded into Redis
// at startup.
const leaderboardRebuildLimit = 1000

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("bot stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := questions.NewQuestionRepository(cfg.QuestionsJSONPath)
	if err != nil {
		return err
	}

	dsn, err := cfg.DB.DSN()
	if err != nil {
		return err
	}
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	playerRepo := repository.NewPlayerRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	recorder := service.NewTxRecorder(postgres.NewTransactor(pool))
	board := redis.NewLeaderboardRepository(rdb)

	m := metrics.New()
	achievements := achievement.NewManager(playerRepo, nil)

	playerService := service.NewPlayerService(playerRepo, recorder, achievements, board, cfg.DefaultTimezone, lg)
	gameService := service.NewGameService(ctx,
		catalog,
		recorder,
		achievements,
		board,
		m,
		feedback.NewLog(lg),
		service.QuizTiming{
			QuestionTimeout: cfg.Quiz.QuestionTimeout(),
			AdvanceDelay:    cfg.Quiz.AdvanceDelay,
			TickInterval:    cfg.Quiz.TickInterval,
		},
		lg,
	)
	defer gameService.Shutdown()

	statsService := service.NewStatsService(playerRepo, sessionRepo, achievements)
	leaderboardService := service.NewLeaderboardService(board, playerRepo, lg)
	reminderService := service.NewReminderService(playerRepo, m, service.ReminderOptions{
		Schedule:    cfg.Reminders.Schedule,
		Concurrency: cfg.Reminders.Concurrency,
		LocalHour:   cfg.Reminders.LocalHour,
	}, lg)

	if err := leaderboardService.Rebuild(ctx, leaderboardRebuildLimit); err != nil {
		lg.Warn("failed to rebuild leaderboard", zap.Error(err))
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	bot.Debug = cfg.Env == "local"
	lg.Info("authorized on account", zap.String("username", bot.Self.UserName))

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(botCommands()...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	handler := telegram.NewHandler(
		bot,
		lg,
		playerService,
		gameService,
		statsService,
		leaderboardService,
		catalog,
		cfg.Quiz.QuestionTimeout(),
	)
	gameService.SetSink(handler)
	reminderService.SetNotifier(handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return handler.Run(gctx) })
	g.Go(func() error { return reminderService.Start(gctx) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return m.Serve(gctx, cfg.MetricsAddr) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	lg.Info("shutdown signal received")
	return nil
}

func botCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "play", Description: "Start a 10-question quiz"},
		{Command: "stats", Description: "Show your level and XP"},
		{Command: "streak", Description: "Show your daily streak"},
		{Command: "achievements", Description: "Show achievements"},
		{Command: "leaderboard", Description: "Show top players"},
		{Command: "timezone", Description: "Set your timezone (usage: /timezone Europe/Berlin)"},
		{Command: "reset", Description: "Reset all progress"},
		{Command: "help", Description: "Help"},
	}
}
