package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Spok95/school-api/internal/app"
	"github.com/Spok95/school-api/internal/config"
	"github.com/Spok95/school-api/internal/ctxutil"
	"github.com/Spok95/school-api/internal/db"
	"github.com/Spok95/school-api/internal/jobs"
	"github.com/Spok95/school-api/internal/logging"
	"github.com/Spok95/school-api/internal/observability"
	"github.com/Spok95/school-api/internal/school"
	"github.com/Spok95/school-api/internal/tg"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env, cfg.Release)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctxutil.DefaultDBTimeout = cfg.DBTimeout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer func() { _ = database.Close() }()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, database); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
	}
	if cfg.SeedDemo {
		if err := db.SeedDemo(ctx, database); err != nil {
			logger.Fatal("seed failed", zap.Error(err))
		}
		logger.Info("demo data seeded")
	}

	store := db.NewStore(database)
	transcripts := school.NewTranscriptService(store, logger)
	grades := school.NewGradeService(store, logger)

	var notifier app.GradeNotifier
	if cfg.NotifyEnabled() {
		bot, err := tg.NewBot(cfg.TelegramToken)
		if err != nil {
			logger.Warn("telegram disabled", zap.Error(err))
		} else {
			logger.Info("telegram notifications enabled", zap.String("bot", bot.Self.UserName))
			notifier = tg.NewNotifier(bot, cfg.TelegramChatID, logger)
		}
	}

	runner := jobs.New(ctx)
	runner.Every(cfg.StatsInterval, "transcript_stats", jobs.TranscriptStats(transcripts))

	router := app.NewRouter(app.Deps{
		Transcripts: transcripts,
		Grades:      grades,
		DB:          database,
		Notifier:    notifier,
		Log:         logger,
		CORSOrigins: cfg.CORSOrigins,
	})
	srv := app.StartHTTP(ctx, cfg.HTTPAddr, router, logger)

	<-ctx.Done()
	logger.Info("shutting down")
	<-srv.Done()
}
