package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-manager/internal/bot"
	"todo-manager/internal/config"
	"todo-manager/internal/logger"
	"todo-manager/internal/repository"
	"todo-manager/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	log := logger.Init(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		logger.Fatal("config", "err", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		logger.Fatal("db", "err", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	taskRepo := repository.NewTaskRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	prefsRepo := repository.NewPreferencesRepository(db)

	taskSvc := service.NewTaskService(taskRepo)
	prefsSvc := service.NewPreferencesService(prefsRepo)
	reminderSvc := service.NewReminderService(taskRepo, reminderRepo, prefsRepo, log)

	telegramBot, err := bot.New(cfg.TelegramToken, cfg.OwnerID, taskSvc, reminderSvc, prefsSvc, log)
	if err != nil {
		logger.Fatal("bot", "err", err)
	}

	scheduler := service.NewSchedulerService(time.Local, log)
	if _, err := scheduler.ScheduleInterval("reminders", cfg.ReminderInterval, func(ctx context.Context) error {
		sent, err := reminderSvc.DispatchDue(ctx, time.Now(), telegramBot)
		if sent > 0 {
			logger.Info("reminders sent", "count", sent)
		}
		return err
	}); err != nil {
		logger.Fatal("schedule reminders", "err", err)
	}
	if cfg.DigestTime != "" {
		if _, err := scheduler.ScheduleDaily("digest", cfg.DigestTime, func(ctx context.Context) error {
			return reminderSvc.SendDailyDigest(ctx, time.Now(), telegramBot)
		}); err != nil {
			logger.Fatal("schedule digest", "err", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.OwnerID == 0 {
		logger.Warn("OWNER_ID is not set, the first account to write to the bot will own it")
	}
	logger.Info("to-do manager started", "db", cfg.DatabaseURL)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped with error", "err", err)
	}
	logger.Info("shutdown complete")
}
