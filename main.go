package main

import (
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"Workshop/Config"
	"Workshop/CronJobs"
	"Workshop/FiberConfig"
	"Workshop/Maintenance"
	"Workshop/Models"
	"Workshop/Slack"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := Config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	setupLogging(cfg.Log)

	db, err := Models.Connect(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	if err := Models.SeedAdmin(db, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		logrus.WithError(err).Fatal("failed to seed administrator")
	}
	Models.SundryRate = decimal.NewFromFloat(cfg.JobCards.SundryRate)

	service := Maintenance.NewService(db, Maintenance.NewSequencer(cfg.JobCards.NumberFormat))
	if cfg.SlackEnabled() {
		service.Notifier = Slack.NewNotifier(cfg.Slack.BotToken, cfg.Slack.ChannelID)
	}

	if cfg.JobCards.AutoGenerateSchedule != "" {
		scheduler := CronJobs.NewAutoGenerateScheduler(service, cfg.JobCards.AutoGenerateSchedule)
		if err := scheduler.Start(); err != nil {
			logrus.WithError(err).Fatal("failed to start auto-generate scheduler")
		}
		defer scheduler.Stop()
	}

	app := FiberConfig.NewApp(FiberConfig.Dependencies{
		DB:      db,
		Config:  cfg,
		Service: service,
		Logger:  logrus.StandardLogger(),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logrus.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logrus.WithError(err).Error("shutdown failed")
		}
	}()

	logrus.WithField("port", cfg.Port).Info("Server Up...")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

// setupLogging sends JSON logs to stdout and, when configured, to a file.
func setupLogging(cfg Config.LogConfig) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logrus.SetLevel(level)
	}
	if cfg.File == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		logrus.WithError(err).Warn("error creating logs directory")
		return
	}
	logFile, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		logrus.WithError(err).Warn("error opening log file")
		return
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, logFile))
}
