package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"flask-test-app/config"
	"flask-test-app/handlers"
	"flask-test-app/logging"
	"flask-test-app/server"
	"flask-test-app/services"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}

	logging.InitLogger(cfg.Log)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting flask-test-app...")

	appService := services.NewAppService()
	appHandler := handlers.NewAppHandler(appService, cfg.MaxBodyBytes)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, server.NewHandler(cfg, appHandler))
	if err := srv.Run(ctx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_FATAL_ERROR, Description: Server failed: %v", err)
		stop()
		os.Exit(1)
	}
}
