package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"studyroom/internal/config"
	"studyroom/internal/handlers"
	"studyroom/internal/managers"
	"studyroom/internal/presence"
	"studyroom/internal/repositories"
	"studyroom/internal/routers"
)

func main() {
	// Local .env only; deployment environment variables win.
	_ = godotenv.Load()
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := repositories.Open(cfg.Database.URL)
	if err != nil {
		logger.Fatal("ledger database open failed", zap.Error(err))
	}
	repo := repositories.NewStudyTimeRepository(db)

	var publisher managers.PresencePublisher
	if p := presence.New(cfg.Redis.Addr, logger); p != nil {
		defer p.Close()
		publisher = p
	}

	gateway := managers.NewGateway(logger, repo, publisher)
	router := routers.New(handlers.New(logger, cfg, gateway, repo))

	addr := ":" + cfg.Server.Port
	logger.Info("studyroom listening", zap.String("addr", addr))
	log.Fatal(http.ListenAndServe(addr, router))
}
