package main

import (
	"context"
	"log"
	"os"
	"time"

	"chatminder/internal/api"
	"chatminder/internal/config"
	"chatminder/internal/convstate"
	"chatminder/internal/redis"
	"chatminder/internal/service/ai"
	"chatminder/internal/service/assistant"
	"chatminder/internal/service/intent"
	"chatminder/internal/storage"
	"chatminder/internal/timeparse"
	"chatminder/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("CHATMINDER_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("CHATMINDER_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create necessary tables: messages, reminders
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// Redis is optional: without it conversation state is memory-only.
	rdb, err := redis.NewClient(cfg)
	if err != nil {
		log.Printf("redis unavailable, conversation state not mirrored: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	assistantService := assistant.NewService(db)
	stateStore := convstate.NewStore(rdb)

	var confirmer intent.ConfirmationGenerator
	if provider := cfg.BasicConfig.ConfirmProvider; provider != "" {
		c, err := ai.NewConfirmer(cfg, provider)
		if err != nil {
			log.Printf("confirmation model unavailable, using templates: %v", err)
		} else {
			confirmer = c
		}
	}

	engine := intent.NewEngine(stateStore, assistantService, timeparse.New(), confirmer)

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	pollInterval := time.Duration(cfg.BasicConfig.PollIntervalSeconds) * time.Second
	scheduler := worker.NewScheduler(assistantService, nil, worker.DispatcherConfig{
		MinWorkers:        cfg.BasicConfig.MinWorkers,
		MaxWorkers:        cfg.BasicConfig.MaxWorkers,
		QueueSize:         cfg.BasicConfig.QueueSize,
		WorkerIdleTimeout: time.Duration(cfg.BasicConfig.WorkerIdleTimeout) * time.Minute,
	}, pollInterval)
	scheduler.Start(schedCtx)

	handlers := api.NewHandler(assistantService, engine, stateStore, cfg.BasicConfig.ContextWindowMinutes)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
