package main

import (
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/sharebite/sharebite/internal/bootstrap"
	"github.com/sharebite/sharebite/internal/config"
	"github.com/sharebite/sharebite/internal/server"
	"github.com/sharebite/sharebite/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedDemoUsers(db); err != nil {
			log.Fatalf("failed to seed demo users: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	} else {
		log.Println("REDIS_URL not set; change feed and rate limiting disabled")
	}

	srv := server.NewServer(cfg, db, redisClient)

	log.Printf("listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
