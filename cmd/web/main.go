package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"jobassess/internal/app"
	"jobassess/internal/cache"
	"jobassess/internal/db"
	"jobassess/internal/store"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := app.LoadConfig()
	ctx := context.Background()

	dbConn, err := db.OpenPostgresWithConfig(ctx, cfg.DBDSN, db.PostgresConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifeMins) * time.Minute,
	})
	if err != nil {
		log.Printf("database error: %v", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if cfg.DBAutoMigrate {
		if err := db.EnsureSchema(ctx, dbConn); err != nil {
			log.Printf("schema error: %v", err)
			os.Exit(1)
		}
	}

	st := store.New(dbConn)
	var src app.Source = st
	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Printf("redis unavailable at %s, assessment cache disabled: %v", cfg.RedisAddr, err)
		} else {
			src = cache.NewCachedSource(st, cache.NewAssessmentCache(rdb, cfg.CacheTTL))
			log.Printf("assessment cache enabled addr=%s ttl=%s", cfg.RedisAddr, cfg.CacheTTL)
		}
	}

	r := app.NewRouter(cfg, dbConn, src)

	log.Printf("jobassess web listening on %s (env=%s)", cfg.HTTPAddr, cfg.AppEnv)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
