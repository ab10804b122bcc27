package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/pablosocial/pablo/internal/api"
	"github.com/pablosocial/pablo/internal/archive"
	"github.com/pablosocial/pablo/internal/config"
	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/oauth"
	"github.com/pablosocial/pablo/internal/pkg/logger"
	"github.com/pablosocial/pablo/internal/repository/postgres"
	"github.com/pablosocial/pablo/internal/service/apikey"
	"github.com/pablosocial/pablo/internal/service/build"
	"github.com/pablosocial/pablo/internal/service/connection"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("load config failed", "path", *configPath, "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("open database failed", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("database unreachable", "error", err.Error())
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable", "addr", cfg.Redis.Addr, "error", err.Error())
		os.Exit(1)
	}

	var archiver archive.Store = archive.Noop{}
	if cfg.Archive.Enabled && cfg.Archive.S3Bucket != "" {
		s3Archiver, err := archive.NewS3Archiver(ctx, cfg.Archive.S3Bucket, cfg.Archive.S3Region, cfg.Archive.GetAWSProfile())
		if err != nil {
			logger.Error("archive setup failed", "error", err.Error())
			os.Exit(1)
		}
		archiver = s3Archiver
		logger.Info("payload archiving enabled", "bucket", cfg.Archive.S3Bucket)
	}

	builds := build.NewService(postgres.NewAdImportRepo(db))
	connections := connection.NewService(postgres.NewCredentialRepo(db))
	keys := apikey.NewService(postgres.NewAPIKeyRepo(db))

	providers := map[string]oauth.Provider{
		domain.ServiceNotion: oauth.NewNotionProvider(
			cfg.Notion.ClientID, cfg.Notion.ClientSecret,
			cfg.Server.RedirectURI(domain.ServiceNotion)),
		domain.ServiceAirtable: oauth.NewAirtableProvider(
			cfg.Airtable.ClientID, cfg.Airtable.ClientSecret,
			cfg.Server.RedirectURI(domain.ServiceAirtable)),
		domain.ServiceFacebook: oauth.NewFacebookProvider(
			cfg.Facebook.ClientID, cfg.Facebook.ClientSecret,
			cfg.Server.RedirectURI(domain.ServiceFacebook), cfg.Facebook.APIVersion),
	}

	handlers := api.NewHandlers(builds, connections, keys, providers, oauth.NewStateStore(rdb), archiver)
	server := api.NewServer(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr)
		errCh <- server.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		logger.Error("server failed", "error", err.Error())
		os.Exit(1)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("server stopped")
}
