package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ndanilin/linkpage-server/internal/api/http/handler"
	"github.com/ndanilin/linkpage-server/internal/api/http/middleware"
	"github.com/ndanilin/linkpage-server/internal/api/http/router"
	httpserver "github.com/ndanilin/linkpage-server/internal/api/http/server"
	"github.com/ndanilin/linkpage-server/internal/config"
	"github.com/ndanilin/linkpage-server/internal/logger"
	"github.com/ndanilin/linkpage-server/internal/media"
	"github.com/ndanilin/linkpage-server/internal/model"
	"github.com/ndanilin/linkpage-server/internal/repository/postgres"
	"github.com/ndanilin/linkpage-server/internal/server"
	"github.com/ndanilin/linkpage-server/internal/service"
	storage "github.com/ndanilin/linkpage-server/internal/storage/minio"
	"github.com/ndanilin/linkpage-server/internal/token"
	"github.com/ndanilin/linkpage-server/internal/web"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.Secret)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	mediaStore, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket, cfg.Storage.PublicURL)
	if err != nil {
		logger.Fatal("failed to initialize media storage", "error", err)
	}

	authService := service.NewAuth(userRepo, profileRepo, refreshTokenRepo, tokenManager, logger)
	editorService := service.NewEditor(profileRepo, mediaStore, media.NewThumbnailResolver(), logger)
	resolverService := service.NewResolver(profileRepo, cfg.Public.FallbackUsernames, logger)

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Fatal("failed to initialize renderer", "error", err)
	}

	mux := router.New(
		router.Handlers{
			Auth:   handler.NewAuth(authService, logger),
			Editor: handler.NewEditor(editorService, logger),
			Public: handler.NewPublic(resolverService, renderer, logger),
			Media:  handler.NewMedia(mediaStore, logger),
		},
		router.Middleware{
			Authenticate: middleware.NewAuthenticate(authService.TokenService(), logger),
			Logging:      middleware.NewLogging(logger),
		},
	)

	srv := httpserver.NewServer(mux, fmt.Sprintf(":%s", cfg.HTTP.Port), logger)

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
