package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lk2023060901/file-archive-backend/internal/archive/biz"
	archivedata "github.com/lk2023060901/file-archive-backend/internal/archive/data"
	archiveservice "github.com/lk2023060901/file-archive-backend/internal/archive/service"
	"github.com/lk2023060901/file-archive-backend/internal/archive/storage"
	"github.com/lk2023060901/file-archive-backend/internal/archive/worker"
	"github.com/lk2023060901/file-archive-backend/internal/conf"
	"github.com/lk2023060901/file-archive-backend/internal/data"
	"github.com/lk2023060901/file-archive-backend/internal/email"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/notify"
	"github.com/lk2023060901/file-archive-backend/internal/server"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("config loaded successfully")

	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Repositories and collaborators
	recordRepo := archivedata.NewFileRecordRepo(d.DB)
	adminRepo := archivedata.NewAdminActivityRepo(d.DB)
	statsCache := archivedata.NewRedisStatsCache(d.RedisClient)
	hub := notify.NewHub()
	mover := storage.NewMover(d.Fs, config.Storage.StagingDir, config.Storage.ActiveDir, config.Storage.TrashDir, log.Logger)
	locker := biz.NewRedisVersionLocker(d.RedisClient, config.Lifecycle.VersionLockTTL)

	var mailer biz.SweepMailer
	if config.SMTP.Enabled {
		m, err := email.NewMailer(&config.SMTP)
		if err != nil {
			log.Fatal("failed to initialize sweep mailer", zap.Error(err))
		}
		mailer = m
	}

	policy := biz.Policy{
		RetentionDays:   config.Lifecycle.RetentionDays,
		InactivityDays:  config.Lifecycle.InactivityDays,
		SweepSampleSize: config.Lifecycle.SweepSampleSize,
		TrashStatsTTL:   config.Lifecycle.TrashStatsCacheTTL,
	}

	fileUseCase := biz.NewFileUseCase(recordRepo, adminRepo, mover, hub, locker, statsCache, mailer, policy, log.Logger)

	// Background loops: independent tickers, shared store, coordinated
	// only by cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loops := []*worker.Loop{
		worker.NewScheduledUploadProcessor(fileUseCase, config.Lifecycle.ProcessorInterval, log.Logger),
		worker.NewTrashReaper(fileUseCase, config.Lifecycle.ReaperInterval, log.Logger),
		worker.NewInactivityScanner(fileUseCase, config.Lifecycle.ScannerInterval, log.Logger),
	}
	for _, loop := range loops {
		if err := loop.Start(ctx); err != nil {
			log.Fatal("failed to start background loop", zap.Error(err))
		}
	}

	fileService := archiveservice.NewFileService(fileUseCase, log.Logger)
	httpServer := server.NewHTTPServer(config, log.Logger, fileService, hub)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	cancel()
	for _, loop := range loops {
		loop.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
