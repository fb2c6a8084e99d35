package data

import (
	"context"
	"fmt"

	archivedata "github.com/lk2023060901/file-archive-backend/internal/archive/data"
	"github.com/lk2023060901/file-archive-backend/internal/conf"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/database"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

// Data bundles the shared infrastructure handles
type Data struct {
	DB          *database.DB
	RedisClient *redis.Client
	Fs          afero.Fs
	Logger      *logger.Logger
}

// NewData initializes PostgreSQL, Redis and the storage filesystem
func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := db.AutoMigrate(&archivedata.FileRecordPO{}, &archivedata.UserPO{}); err != nil {
		return nil, nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr(),
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	fs := afero.NewOsFs()
	for _, dir := range []string{config.Storage.StagingDir, config.Storage.ActiveDir, config.Storage.TrashDir} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create storage zone %s: %w", dir, err)
		}
	}

	d := &Data{
		DB:          db,
		RedisClient: redisClient,
		Fs:          fs,
		Logger:      log,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")

		if err := db.Close(); err != nil {
			log.Warn("failed to close database: " + err.Error())
		}
		if err := redisClient.Close(); err != nil {
			log.Warn("failed to close redis: " + err.Error())
		}
	}

	return d, cleanup, nil
}
