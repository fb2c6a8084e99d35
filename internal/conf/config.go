package conf

import (
	"fmt"
	"time"

	"github.com/lk2023060901/file-archive-backend/internal/pkg/database"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  database.Config
	Redis     RedisConfig
	Storage   StorageConfig
	Lifecycle LifecycleConfig
	SMTP      SMTPConfig
	Log       logger.Config
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig names the physical zones files move between.
type StorageConfig struct {
	StagingDir string `mapstructure:"staging_dir"`
	ActiveDir  string `mapstructure:"active_dir"`
	TrashDir   string `mapstructure:"trash_dir"`
}

// LifecycleConfig holds the time-window policy knobs and loop periods.
type LifecycleConfig struct {
	RetentionDays       int           `mapstructure:"retention_days"`
	InactivityDays      int           `mapstructure:"inactivity_days"`
	ProcessorInterval   time.Duration `mapstructure:"processor_interval"`
	ReaperInterval      time.Duration `mapstructure:"reaper_interval"`
	ScannerInterval     time.Duration `mapstructure:"scanner_interval"`
	SweepSampleSize     int           `mapstructure:"sweep_sample_size"`
	VersionLockTTL      time.Duration `mapstructure:"version_lock_ttl"`
	TrashStatsCacheTTL  time.Duration `mapstructure:"trash_stats_cache_ttl"`
}

type SMTPConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Lifecycle.RetentionDays == 0 {
		c.Lifecycle.RetentionDays = 7
	}
	if c.Lifecycle.InactivityDays == 0 {
		c.Lifecycle.InactivityDays = 30
	}
	if c.Lifecycle.ProcessorInterval == 0 {
		c.Lifecycle.ProcessorInterval = 30 * time.Second
	}
	if c.Lifecycle.ReaperInterval == 0 {
		c.Lifecycle.ReaperInterval = time.Hour
	}
	if c.Lifecycle.ScannerInterval == 0 {
		c.Lifecycle.ScannerInterval = 24 * time.Hour
	}
	if c.Lifecycle.SweepSampleSize == 0 {
		c.Lifecycle.SweepSampleSize = 10
	}
	if c.Lifecycle.VersionLockTTL == 0 {
		c.Lifecycle.VersionLockTTL = 5 * time.Second
	}
	if c.Lifecycle.TrashStatsCacheTTL == 0 {
		c.Lifecycle.TrashStatsCacheTTL = 30 * time.Second
	}
	if c.Storage.StagingDir == "" {
		c.Storage.StagingDir = "storage/staging"
	}
	if c.Storage.ActiveDir == "" {
		c.Storage.ActiveDir = "storage/active"
	}
	if c.Storage.TrashDir == "" {
		c.Storage.TrashDir = "storage/trash"
	}
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
