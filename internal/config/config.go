package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Pyserver  PyserverConfig
	Storage   StorageConfig
	JWT       JWTConfig
	Worker    WorkerConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PyserverConfig struct {
	BaseURL string
	// MinCallIntervalMS is the shared QPS ceiling across all workers;
	// zero disables the limiter.
	MinCallIntervalMS int
}

type StorageConfig struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

type JWTConfig struct {
	Secret string
}

type WorkerConfig struct {
	Concurrency int
}

type RateLimitConfig struct {
	ReportsPerHour int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("pyserver.base_url", "http://localhost:8000")
	viper.SetDefault("pyserver.min_call_interval_ms", 0)
	viper.SetDefault("storage.region", "auto")
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("worker.concurrency", 10)
	viper.SetDefault("ratelimit.reports_per_hour", 10)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Pyserver: PyserverConfig{
			BaseURL:           viper.GetString("pyserver.base_url"),
			MinCallIntervalMS: viper.GetInt("pyserver.min_call_interval_ms"),
		},
		Storage: StorageConfig{
			Region:          viper.GetString("storage.region"),
			Bucket:          viper.GetString("storage.bucket"),
			Endpoint:        viper.GetString("storage.endpoint"),
			AccessKeyID:     viper.GetString("storage.access_key_id"),
			SecretAccessKey: viper.GetString("storage.secret_access_key"),
			PublicURL:       viper.GetString("storage.public_url"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		Worker: WorkerConfig{
			Concurrency: viper.GetInt("worker.concurrency"),
		},
		RateLimit: RateLimitConfig{
			ReportsPerHour: viper.GetInt("ratelimit.reports_per_hour"),
		},
	}

	return cfg, nil
}
