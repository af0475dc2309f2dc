package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Port string

	StorageDriver string
	DatabaseURL   string
	SeedDemoData  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	SessionTTL       time.Duration
	SimulatedLatency time.Duration
	ActivityFeedSize int
	EthereumRPCURL   string
	SolanaRPCURL     string
}

// Load reads an optional .env file, an optional config.yaml in the working
// directory and the process environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("storage_driver", StorageMemory)
	v.SetDefault("database_url", "")
	v.SetDefault("seed_demo_data", true)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "chromapay")
	v.SetDefault("jwt_ttl", 24*time.Hour)
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("simulated_latency", time.Second)
	v.SetDefault("activity_feed_size", 100)
	v.SetDefault("ethereum_rpc_url", "")
	v.SetDefault("solana_rpc_url", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Port:             v.GetString("port"),
		StorageDriver:    strings.ToLower(v.GetString("storage_driver")),
		DatabaseURL:      v.GetString("database_url"),
		SeedDemoData:     v.GetBool("seed_demo_data"),
		RedisAddr:        v.GetString("redis_addr"),
		RedisPassword:    v.GetString("redis_password"),
		RedisDB:          v.GetInt("redis_db"),
		JWTSecret:        v.GetString("jwt_secret"),
		JWTIssuer:        v.GetString("jwt_issuer"),
		JWTTTL:           v.GetDuration("jwt_ttl"),
		SessionTTL:       v.GetDuration("session_ttl"),
		SimulatedLatency: v.GetDuration("simulated_latency"),
		ActivityFeedSize: v.GetInt("activity_feed_size"),
		EthereumRPCURL:   v.GetString("ethereum_rpc_url"),
		SolanaRPCURL:     v.GetString("solana_rpc_url"),
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.SimulatedLatency < 0 {
		return fmt.Errorf("SIMULATED_LATENCY must not be negative, got %s", c.SimulatedLatency)
	}
	if c.ActivityFeedSize <= 0 {
		return fmt.Errorf("ACTIVITY_FEED_SIZE must be positive, got %d", c.ActivityFeedSize)
	}
	return nil
}
