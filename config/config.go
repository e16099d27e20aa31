package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "STARTERPACKS"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Search    SearchConfig    `mapstructure:"search"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	Mode           string `mapstructure:"mode"`
	StaticDir      string `mapstructure:"static_dir"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
}

// StoreConfig selects the document store backend.
// "memory" serves a JSON fixture and is meant for local development.
type StoreConfig struct {
	Driver  string `mapstructure:"driver"`
	Fixture string `mapstructure:"fixture"`
}

type MongoConfig struct {
	URI             string        `mapstructure:"uri"`
	Database        string        `mapstructure:"database"`
	PacksCollection string        `mapstructure:"packs_collection"`
	UsersCollection string        `mapstructure:"users_collection"`
	MaxPoolSize     uint64        `mapstructure:"max_pool_size"`
	MinPoolSize     uint64        `mapstructure:"min_pool_size"`
	OpTimeout       time.Duration `mapstructure:"op_timeout"`
}

type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// CacheConfig TTLs; zero disables the corresponding cache.
type CacheConfig struct {
	StatsTTL  time.Duration `mapstructure:"stats_ttl"`
	LabelsTTL time.Duration `mapstructure:"labels_ttl"`
}

type RateLimitConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	PerMinute int  `mapstructure:"per_minute"`
	FailOpen  bool `mapstructure:"fail_open"`
}

type SearchConfig struct {
	RawPattern           bool `mapstructure:"raw_pattern"`
	KeepNoRemainingPacks bool `mapstructure:"keep_no_remaining_packs"`
	MaxLabelIDs          int  `mapstructure:"max_label_ids"`
}

type StatsConfig struct {
	Strict bool `mapstructure:"strict"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.static_dir", "./web")
	v.SetDefault("server.max_concurrency", 256)

	v.SetDefault("store.driver", "mongo")
	v.SetDefault("store.fixture", "")

	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "starterpacks")
	v.SetDefault("mongo.packs_collection", "starter_packs")
	v.SetDefault("mongo.users_collection", "users")
	v.SetDefault("mongo.max_pool_size", 50)
	v.SetDefault("mongo.min_pool_size", 0)
	v.SetDefault("mongo.op_timeout", 10*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("cache.stats_ttl", time.Duration(0))
	v.SetDefault("cache.labels_ttl", 5*time.Minute)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.per_minute", 120)
	v.SetDefault("ratelimit.fail_open", true)

	v.SetDefault("search.raw_pattern", false)
	v.SetDefault("search.keep_no_remaining_packs", true)
	v.SetDefault("search.max_label_ids", 100)

	v.SetDefault("stats.strict", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
}

// LoadConfig reads the TOML file at path (optional when empty or missing),
// applies defaults and lets STARTERPACKS_* environment variables override.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// MONGODB_URI is what the ingestion side and older deployments export.
	if uri := os.Getenv("MONGODB_URI"); uri != "" && os.Getenv(envPrefix+"_MONGO_URI") == "" {
		config.Mongo.URI = uri
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "mongo":
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri is required when store.driver is mongo")
		}
		if c.Mongo.Database == "" {
			return errors.New("mongo.database is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Mongo.OpTimeout <= 0 {
		return errors.New("mongo.op_timeout must be positive")
	}
	if c.RateLimit.Enabled && !c.Redis.Enabled {
		return errors.New("ratelimit requires redis.enabled")
	}
	if c.Search.MaxLabelIDs <= 0 {
		return errors.New("search.max_label_ids must be positive")
	}
	return nil
}

// Addr returns the host:port the Redis client dials.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
