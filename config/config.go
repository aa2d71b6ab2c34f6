// file: config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务的全部配置，来源优先级：环境变量 > 配置文件 > 默认值
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	// Driver 取值 mysql / sqlite
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	// ScoreboardTTL 排行榜缓存有效期
	ScoreboardTTL time.Duration `yaml:"scoreboard_ttl"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type ReconcileConfig struct {
	// OnStartup 服务启动时执行一次补判
	OnStartup bool `yaml:"on_startup"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{
			Driver:          "mysql",
			DSN:             "root:123456@tcp(localhost:3306)/dali_ctf?charset=utf8mb4&parseTime=True&loc=UTC",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		Redis: RedisConfig{
			Enabled:       true,
			Addr:          "localhost:6379",
			PoolSize:      100,
			ScoreboardTTL: 15 * time.Second,
		},
		JWT: JWTConfig{
			Secret: "dev-secret-change-in-production",
			TTL:    7 * 24 * time.Hour,
		},
		Reconcile: ReconcileConfig{OnStartup: true},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load 读取 path 指向的 YAML 文件（path 为空则跳过），再叠加环境变量
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is empty")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is empty")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis enabled but addr is empty")
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("DALICTF_ADDR", &cfg.Server.Addr)
	str("DALICTF_DB_DRIVER", &cfg.Database.Driver)
	str("DALICTF_DB_DSN", &cfg.Database.DSN)
	integer("DALICTF_DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)
	integer("DALICTF_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	duration("DALICTF_DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
	boolean("DALICTF_REDIS_ENABLED", &cfg.Redis.Enabled)
	str("DALICTF_REDIS_ADDR", &cfg.Redis.Addr)
	str("DALICTF_REDIS_PASSWORD", &cfg.Redis.Password)
	integer("DALICTF_REDIS_DB", &cfg.Redis.DB)
	duration("DALICTF_SCOREBOARD_TTL", &cfg.Redis.ScoreboardTTL)
	str("DALICTF_JWT_SECRET", &cfg.JWT.Secret)
	duration("DALICTF_JWT_TTL", &cfg.JWT.TTL)
	boolean("DALICTF_RECONCILE_ON_STARTUP", &cfg.Reconcile.OnStartup)
	str("DALICTF_LOG_LEVEL", &cfg.Log.Level)
	str("DALICTF_LOG_FORMAT", &cfg.Log.Format)

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	return errors.Join(errs...)
}
