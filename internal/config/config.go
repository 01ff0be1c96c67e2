package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type AdminConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// LanariConfig holds the mobile-money gateway endpoints and credentials.
// Secrets come from the environment, never from the yaml file.
type LanariConfig struct {
	ProcessURL string `yaml:"process_url"`
	StatusURL  string `yaml:"status_url"`
	PayoutURL  string `yaml:"payout_url"`
	APIKey     string `yaml:"-"`
	APISecret  string `yaml:"-"`
}

type SharesConfig struct {
	FilmmakerPct    int    `yaml:"filmmaker_pct"`
	AdminPct        int    `yaml:"admin_pct"`
	AdminMomoNumber string `yaml:"admin_momo_number"`
}

type TokenConfig struct {
	JWTSecret string `yaml:"-"`
	APIURL    string `yaml:"api_url"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Admin      AdminConfig      `yaml:"admin"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Lanari     LanariConfig     `yaml:"lanari"`
	Shares     SharesConfig     `yaml:"shares"`
	Token      TokenConfig      `yaml:"token"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the yaml file, layers environment overrides on top and
// validates the result. The returned struct is treated as immutable.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 9090
	}
	if cfg.Shares.FilmmakerPct <= 0 {
		cfg.Shares.FilmmakerPct = 70
	}
	if cfg.Shares.AdminPct <= 0 {
		cfg.Shares.AdminPct = 100 - cfg.Shares.FilmmakerPct
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url (or DATABASE_URL) is required")
	}
	if cfg.Shares.FilmmakerPct+cfg.Shares.AdminPct != 100 {
		return nil, errors.New("shares: filmmaker_pct + admin_pct must equal 100")
	}
	if cfg.Token.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// applyEnv maps the deployment environment onto the config struct. This is
// the only place the process reads environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("LANARI_PAY_PROCESS_URL"); v != "" {
		cfg.Lanari.ProcessURL = v
	}
	if v := os.Getenv("LANARI_PAY_STATUS_URL"); v != "" {
		cfg.Lanari.StatusURL = v
	}
	if v := os.Getenv("LANARI_PAY_PAYOUT_URL"); v != "" {
		cfg.Lanari.PayoutURL = v
	}
	cfg.Lanari.APIKey = os.Getenv("LANARI_PAY_API_KEY")
	cfg.Lanari.APISecret = os.Getenv("LANARI_PAY_API_SECRET")
	cfg.Token.JWTSecret = os.Getenv("JWT_SECRET")
	if v := os.Getenv("API_URL"); v != "" {
		cfg.Token.APIURL = v
	}
	if v := os.Getenv("ADMIN_MOMO_NUMBER"); v != "" {
		cfg.Shares.AdminMomoNumber = v
	}
	if v := os.Getenv("FILMMAKER_SHARE_PERCENTAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Shares.FilmmakerPct = n
		}
	}
	if v := os.Getenv("ADMIN_SHARE_PERCENTAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Shares.AdminPct = n
		}
	}
	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		cfg.Admin.APIKey = v
	}
}
