package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	GenAI        GenAIConfig
	Recommend    RecommendConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SMARTDINE_APP_ENV" required:"true"`
	Port         string `envconfig:"SMARTDINE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SMARTDINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SMARTDINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SMARTDINE_DB_DSN"`
	Driver string `envconfig:"SMARTDINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SMARTDINE_DB_HOST"`
	Port     int    `envconfig:"SMARTDINE_DB_PORT" default:"5432"`
	User     string `envconfig:"SMARTDINE_DB_USER"`
	Password string `envconfig:"SMARTDINE_DB_PASSWORD"`
	Name     string `envconfig:"SMARTDINE_DB_NAME"`
	SSLMode  string `envconfig:"SMARTDINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SMARTDINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SMARTDINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SMARTDINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SMARTDINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either SMARTDINE_DB_DSN or host/user/name settings are required")
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	query := dsn.Query()
	query.Set("sslmode", d.SSLMode)
	dsn.RawQuery = query.Encode()
	d.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SMARTDINE_REDIS_URL"`
	Address      string        `envconfig:"SMARTDINE_REDIS_ADDR"`
	Password     string        `envconfig:"SMARTDINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SMARTDINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SMARTDINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SMARTDINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SMARTDINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SMARTDINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SMARTDINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SMARTDINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SMARTDINE_JWT_ISSUER" default:"smartdine"`
	ExpirationMinutes int    `envconfig:"SMARTDINE_JWT_EXPIRATION_MINUTES" default:"120"`
}

// GenAIConfig describes the external chat-completions generator.
type GenAIConfig struct {
	BaseURL     string        `envconfig:"SMARTDINE_GENAI_BASE_URL"`
	APIKey      string        `envconfig:"SMARTDINE_GENAI_API_KEY"`
	Model       string        `envconfig:"SMARTDINE_GENAI_MODEL" default:"deepseek-chat"`
	Timeout     time.Duration `envconfig:"SMARTDINE_GENAI_TIMEOUT" default:"25s"`
	Temperature float64       `envconfig:"SMARTDINE_GENAI_TEMPERATURE" default:"0.2"`
}

type RecommendConfig struct {
	CandidateLimit int           `envconfig:"SMARTDINE_RECOMMEND_CANDIDATE_LIMIT" default:"30"`
	CacheTTL       time.Duration `envconfig:"SMARTDINE_RECOMMEND_CACHE_TTL" default:"2m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SMARTDINE_AUTO_MIGRATE" default:"false"`
}
