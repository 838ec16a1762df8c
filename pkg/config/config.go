package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"INCENTRA_APP_ENV" required:"true"`
	Port         string `envconfig:"INCENTRA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INCENTRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INCENTRA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"INCENTRA_DB_DSN"`

	LegacyHost     string `envconfig:"INCENTRA_DB_HOST"`
	LegacyPort     int    `envconfig:"INCENTRA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INCENTRA_DB_USER"`
	LegacyPassword string `envconfig:"INCENTRA_DB_PASSWORD"`
	LegacyName     string `envconfig:"INCENTRA_DB_NAME"`
	LegacySSLMode  string `envconfig:"INCENTRA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INCENTRA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INCENTRA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INCENTRA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INCENTRA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INCENTRA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"INCENTRA_REDIS_ADDR"`
	Password     string        `envconfig:"INCENTRA_REDIS_PASSWORD"`
	DB           int           `envconfig:"INCENTRA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INCENTRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INCENTRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INCENTRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INCENTRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INCENTRA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type IdempotencyConfig struct {
	DecisionTTL time.Duration `envconfig:"INCENTRA_IDEMPOTENCY_DECISION_TTL" default:"168h"`
	DefaultTTL  time.Duration `envconfig:"INCENTRA_IDEMPOTENCY_DEFAULT_TTL" default:"24h"`
}

type RateLimitConfig struct {
	SignupWindow     time.Duration `envconfig:"INCENTRA_RATE_LIMIT_SIGNUP_WINDOW" default:"1h"`
	SignupIPLimit    int64         `envconfig:"INCENTRA_RATE_LIMIT_SIGNUP_IP" default:"20"`
	SignupEmailLimit int64         `envconfig:"INCENTRA_RATE_LIMIT_SIGNUP_EMAIL" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"INCENTRA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
