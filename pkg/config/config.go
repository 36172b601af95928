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

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "BITEWISE_APP_ENV"
	EnvDBDSN  = "BITEWISE_DB_DSN"
	EnvDBHost = "BITEWISE_DB_HOST"
	EnvDBUser = "BITEWISE_DB_USER"
	EnvDBName = "BITEWISE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Rewards      RewardsConfig
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
	Env          string `envconfig:"BITEWISE_APP_ENV" required:"true"`
	Port         string `envconfig:"BITEWISE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BITEWISE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BITEWISE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BITEWISE_DB_DSN"`
	Driver string `envconfig:"BITEWISE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BITEWISE_DB_HOST"`
	LegacyPort     int    `envconfig:"BITEWISE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BITEWISE_DB_USER"`
	LegacyPassword string `envconfig:"BITEWISE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BITEWISE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BITEWISE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BITEWISE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BITEWISE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BITEWISE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BITEWISE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BITEWISE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BITEWISE_REDIS_ADDR"`
	Password     string        `envconfig:"BITEWISE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BITEWISE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BITEWISE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BITEWISE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BITEWISE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BITEWISE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BITEWISE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BITEWISE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BITEWISE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BITEWISE_JWT_EXPIRATION_MINUTES" default:"10080"`
}

// RewardsConfig carries the coin economy caps and referral bonuses.
type RewardsConfig struct {
	DailyCoinCap      int64 `envconfig:"BITEWISE_REWARDS_DAILY_COIN_CAP" default:"30"`
	MonthlyCoinCap    int64 `envconfig:"BITEWISE_REWARDS_MONTHLY_COIN_CAP" default:"500"`
	RedeemablePercent int64 `envconfig:"BITEWISE_REWARDS_REDEEMABLE_PERCENT" default:"80"`

	ReferrerBonus    int64 `envconfig:"BITEWISE_REWARDS_REFERRER_BONUS" default:"50"`
	RedeemerBonus    int64 `envconfig:"BITEWISE_REWARDS_REDEEMER_BONUS" default:"25"`
	ReferralUseLimit int   `envconfig:"BITEWISE_REWARDS_REFERRAL_USE_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BITEWISE_AUTO_MIGRATE" default:"false"`
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
