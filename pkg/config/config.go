package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cart         CartConfig
	Pricing      PricingConfig
	Risk         RiskConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Risk.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.Pricing.PointValue(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SCANPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"SCANPAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SCANPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SCANPAY_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is comma separated. Empty means the local dev frontends.
	CORSOrigins []string `envconfig:"SCANPAY_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"SCANPAY_SERVICE_KIND" default:"api"`
	// MetricsAddr exposes /metrics on background workers. Empty disables it.
	MetricsAddr string `envconfig:"SCANPAY_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"SCANPAY_DB_DSN"`
	Driver string `envconfig:"SCANPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SCANPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"SCANPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SCANPAY_DB_USER"`
	LegacyPassword string `envconfig:"SCANPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SCANPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SCANPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCANPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCANPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCANPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCANPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets a sqlite file.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"SCANPAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SCANPAY_REDIS_ADDR"`
	Password     string        `envconfig:"SCANPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SCANPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SCANPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SCANPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SCANPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SCANPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SCANPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SCANPAY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SCANPAY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SCANPAY_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SCANPAY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SCANPAY_AUTO_MIGRATE" default:"false"`
	// DemoRoutes mounts the staff demo-scenario endpoints.
	DemoRoutes bool `envconfig:"SCANPAY_FEATURE_DEMO_ROUTES" default:"true"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"SCANPAY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	CheckoutIdemTTL      time.Duration `envconfig:"SCANPAY_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SCANPAY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SCANPAY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SCANPAY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic           string `envconfig:"SCANPAY_PUBSUB_ORDERS_TOPIC" default:"sp-order-events"`
	OrdersSubscription    string `envconfig:"SCANPAY_PUBSUB_ORDERS_SUBSCRIPTION" default:"sp-order-events-analytics"`
	AnalyticsSubscription string `envconfig:"SCANPAY_PUBSUB_ANALYTICS_SUBSCRIPTION"`
}

// AnalyticsSubscriptionName falls back to the orders subscription when no
// dedicated analytics subscription is configured.
func (p PubSubConfig) AnalyticsSubscriptionName() string {
	if name := strings.TrimSpace(p.AnalyticsSubscription); name != "" {
		return name
	}
	return strings.TrimSpace(p.OrdersSubscription)
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"SCANPAY_BIGQUERY_DATASET" default:"scanpay"`
	OrderFactsTable  string `envconfig:"SCANPAY_BIGQUERY_ORDER_FACTS_TABLE" default:"order_facts"`
	MaxInsertRetries int    `envconfig:"SCANPAY_BIGQUERY_MAX_INSERT_RETRIES" default:"3"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SCANPAY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SCANPAY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SCANPAY_OUTBOX_MAX_ATTEMPTS" default:"10"`

	PublishedRetention time.Duration `envconfig:"SCANPAY_OUTBOX_PUBLISHED_RETENTION" default:"720h"`
	TerminalRetention  time.Duration `envconfig:"SCANPAY_OUTBOX_TERMINAL_RETENTION" default:"2160h"`
	CronInterval       time.Duration `envconfig:"SCANPAY_CRON_INTERVAL" default:"6h"`
}

type CartConfig struct {
	SessionTTL      time.Duration `envconfig:"SCANPAY_CART_SESSION_TTL" default:"24h"`
	CatalogCacheTTL time.Duration `envconfig:"SCANPAY_CATALOG_CACHE_TTL" default:"5m"`
}

type PricingConfig struct {
	DefaultPointsBalance int    `envconfig:"SCANPAY_LOYALTY_DEFAULT_BALANCE" default:"250"`
	PointValueRaw        string `envconfig:"SCANPAY_LOYALTY_POINT_VALUE" default:"0.10"`
	EarnRatePercent      int    `envconfig:"SCANPAY_LOYALTY_EARN_RATE_PERCENT" default:"10"`
	SpinnerThreshold     int    `envconfig:"SCANPAY_SPINNER_THRESHOLD" default:"2000"`
}

// PointValue parses the monetary value of one loyalty point.
func (p PricingConfig) PointValue() (decimal.Decimal, error) {
	raw := strings.TrimSpace(p.PointValueRaw)
	if raw == "" {
		return decimal.NewFromFloat(0.10), nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvLoyaltyPointValue, err)
	}
	if !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive", EnvLoyaltyPointValue)
	}
	return v, nil
}

type RiskConfig struct {
	Timezone  string `envconfig:"SCANPAY_RISK_TIMEZONE" default:"UTC"`
	Threshold int    `envconfig:"SCANPAY_RISK_THRESHOLD" default:"5"`
}

// Location resolves the timezone used by the odd-hours rule.
func (r RiskConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(r.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", EnvRiskTimezone, err)
	}
	return loc, nil
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
