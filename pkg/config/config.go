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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Lock         LockConfig
	Orders       OrdersConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Lock.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Redis.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"ORDERDESK_APP_ENV" required:"true"`
	Port         string   `envconfig:"ORDERDESK_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"ORDERDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"ORDERDESK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"ORDERDESK_CORS_ORIGINS" default:"http://localhost:3000"`
	// IdempotencyTTL is how long a conversion response can be replayed.
	IdempotencyTTL time.Duration `envconfig:"ORDERDESK_IDEMPOTENCY_TTL" default:"168h"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ORDERDESK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERDESK_DB_DSN"`
	Driver string `envconfig:"ORDERDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERDESK_DB_USER"`
	LegacyPassword string `envconfig:"ORDERDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery is the duration past which a statement is logged at warn.
	SlowQuery time.Duration `envconfig:"ORDERDESK_DB_SLOW_QUERY" default:"250ms"`
	// LogQueries logs every statement at debug.
	LogQueries bool `envconfig:"ORDERDESK_DB_LOG_QUERIES" default:"false"`
}

type RedisConfig struct {
	URL string `envconfig:"ORDERDESK_REDIS_URL"`
	// Address is host:port; a comma separated list selects cluster mode.
	Address      string        `envconfig:"ORDERDESK_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) validate() error {
	if strings.TrimSpace(r.URL) == "" && strings.TrimSpace(r.Address) == "" {
		return fmt.Errorf("one of %s or %s is required", EnvRedisURL, EnvRedisAddr)
	}
	return nil
}

// JWTConfig only covers verification; tokens are issued by the identity service.
type JWTConfig struct {
	Secret   string        `envconfig:"ORDERDESK_JWT_SECRET" required:"true"`
	Issuer   string        `envconfig:"ORDERDESK_JWT_ISSUER" required:"true"`
	Audience string        `envconfig:"ORDERDESK_JWT_AUDIENCE"`
	Leeway   time.Duration `envconfig:"ORDERDESK_JWT_LEEWAY" default:"30s"`
}

type LockConfig struct {
	Backend      string        `envconfig:"ORDERDESK_LOCK_BACKEND" default:"redis"`
	TTL          time.Duration `envconfig:"ORDERDESK_LOCK_TTL" default:"10s"`
	RetryBackoff time.Duration `envconfig:"ORDERDESK_LOCK_RETRY_BACKOFF" default:"25ms"`
	WaitTimeout  time.Duration `envconfig:"ORDERDESK_LOCK_WAIT_TIMEOUT" default:"5s"`
}

func (l LockConfig) validate() error {
	switch strings.ToLower(l.Backend) {
	case LockBackendRedis, LockBackendMemory:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvLockBackend, LockBackendRedis, LockBackendMemory)
	}
}

type OrdersConfig struct {
	NumberAttempts  int `envconfig:"ORDERDESK_ORDER_NUMBER_ATTEMPTS" default:"3"`
	DefaultPageSize int `envconfig:"ORDERDESK_ORDER_PAGE_SIZE" default:"20"`
	MaxPageSize     int `envconfig:"ORDERDESK_ORDER_MAX_PAGE_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ORDERDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ORDERDESK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ORDERDESK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ORDERDESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"ORDERDESK_PUBSUB_ORDERS_TOPIC" default:"orderdesk-order-events"`
	// EmulatorHost points the client at a local emulator; credentials are ignored.
	EmulatorHost string `envconfig:"ORDERDESK_PUBSUB_EMULATOR_HOST"`
	// BatchDelay and BatchCount bound client-side batching per topic.
	BatchDelay time.Duration `envconfig:"ORDERDESK_PUBSUB_BATCH_DELAY" default:"10ms"`
	BatchCount int           `envconfig:"ORDERDESK_PUBSUB_BATCH_COUNT" default:"100"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"ORDERDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"ORDERDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"ORDERDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
	PublishTimeout time.Duration `envconfig:"ORDERDESK_OUTBOX_PUBLISH_TIMEOUT" default:"15s"`
	// AdminPort serves health and metrics for the relay process.
	AdminPort string `envconfig:"ORDERDESK_OUTBOX_ADMIN_PORT" default:"9090"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = DefaultSQLiteDSN
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
