package config

const (
	EnvPrefix = "ORDERDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	LockBackendRedis  = "redis"
	LockBackendMemory = "memory"

	DefaultSQLiteDSN = "file:orderdesk.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv       = "ORDERDESK_APP_ENV"
	EnvPort         = "ORDERDESK_APP_PORT"
	EnvDBDSN        = "ORDERDESK_DB_DSN"
	EnvDBHost       = "ORDERDESK_DB_HOST"
	EnvDBUser       = "ORDERDESK_DB_USER"
	EnvDBName       = "ORDERDESK_DB_NAME"
	EnvDBPassword   = "ORDERDESK_DB_PASSWORD"
	EnvRedisURL     = "ORDERDESK_REDIS_URL"
	EnvRedisAddr    = "ORDERDESK_REDIS_ADDR"
	EnvJWTSecret    = "ORDERDESK_JWT_SECRET"
	EnvJWTIssuer    = "ORDERDESK_JWT_ISSUER"
	EnvLockBackend  = "ORDERDESK_LOCK_BACKEND"
	EnvUseSQLite    = "ORDERDESK_USE_SQLITE"
	EnvOrdersTopic  = "ORDERDESK_PUBSUB_ORDERS_TOPIC"
	EnvGCPProjectID = "ORDERDESK_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
