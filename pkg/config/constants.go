package config

const (
	EnvPrefix = "INCENTRA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "INCENTRA_APP_ENV"
	EnvPort   = "INCENTRA_APP_PORT"

	EnvDBDSN  = "INCENTRA_DB_DSN"
	EnvDBHost = "INCENTRA_DB_HOST"
	EnvDBUser = "INCENTRA_DB_USER"
	EnvDBName = "INCENTRA_DB_NAME"

	EnvRedisURL = "INCENTRA_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
