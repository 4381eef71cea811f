package config

const (
	EnvPrefix = "SCANPAY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "SCANPAY_APP_ENV"
	EnvPort     = "SCANPAY_APP_PORT"
	EnvLogLevel = "SCANPAY_LOG_LEVEL"

	EnvDBDSN    = "SCANPAY_DB_DSN"
	EnvDBDriver = "SCANPAY_DB_DRIVER"
	EnvDBHost   = "SCANPAY_DB_HOST"
	EnvDBUser   = "SCANPAY_DB_USER"
	EnvDBName   = "SCANPAY_DB_NAME"
	EnvDBPort   = "SCANPAY_DB_PORT"

	EnvRedisURL = "SCANPAY_REDIS_URL"

	EnvJWTSecret  = "SCANPAY_JWT_SECRET"
	EnvJWTIssuer  = "SCANPAY_JWT_ISSUER"
	EnvJWTExpMins = "SCANPAY_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID       = "SCANPAY_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "SCANPAY_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub    = "SCANPAY_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubAnalyticsSub = "SCANPAY_PUBSUB_ANALYTICS_SUBSCRIPTION"

	EnvLoyaltyDefaultBalance = "SCANPAY_LOYALTY_DEFAULT_BALANCE"
	EnvLoyaltyPointValue     = "SCANPAY_LOYALTY_POINT_VALUE"
	EnvRiskTimezone          = "SCANPAY_RISK_TIMEZONE"
	EnvRiskThreshold         = "SCANPAY_RISK_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
