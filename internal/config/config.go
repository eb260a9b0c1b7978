package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// Upstream identity API.
	DiscordAPIBaseURL string
	UpstreamTimeout   time.Duration

	// Bulk pipeline policy.
	MaxBulkTokens  int
	BulkCheckDelay time.Duration

	// Audit channel.
	WebhookURL        string
	AuditForwardKinds []string // event kinds forwarded to the webhook

	// Record store backend: "memory" (default) or "dynamo".
	StoreBackend string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	ReportBucket   string // empty disables the S3 batch-report archive
	AlertTopicARN  string // empty disables SNS alerts for ERROR events

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	CheckedTokens string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		DiscordAPIBaseURL: getEnv("DISCORD_API_BASE_URL", "https://discord.com/api/v10"),
		UpstreamTimeout:   time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,

		MaxBulkTokens:  getEnvInt("MAX_BULK_TOKENS", 100),
		BulkCheckDelay: time.Duration(getEnvInt("BULK_CHECK_DELAY_MS", 200)) * time.Millisecond,

		WebhookURL:        getEnv("DISCORD_WEBHOOK_URL", ""),
		AuditForwardKinds: strings.Split(getEnv("AUDIT_FORWARD_KINDS", "REQUEST,LOGIN,ERROR"), ","),

		StoreBackend: getEnv("STORE_BACKEND", "memory"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			CheckedTokens: getEnv("DYNAMO_TABLE_CHECKED_TOKENS", "checked_tokens"),
		},
		ReportBucket:  getEnv("S3_REPORT_BUCKET", ""),
		AlertTopicARN: getEnv("SNS_ALERT_TOPIC_ARN", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
