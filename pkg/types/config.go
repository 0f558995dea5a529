package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// S3 post-image storage
	S3BucketName    string `envconfig:"S3_BUCKET_NAME" default:"finji-post-images"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`

	// Redis, backs idempotency replay on mutating endpoints
	RedisAddr         string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB           int    `envconfig:"REDIS_DB" default:"0"`
	IdempotencyTTLSec uint   `envconfig:"IDEMPOTENCY_TTL_SEC" default:"86400"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
