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

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SMSProvider   string // "gateway" | "sns"
	SMSGatewayURL string
	SNSRegion     string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	OTPLength int
	OTPExpiry time.Duration

	MaxLoginAttempts  int
	RateLimitWindow   time.Duration
	RateLimitFailOpen bool
	AttemptRetention  time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	VerificationCodes string
	Users             string
	Sessions          string
	RefreshTokens     string
	LoginAttempts     string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			VerificationCodes: getEnv("DYNAMO_TABLE_VERIFICATION_CODES", "verification_codes"),
			Users:             getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:          getEnv("DYNAMO_TABLE_SESSIONS", "user_sessions"),
			RefreshTokens:     getEnv("DYNAMO_TABLE_REFRESH_TOKENS", "refresh_tokens"),
			LoginAttempts:     getEnv("DYNAMO_TABLE_LOGIN_ATTEMPTS", "login_attempts"),
		},

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SMSProvider:   getEnv("SMS_PROVIDER", "gateway"),
		SMSGatewayURL: getEnv("SMS_GATEWAY_URL", "https://sms.godana.mg/send-sms"),
		SNSRegion:     getEnv("SNS_REGION", "us-east-1"),

		JWTSecret:       getEnv("JWT_SECRET", "your-jwt-secret"),
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 60)) * time.Minute,
		RefreshTokenTTL: time.Duration(getEnvInt("REFRESH_TOKEN_TTL_DAYS", 30)) * 24 * time.Hour,

		OTPLength: getEnvInt("OTP_LENGTH", 6),
		OTPExpiry: time.Duration(getEnvInt("OTP_EXPIRY_MINUTES", 15)) * time.Minute,

		MaxLoginAttempts:  getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
		RateLimitWindow:   time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 900)) * time.Second,
		RateLimitFailOpen: getEnvBool("RATE_LIMIT_FAIL_OPEN", true),
		AttemptRetention:  time.Duration(getEnvInt("ATTEMPT_RETENTION_HOURS", 24)) * time.Hour,

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

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
