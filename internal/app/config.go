package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	DBDSN     string
	RedisAddr string

	JWTSecret           string
	SessionTTL          time.Duration
	CookieSecure        bool
	PublicBaseURL       string
	OAuthCallbackSecret string

	SMTPHost string
	SMTPPort string
	SMTPFrom string

	VerificationTTL time.Duration
	ResetTTL        time.Duration
	TwoFactorTTL    time.Duration
	OTPDigits       int

	RateLimitMax    int64
	RateLimitWindow time.Duration
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getDuration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return d
}

func getInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func LoadConfig() Config {
	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnv("APP_PORT", "8080"),

		DBDSN:     os.Getenv("DB_DSN"),
		RedisAddr: os.Getenv("REDIS_ADDR"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		SessionTTL:          getDuration("SESSION_TTL", 7*24*time.Hour),
		CookieSecure:        getEnv("COOKIE_SECURE", "true") == "true",
		PublicBaseURL:       getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		OAuthCallbackSecret: os.Getenv("OAUTH_CALLBACK_SECRET"),

		SMTPHost: getEnv("SMTP_HOST", "localhost"),
		SMTPPort: getEnv("SMTP_PORT", "1025"),
		SMTPFrom: getEnv("SMTP_FROM", "store@localhost"),

		VerificationTTL: getDuration("VERIFICATION_TTL", 24*time.Hour),
		ResetTTL:        getDuration("RESET_TTL", time.Hour),
		TwoFactorTTL:    getDuration("TWO_FACTOR_TTL", 5*time.Minute),
		OTPDigits:       getInt("OTP_DIGITS", 6),

		RateLimitMax:    int64(getInt("RATE_LIMIT_MAX", 10)),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}
