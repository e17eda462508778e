package config

import (
	"os"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// AI providers
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIVisionModel string
	OpenAIImageModel  string

	GeminiAPIKey string
	GeminiAPIURL string
	GeminiModel  string

	VideoAPIKey string
	VideoAPIURL string
	VideoModel  string

	ChatTimeout   time.Duration
	VisionTimeout time.Duration
	ImageTimeout  time.Duration
	VideoTimeout  time.Duration

	// Whether a fully failed non-chat generation refunds the reserved quota.
	RefundOnProviderFailure bool

	// OTP
	OtpExpiry         time.Duration
	OtpResendCooldown time.Duration

	// SMS
	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
	SMSAPIURL   string
	SMSAPIKey   string
	SMSFrom     string

	// PayClick
	PayClickAPIKey        string
	PayClickSecretKey     string
	PayClickBaseURL       string
	PayClickWebhookSecret string

	// Storage
	StorageDir     string
	StorageBaseURL string

	// Server
	Port        string
	CORSOrigins string
	AppBaseURL  string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "medicothink"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIVisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
		OpenAIImageModel:  getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL: getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-pro"),

		VideoAPIKey: getEnv("VIDEO_API_KEY", ""),
		VideoAPIURL: getEnv("VIDEO_API_URL", ""),
		VideoModel:  getEnv("VIDEO_MODEL", ""),

		ChatTimeout:   parseDuration(getEnv("AI_CHAT_TIMEOUT", "30s"), 30*time.Second),
		VisionTimeout: parseDuration(getEnv("AI_VISION_TIMEOUT", "60s"), 60*time.Second),
		ImageTimeout:  parseDuration(getEnv("AI_IMAGE_TIMEOUT", "120s"), 120*time.Second),
		VideoTimeout:  parseDuration(getEnv("AI_VIDEO_TIMEOUT", "180s"), 180*time.Second),

		RefundOnProviderFailure: getEnv("REFUND_ON_PROVIDER_FAILURE", "false") == "true",

		OtpExpiry:         parseDuration(getEnv("OTP_EXPIRY", "10m"), 10*time.Minute),
		OtpResendCooldown: parseDuration(getEnv("OTP_RESEND_COOLDOWN", "60s"), 60*time.Second),

		TwilioSID:   getEnv("TWILIO_SID", ""),
		TwilioToken: getEnv("TWILIO_TOKEN", ""),
		TwilioFrom:  getEnv("TWILIO_FROM", ""),
		SMSAPIURL:   getEnv("SMS_API_URL", ""),
		SMSAPIKey:   getEnv("SMS_API_KEY", ""),
		SMSFrom:     getEnv("SMS_FROM", "MedicoThink"),

		PayClickAPIKey:        getEnv("PAYCLICK_API_KEY", ""),
		PayClickSecretKey:     getEnv("PAYCLICK_SECRET_KEY", ""),
		PayClickBaseURL:       getEnv("PAYCLICK_BASE_URL", "https://api.payclick.com"),
		PayClickWebhookSecret: getEnv("PAYCLICK_WEBHOOK_SECRET", ""),

		StorageDir:     getEnv("STORAGE_DIR", "storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppBaseURL:  getEnv("APP_BASE_URL", "http://localhost:8080"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
