package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string
	BaseURL       string

	// Auth. When FirebaseProjectID is set the Firebase provider is used,
	// otherwise the local JWT provider.
	JWTSecret           string
	JWTExpiration       time.Duration
	RequireConfirmation bool
	FirebaseProjectID   string
	FirebaseCredentials string
	FirebaseWebAPIKey   string

	// Storage. When MongoURI is empty the in-memory services are used,
	// persisted as JSON snapshots under DataDir.
	MongoURI string
	MongoDB  string
	DataDir  string

	// Avatars. GCSBucket switches uploads from local disk to Cloud Storage.
	UploadDir       string
	MaxUploadSizeMB int64
	GCSBucket       string

	// Outbound email and abuse protection.
	SendGridAPIKey  string
	MailFromEmail   string
	SupportToEmail  string
	RecaptchaSecret string

	// TrustProxyHeaders enables X-Forwarded-For handling. Only set it when a
	// trusted reverse proxy strips client-supplied forwarding headers.
	TrustProxyHeaders bool
}

func Load() *Config {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	return &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),

		JWTSecret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTExpiration:       getEnvDuration("JWT_EXPIRATION", 24*time.Hour),
		RequireConfirmation: getEnvBool("REQUIRE_EMAIL_CONFIRMATION", false),
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		FirebaseWebAPIKey:   getEnv("FIREBASE_WEB_API_KEY", ""),

		MongoURI: getEnv("MONGODB_URI", ""),
		MongoDB:  getEnv("MONGODB_DB", "skilldom"),
		DataDir:  getEnv("DATA_DIR", "./data"),

		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSizeMB: 8,
		GCSBucket:       getEnv("GCS_BUCKET", ""),

		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		MailFromEmail:   getEnv("MAIL_FROM_EMAIL", ""),
		SupportToEmail:  getEnv("SUPPORT_TO_EMAIL", ""),
		RecaptchaSecret: getEnv("RECAPTCHA_SECRET", ""),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
