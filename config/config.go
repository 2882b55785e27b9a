package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment      string
	DatabaseURL      string
	StorageBackend   string // "postgres" or "memory"
	UploadDir        string
	LogDir           string
	HTTPPort         string
	HTTPSPort        string
	Domains          []string
	CertCacheDir     string
	EmbedderType     string // "openai" or "hashing"
	OpenAIAPIKey     string
	EmbeddingModel   string
	EmbeddingDim     int
	WorkerCount      int
	QueueSize        int
	EmbedTimeout     time.Duration
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	AlertPhoneNumber string
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		StorageBackend:   getEnv("STORAGE_BACKEND", "postgres"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploaded_files"),
		LogDir:           getEnv("LOG_DIR", "logs"),
		HTTPPort:         getEnv("HTTP_PORT", "8086"),
		HTTPSPort:        getEnv("HTTPS_PORT", "443"),
		Domains:          []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir:     getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		EmbedderType:     getEnv("EMBEDDER", "openai"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
		EmbeddingDim:     getEnvAsInt("EMBEDDING_DIM", 1536),
		WorkerCount:      getEnvAsInt("INGESTION_WORKERS", 4),
		QueueSize:        getEnvAsInt("INGESTION_QUEUE_SIZE", 256),
		EmbedTimeout:     time.Duration(getEnvAsInt("EMBED_TIMEOUT_SECONDS", 60)) * time.Second,
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		AlertPhoneNumber: getEnv("ALERT_PHONE_NUMBER", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
