// config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Collection names
const (
	UsersCollection      = "users"
	AdminsCollection     = "admins"
	ProductsCollection   = "products"
	MetadataCollection   = "metadata"
	OrdersCollection     = "orders"
	AdminSalesCollection = "adminSales"
	TokensCollection     = "resetTokens"
)

// AppConfig holds every setting the shop reads from the environment
type AppConfig struct {
	Port    string
	Env     string
	BaseURL string

	MongoURI string
	DBName   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret     string
	SessionSecret string
	SessionTTL    time.Duration

	ProductsPerPage     int
	TokenValidity       time.Duration
	UserStartingBalance float64
	SalesWindowDays     int

	ImageStore  string // "local" or "s3"
	UploadDir   string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	S3PublicURL string

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string

	MetricsAllowedIPs []string
}

// Load reads the configuration from environment variables.
// godotenv should already have been applied by the caller.
func Load() *AppConfig {
	cfg := &AppConfig{
		Port:    getEnv("PORT", "8080"),
		Env:     getEnv("ENV", "development"),
		BaseURL: strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),

		MongoURI: getEnv("MONGO_URI", os.Getenv("MONGODB_URI")),
		DBName:   getEnv("DB_NAME", "sm_online_shop"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,

		ProductsPerPage:     getEnvInt("PRODUCTS_PER_PAGE", 10),
		TokenValidity:       time.Duration(getEnvInt("TOKEN_VALIDITY_IN_HOURS", 1)) * time.Hour,
		UserStartingBalance: getEnvFloat("USER_STARTING_BALANCE", 10000),
		SalesWindowDays:     getEnvInt("SALES_WINDOW_DAYS", 7),

		ImageStore:  getEnv("IMAGE_STORE", "local"),
		UploadDir:   getEnv("UPLOAD_DIR", "data/images"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3UseSSL:    getEnvBool("S3_USE_SSL", true),
		S3PublicURL: strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  getEnvInt("SMTP_PORT", 587),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		FromEmail: getEnv("FROM_EMAIL", os.Getenv("SMTP_USER")),

		MetricsAllowedIPs: splitList(os.Getenv("METRICS_ALLOWED_IPS")),
	}

	if cfg.ProductsPerPage < 1 {
		log.Printf("Warning: PRODUCTS_PER_PAGE=%d is invalid, using 10", cfg.ProductsPerPage)
		cfg.ProductsPerPage = 10
	}

	return cfg
}

// IsProduction reports whether cookies should be marked secure
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %v", key, value, fallback)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
