package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// Config holds all configuration values from environment.
type Config struct {
	AppPort     string
	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	MongoURI      string
	MongoDatabase string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSSL       bool
	// MinioPublicURL is the base URL clients use to fetch stored images.
	MinioPublicURL string

	RedisHost string
	RedisPort string

	GeocoderAPIKey  string
	GeocodeCacheTTL time.Duration

	JWTSecret string

	// Discovery settings
	SearchRadiusKm  float64 // Radius of proximity searches (default: 10)
	RelatedRadiusKm float64 // Radius of related listings (default: 50)
	RelatedLimit    int     // Max related listings (default: 3)
	SearchPageSize  int     // Page size of search results (default: 2)
	ListPageSize    int     // Page size of listing feeds (default: 2)

	// Image settings
	ImageMaxWidth  int
	ImageMaxHeight int
	MaxUploadMB    int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %v", key, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %v", key, err)
	}
	return f, nil
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	minioSSL := false
	if sslEnv := os.Getenv("MINIO_SSL"); sslEnv != "" {
		val, err := strconv.ParseBool(sslEnv)
		if err != nil {
			return nil, fmt.Errorf("invalid MINIO_SSL value: %v", err)
		}
		minioSSL = val
	}
	cacheTTL := 24 * time.Hour
	if ttlEnv := os.Getenv("GEOCODE_CACHE_TTL"); ttlEnv != "" {
		val, err := time.ParseDuration(ttlEnv)
		if err != nil {
			return nil, fmt.Errorf("invalid GEOCODE_CACHE_TTL value: %v", err)
		}
		cacheTTL = val
	}

	cfg := &Config{
		AppPort:     getenv("APP_PORT", "8000"),
		StoreDriver: getenv("STORE_DRIVER", StoreDriverPostgres),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getenv("MONGO_DATABASE", "realist"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    os.Getenv("MINIO_BUCKET"),
		MinioSSL:       minioSSL,
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),

		RedisHost: os.Getenv("REDIS_HOST"),
		RedisPort: getenv("REDIS_PORT", "6379"),

		GeocoderAPIKey:  os.Getenv("GEOCODER_API_KEY"),
		GeocodeCacheTTL: cacheTTL,

		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	var err error
	if cfg.SearchRadiusKm, err = floatEnv("SEARCH_RADIUS_KM", 10); err != nil {
		return nil, err
	}
	if cfg.RelatedRadiusKm, err = floatEnv("RELATED_RADIUS_KM", 50); err != nil {
		return nil, err
	}
	if cfg.RelatedLimit, err = intEnv("RELATED_LIMIT", 3); err != nil {
		return nil, err
	}
	if cfg.SearchPageSize, err = intEnv("SEARCH_PAGE_SIZE", 2); err != nil {
		return nil, err
	}
	if cfg.ListPageSize, err = intEnv("LIST_PAGE_SIZE", 2); err != nil {
		return nil, err
	}
	if cfg.ImageMaxWidth, err = intEnv("IMAGE_MAX_WIDTH", 1600); err != nil {
		return nil, err
	}
	if cfg.ImageMaxHeight, err = intEnv("IMAGE_MAX_HEIGHT", 900); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB, err = intEnv("MAX_UPLOAD_MB", 50); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "" {
			return fmt.Errorf("database configuration is incomplete")
		}
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			return fmt.Errorf("mongo configuration is incomplete")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "" {
		return fmt.Errorf("minio configuration is incomplete")
	}
	if cfg.GeocoderAPIKey == "" {
		return fmt.Errorf("GEOCODER_API_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SearchPageSize <= 0 || cfg.ListPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if cfg.SearchRadiusKm <= 0 || cfg.RelatedRadiusKm <= 0 || cfg.RelatedLimit <= 0 {
		return fmt.Errorf("discovery radii and related limit must be positive")
	}
	if cfg.ImageMaxWidth <= 0 || cfg.ImageMaxHeight <= 0 {
		return fmt.Errorf("image bounds must be positive")
	}
	return nil
}

// RedisEnabled reports whether a Redis geocode cache layer is configured.
func (cfg *Config) RedisEnabled() bool {
	return cfg.RedisHost != ""
}

// ConnectDatabase initializes a GORM database connection to PostgreSQL.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
