package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	_ "listing-service/docs"
	"listing-service/internal/config"
	"listing-service/internal/geocoding"
	"listing-service/internal/handlers"
	"listing-service/internal/imageproc"
	"listing-service/internal/middleware"
	"listing-service/internal/query"
	"listing-service/internal/repository"
	"listing-service/internal/services"
	"listing-service/internal/storage"
	"listing-service/internal/utils"
)

const geocodeMemoryEntries = 10000

type stores struct {
	listings repository.ListingRepository
	images   repository.ImageRepository
	close    func()
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	cfg := InitConfig()
	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := utils.NewMetrics(registry)

	st := InitStores(ctx, cfg)
	defer st.close()

	minioClient := InitMinIOClient(ctx, cfg)
	objectStore := services.NewInstrumentedObjectStore(
		storage.NewMinioObjectStore(minioClient, cfg.MinioBucket, cfg.MinioPublicURL),
		metrics,
	)

	geocoder := InitGeocoder(ctx, cfg, metrics)

	builder := query.NewBuilder(geocoder, cfg.SearchRadiusKm, cfg.SearchPageSize)
	related := services.NewRelatedRanker(st.listings, cfg.RelatedRadiusKm, cfg.RelatedLimit, metrics)
	listingService := services.NewListingService(st.listings, geocoder, builder, related, metrics, cfg.ListPageSize)

	resizer := imageproc.NewResizer(cfg.ImageMaxWidth, cfg.ImageMaxHeight)
	imageService := services.NewImageService(objectStore, st.images, resizer, metrics)
	imageService.MaxArchiveEntryBytes = int64(cfg.MaxUploadMB) << 20

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.MaxUploadMB << 20,
	})

	handlers.RegisterRoutes(
		app,
		handlers.NewListingHandler(listingService),
		handlers.NewImageHandler(imageService),
		middleware.JWTAuth(cfg.JWTSecret),
		registry,
	)

	routes := app.GetRoutes()
	log.Println("Registered routes:")
	for _, r := range routes {
		log.Printf("  %s %s\n", r.Method, r.Path)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server listening on port %s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	listingService.Wait()
}

func InitConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	return cfg
}

// InitStores opens the listing and image repositories of the configured driver.
func InitStores(ctx context.Context, cfg *config.Config) stores {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client := ConnectMongo(ctx, cfg)
		db := client.Database(cfg.MongoDatabase)
		listings := repository.NewMongoListingRepository(db)
		if err := listings.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Index creation failed: %v", err)
		}
		return stores{
			listings: listings,
			images:   repository.NewMongoImageRepository(db),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Printf("MongoDB disconnect failed: %v", err)
				}
			},
		}
	default:
		db := ConnectDatabase(cfg)
		MigrateDatabase(db)
		return stores{
			listings: repository.NewListingRepository(db),
			images:   repository.NewImageRepository(db),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			},
		}
	}
}

func ConnectDatabase(cfg *config.Config) *gorm.DB {
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

func MigrateDatabase(db *gorm.DB) {
	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
}

func ConnectMongo(ctx context.Context, cfg *config.Config) *mongo.Client {
	client, err := storage.NewMongoClient(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("MongoDB connection failed: %v", err)
	}
	return client
}

func InitMinIOClient(ctx context.Context, cfg *config.Config) *minio.Client {
	minioClient, err := storage.NewMinioClient(ctx, cfg)
	if err != nil {
		log.Fatalf("MinIO client initialization failed: %v", err)
	}
	return minioClient
}

// InitGeocoder wraps the Google geocoder in the in-memory cache and, when
// configured, the Redis cache.
func InitGeocoder(ctx context.Context, cfg *config.Config, metrics *utils.Metrics) geocoding.Geocoder {
	provider, err := geocoding.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	if err != nil {
		log.Fatalf("Geocoder initialization failed: %v", err)
	}

	layers := []geocoding.CacheLayer{geocoding.NewMemoryCache(geocodeMemoryEntries, cfg.GeocodeCacheTTL)}
	if cfg.RedisEnabled() {
		redisClient, err := storage.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort)
		if err != nil {
			log.Printf("Redis unavailable, geocode cache is memory only: %v", err)
		} else {
			layers = append(layers, geocoding.NewRedisCache(redisClient, cfg.GeocodeCacheTTL))
		}
	}
	return geocoding.NewCachingGeocoder(provider, metrics, layers...)
}
