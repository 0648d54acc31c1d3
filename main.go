package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"kitrender/kit"
	"kitrender/store"
)

// --- Constants ---
const (
	DefaultDimensions = 512
	RenderTimeout     = 20 * time.Second
	PatternTimeout    = 10 * time.Second
	UploadTimeout     = 10 * time.Second
)

type Config struct {
	PostKey        string
	ServerAddress  string
	S3AccessKey    string
	S3SecretKey    string
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	CDNURL         string
	RootDir        string
	PatternCatalog string
	LogFile        string
	RenderSize     int
	// RenderInterval is the steady spacing between renders, 0 for no limit.
	RenderInterval time.Duration
	RenderBurst    int
}

// Helper to get environment variables with a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func loadConfig() *Config {
	rootDir := getEnv("RENDERER_ROOT_DIR", "/var/www/kitrender")
	_ = godotenv.Load(path.Join(rootDir, ".env"))

	size, err := strconv.Atoi(getEnv("RENDER_SIZE", strconv.Itoa(DefaultDimensions)))
	if err != nil || size <= 0 {
		log.Printf("Warning: Invalid RENDER_SIZE, using %d", DefaultDimensions)
		size = DefaultDimensions
	}
	interval, err := time.ParseDuration(getEnv("RENDER_INTERVAL", "250ms"))
	if err != nil || interval < 0 {
		log.Printf("Warning: Invalid RENDER_INTERVAL, renders are not rate limited")
		interval = 0
	}
	burst, err := strconv.Atoi(getEnv("RENDER_BURST", "4"))
	if err != nil || burst <= 0 {
		burst = 1
	}
	return &Config{
		PostKey:        os.Getenv("POST_KEY"),
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3Region:       os.Getenv("S3_REGION"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		CDNURL:         os.Getenv("CDN_URL"),
		RootDir:        rootDir,
		PatternCatalog: os.Getenv("PATTERN_CATALOG"),
		LogFile:        os.Getenv("LOG_FILE"),
		RenderSize:     size,
		RenderInterval: interval,
		RenderBurst:    burst,
	}
}

// Initializes everything once.
func main() {
	cfg := loadConfig()
	if cfg.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
		})
	}

	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Endpoint:         aws.String(cfg.S3Endpoint),
		Region:           aws.String(cfg.S3Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	sess, err := session.NewSession(s3Config)
	if err != nil {
		log.Fatalf("Failed to create S3 session: %v", err)
	}

	catalog := kit.DefaultCatalog()
	if cfg.PatternCatalog != "" {
		catalog, err = kit.LoadCatalog(cfg.PatternCatalog)
		if err != nil {
			log.Fatalf("Failed to load pattern catalog: %v", err)
		}
	}

	var projects store.Repository
	if dsn := store.DSNFromEnv(); dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := store.Open(ctx, dsn)
		if err != nil {
			cancel()
			log.Fatalf("Failed to initialize database: %v", err)
		}
		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to migrate database: %v", err)
		}
		cancel()
		defer db.Close()
		projects = pg
	} else {
		log.Printf("Warning: No database configured, projects are kept in memory")
		projects = store.NewMemory()
	}

	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient.Timeout = 10 * time.Second
	httpClient.RetryMax = 3
	httpClient.Logger = nil

	cache := NewAssetCache(cfg.CDNURL, httpClient)
	server := NewServer(cfg, &s3Uploader{client: s3.New(sess), bucket: cfg.S3Bucket}, cache, catalog, projects)

	fmt.Printf("Starting server on %s\n", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, server.Routes()); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
