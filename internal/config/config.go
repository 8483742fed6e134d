package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DebugModeEnv is the environment variable for debug mode.
	DebugModeEnv = "DEBUG_MODE"

	// DBDriverEnv selects the document store backend: "mongo" or "postgres".
	DBDriverEnv = "DB_DRIVER"

	// MongoURIEnv is the environment variable for the MongoDB connection string.
	MongoURIEnv = "MONGO_URI"

	// MongoDBEnv is the environment variable for the MongoDB database name.
	MongoDBEnv = "MONGO_DB"

	// MongoTransactionsEnv toggles multi-document transactions (requires a replica set).
	MongoTransactionsEnv = "MONGO_TRANSACTIONS"

	// DBHostEnv is the environment variable for database host.
	DBHostEnv = "DB_HOST"

	// DBPortEnv is the environment variable for database port.
	DBPortEnv = "DB_PORT"

	// DBUserEnv is the environment variable for database user.
	DBUserEnv = "DB_USER"

	// DBPassEnv is the environment variable for database password.
	DBPassEnv = "DB_PASS"

	// DBNameEnv is the environment variable for database name.
	DBNameEnv = "DB_NAME"

	// HTTPServerPortEnv is the environment variable for HTTP server port.
	HTTPServerPortEnv = "HTTP_SERVER_PORT"

	// MetricsServerPortEnv is the environment variable for metrics server port.
	MetricsServerPortEnv = "METRICS_SERVER_PORT"

	// JWTSecretEnv is the environment variable for the HS256 token secret.
	JWTSecretEnv = "JWT_SECRET"

	// CORSAllowedOriginsEnv is a comma separated list of allowed origins.
	CORSAllowedOriginsEnv = "CORS_ALLOWED_ORIGINS"

	// ImageBackendEnv selects the image backend: "disk" or "minio".
	ImageBackendEnv = "IMAGE_BACKEND"

	// UploadsDirEnv is the directory for disk stored images.
	UploadsDirEnv = "UPLOADS_DIR"

	// ProductImageMaxBytesEnv is the size ceiling for product images.
	ProductImageMaxBytesEnv = "PRODUCT_IMAGE_MAX_BYTES"

	// CourseImageMaxBytesEnv is the size ceiling for course and robogenius images, 0 means unlimited.
	CourseImageMaxBytesEnv = "COURSE_IMAGE_MAX_BYTES"

	MinioEndpointEnv  = "MINIO_ENDPOINT"
	MinioAccessKeyEnv = "MINIO_ACCESS_KEY"
	MinioSecretKeyEnv = "MINIO_SECRET_KEY"
	MinioBucketEnv    = "MINIO_BUCKET"
	MinioUseSSLEnv    = "MINIO_USE_SSL"
	MinioPublicURLEnv = "MINIO_PUBLIC_URL"

	// RedisAddrEnv enables the list cache when set.
	RedisAddrEnv = "REDIS_ADDR"

	// RedisPasswordEnv is the environment variable for the redis password.
	RedisPasswordEnv = "REDIS_PASSWORD"

	// CacheTTLEnv is the lifetime of cached list responses.
	CacheTTLEnv = "CACHE_TTL"

	// EnvFilePath is the environment variable for .env file path (only for local/test environment).
	EnvFilePath = "ENV_PATH"

	// DefaultEnvFilePath is the default path to the .env file.
	DefaultEnvFilePath = ".env"

	// AWSRegionEnv is the environment variable for AWS region.
	AWSRegionEnv = "AWS_REGION"

	// AWSEndpointEnv is the environment variable for AWS endpoint.
	AWSEndpointEnv = "AWS_ENDPOINT"

	// SQSQueueURLEnv is the environment variable for SQS queue URL.
	SQSQueueURLEnv = "SQS_QUEUE_URL"

	// OutboxIntervalEnv is the poll period of the outbox worker.
	OutboxIntervalEnv = "OUTBOX_INTERVAL"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	ImageBackendDisk  = "disk"
	ImageBackendMinio = "minio"

	defaultProductImageMaxBytes = 5 << 20
)

var (
	// ErrMissingConfig is returned when required configuration values are missing.
	ErrMissingConfig = errors.New("missing config data")

	// ErrInvalidConfig is returned when a configuration value is not one of the accepted options.
	ErrInvalidConfig = errors.New("invalid config value")
)

// Config represents the application configuration.
type Config struct {
	DebugMode     bool
	DBDriver      string
	Mongo         Mongo
	Database      DB
	HTTPServer    Server
	MetricsServer Server
	Auth          Auth
	CORS          CORS
	Images        Images
	Redis         Redis
	AWS           AWSConfig
	Outbox        Outbox
}

// Mongo represents MongoDB connection settings.
type Mongo struct {
	URI          string
	Database     string
	Transactions bool
}

// DB represents database configuration settings.
type DB struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

// Server represents server configuration settings.
type Server struct {
	Port string
}

// Auth holds token verification settings.
type Auth struct {
	JWTSecret string
}

// CORS holds the allowed origins. A single "*" allows every origin.
type CORS struct {
	AllowedOrigins []string
}

// Images configures where uploaded images go and how large they may be.
type Images struct {
	Backend         string
	UploadsDir      string
	ProductMaxBytes int64
	CourseMaxBytes  int64
	Minio           Minio
}

// Minio holds object storage settings for the minio image backend.
type Minio struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Redis configures the optional list cache. Empty Addr disables caching.
type Redis struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// AWSConfig represents AWS-specific configuration settings.
type AWSConfig struct {
	Region      string
	Endpoint    string
	SQSQueueURL string
}

// Outbox configures the outbox worker.
type Outbox struct {
	Interval time.Duration
}

func allNonEmpty(keyValues map[string]string) error {
	for key, value := range keyValues {
		if value == "" {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("error", "value is empty"))
			return fmt.Errorf("%w for key: %s", ErrMissingConfig, key)
		}
	}
	return nil
}

func allNumbers(keyValues map[string]string) error {
	for key, value := range keyValues {
		_, err := strconv.Atoi(value)
		if err != nil {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("value", value), slog.String("error", err.Error()))
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
	}
	return nil
}

func oneOf(key, value string, options ...string) error {
	for _, o := range options {
		if value == o {
			return nil
		}
	}
	return fmt.Errorf("%w for key %s: %q (expected one of %s)", ErrInvalidConfig, key, value, strings.Join(options, ", "))
}

func (c *Config) validate() error {
	if err := oneOf(DBDriverEnv, c.DBDriver, DriverMongo, DriverPostgres); err != nil {
		return err
	}

	switch c.DBDriver {
	case DriverMongo:
		if err := allNonEmpty(map[string]string{
			MongoURIEnv: c.Mongo.URI,
			MongoDBEnv:  c.Mongo.Database,
		}); err != nil {
			return fmt.Errorf("mongo configuration incomplete: %w", err)
		}
	case DriverPostgres:
		if err := allNonEmpty(map[string]string{
			DBHostEnv: c.Database.Host,
			DBUserEnv: c.Database.User,
			DBNameEnv: c.Database.Name,
		}); err != nil {
			return fmt.Errorf("database configuration incomplete: %w", err)
		}
		if err := allNumbers(map[string]string{DBPortEnv: c.Database.Port}); err != nil {
			return fmt.Errorf("invalid port number: %w", err)
		}
	}

	// Validate server ports
	if err := allNonEmpty(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("server port configuration incomplete: %w", err)
	}
	if err := allNumbers(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}

	if err := allNonEmpty(map[string]string{JWTSecretEnv: c.Auth.JWTSecret}); err != nil {
		return fmt.Errorf("auth configuration incomplete: %w", err)
	}

	if err := oneOf(ImageBackendEnv, c.Images.Backend, ImageBackendDisk, ImageBackendMinio); err != nil {
		return err
	}
	if c.Images.Backend == ImageBackendMinio {
		if err := allNonEmpty(map[string]string{
			MinioEndpointEnv:  c.Images.Minio.Endpoint,
			MinioAccessKeyEnv: c.Images.Minio.AccessKey,
			MinioSecretKeyEnv: c.Images.Minio.SecretKey,
			MinioBucketEnv:    c.Images.Minio.Bucket,
		}); err != nil {
			return fmt.Errorf("minio configuration incomplete: %w", err)
		}
	}
	if c.Images.ProductMaxBytes < 0 || c.Images.CourseMaxBytes < 0 {
		return fmt.Errorf("%w: image size ceilings must not be negative", ErrInvalidConfig)
	}

	return nil
}

func getEnv(name, defaultValue string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt64(name string, defaultValue int64) int64 {
	if val, err := strconv.ParseInt(os.Getenv(name), 10, 64); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if val, err := time.ParseDuration(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
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

// ApplyEnvFile loads environment variables from the specified .env files.
func ApplyEnvFile(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables and validates it.
func LoadFromEnv() (*Config, error) {
	envPath := os.Getenv(EnvFilePath)
	if envPath == "" {
		envPath = DefaultEnvFilePath
	}
	err := ApplyEnvFile(envPath)
	if err != nil {
		// just log the error, maybe all envs are set in another way
		slog.Info("failed to load from .env", slog.Any("err", err))
	}

	conf := &Config{
		DebugMode: getEnvAsBool(DebugModeEnv, false),
		DBDriver:  getEnv(DBDriverEnv, DriverMongo),
		Mongo: Mongo{
			URI:          os.Getenv(MongoURIEnv),
			Database:     os.Getenv(MongoDBEnv),
			Transactions: getEnvAsBool(MongoTransactionsEnv, true),
		},
		Database: DB{
			Host:     os.Getenv(DBHostEnv),
			User:     os.Getenv(DBUserEnv),
			Password: os.Getenv(DBPassEnv),
			Name:     os.Getenv(DBNameEnv),
			Port:     getEnv(DBPortEnv, "5432"),
		},
		HTTPServer: Server{
			Port: os.Getenv(HTTPServerPortEnv),
		},
		MetricsServer: Server{
			Port: os.Getenv(MetricsServerPortEnv),
		},
		Auth: Auth{
			JWTSecret: os.Getenv(JWTSecretEnv),
		},
		CORS: CORS{
			AllowedOrigins: splitList(getEnv(CORSAllowedOriginsEnv, "*")),
		},
		Images: Images{
			Backend:         getEnv(ImageBackendEnv, ImageBackendDisk),
			UploadsDir:      getEnv(UploadsDirEnv, "uploads"),
			ProductMaxBytes: getEnvAsInt64(ProductImageMaxBytesEnv, defaultProductImageMaxBytes),
			CourseMaxBytes:  getEnvAsInt64(CourseImageMaxBytesEnv, 0),
			Minio: Minio{
				Endpoint:  os.Getenv(MinioEndpointEnv),
				AccessKey: os.Getenv(MinioAccessKeyEnv),
				SecretKey: os.Getenv(MinioSecretKeyEnv),
				Bucket:    os.Getenv(MinioBucketEnv),
				UseSSL:    getEnvAsBool(MinioUseSSLEnv, false),
				PublicURL: os.Getenv(MinioPublicURLEnv),
			},
		},
		Redis: Redis{
			Addr:     os.Getenv(RedisAddrEnv),
			Password: os.Getenv(RedisPasswordEnv),
			TTL:      getEnvAsDuration(CacheTTLEnv, 5*time.Minute),
		},
		AWS: AWSConfig{
			Region:      getEnv(AWSRegionEnv, "us-east-1"),
			Endpoint:    os.Getenv(AWSEndpointEnv),
			SQSQueueURL: os.Getenv(SQSQueueURLEnv),
		},
		Outbox: Outbox{
			Interval: getEnvAsDuration(OutboxIntervalEnv, 2*time.Second),
		},
	}

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}

// Consumer is the configuration of the notification service.
type Consumer struct {
	DebugMode bool
	AWS       AWSConfig
}

// LoadConsumerFromEnv loads only the settings the queue consumer needs. The queue URL is required.
func LoadConsumerFromEnv() (*Consumer, error) {
	envPath := getEnv(EnvFilePath, DefaultEnvFilePath)
	if err := ApplyEnvFile(envPath); err != nil {
		slog.Info("failed to load from .env", slog.Any("err", err))
	}

	conf := &Consumer{
		DebugMode: getEnvAsBool(DebugModeEnv, false),
		AWS: AWSConfig{
			Region:      getEnv(AWSRegionEnv, "us-east-1"),
			Endpoint:    os.Getenv(AWSEndpointEnv),
			SQSQueueURL: os.Getenv(SQSQueueURLEnv),
		},
	}
	if err := allNonEmpty(map[string]string{SQSQueueURLEnv: conf.AWS.SQSQueueURL}); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}
