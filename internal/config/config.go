package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      Env
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Minio    MinioConfig
	NATS     NATSConfig
	Upload   UploadConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

type DatabaseConfig struct {
	Host           string        `envconfig:"DB_HOST" required:"true"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER" required:"true"`
	Password       string        `envconfig:"DB_PASSWORD" required:"true"`
	Name           string        `envconfig:"DB_NAME" required:"true"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
}

// StorageConfig selects the chunk store backend. "disk" keeps bytes on
// the local filesystem, "minio" on any S3-compatible endpoint.
type StorageConfig struct {
	Backend      string `envconfig:"STORAGE_BACKEND" default:"disk"`
	DiskRoot     string `envconfig:"STORAGE_DISK_ROOT" default:"./data"`
	DiskCompress bool   `envconfig:"STORAGE_DISK_COMPRESS" default:"false"`
}

type MinioConfig struct {
	Endpoint   string `envconfig:"MINIO_ENDPOINT"`
	BucketName string `envconfig:"MINIO_BUCKET_NAME" default:"filedepot"`
	AccessKey  string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey  string `envconfig:"MINIO_SECRET_KEY"`
	UseSSL     bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

// NATSConfig configures the finalized-file event stream. An empty URL
// disables publishing.
type NATSConfig struct {
	URL        string `envconfig:"NATS_URL"`
	StreamName string `envconfig:"NATS_STREAM_NAME" default:"FILEDEPOT"`
	Subject    string `envconfig:"NATS_SUBJECT" default:"files.finalized"`
	ClientName string `envconfig:"NATS_CLIENT_NAME" default:"filedepot-api"`
}

type UploadConfig struct {
	ChunkSizeBytes    int64         `envconfig:"UPLOAD_CHUNK_SIZE" default:"2097152"`       // 2MiB
	MinChunkSizeBytes int64         `envconfig:"UPLOAD_MIN_CHUNK_SIZE" default:"1024"`      // 1KiB
	MaxChunkSizeBytes int64         `envconfig:"UPLOAD_MAX_CHUNK_SIZE" default:"10485760"`  // 10MiB
	MaxFileSizeBytes  int64         `envconfig:"UPLOAD_MAX_FILE_SIZE" default:"5368709120"` // 5GiB
	Retention         time.Duration `envconfig:"UPLOAD_RETENTION" default:"24h"`
	EnableDigestCheck bool          `envconfig:"UPLOAD_ENABLE_DIGEST_CHECK" default:"true"`
	AllowedExtensions []string      `envconfig:"UPLOAD_ALLOWED_EXTENSIONS"`
	DigestAlgorithm   string        `envconfig:"UPLOAD_DIGEST_ALGORITHM" default:"sha256"`
	SweepEvery        time.Duration `envconfig:"UPLOAD_SWEEP_EVERY" default:"1h"`
	MergePrefetch     int           `envconfig:"UPLOAD_MERGE_PREFETCH" default:"4"`
}

func Load() (*Config, error) {
	// A local .env fills gaps, real environment variables win
	_ = godotenv.Load()

	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
