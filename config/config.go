package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Storage  StorageConfig  `yaml:"storage"`
	Queue    QueueConfig    `yaml:"queue"`
}

type ServerConfig struct {
	Env  string `yaml:"env"`
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	// SecretKey signs the flash cookie.
	SecretKey string        `yaml:"secret_key"`
	TTL       time.Duration `yaml:"ttl"`
	// MaxLoginAttempts failures within LockoutWindow lock an email out; 0 disables.
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	LockoutWindow    time.Duration `yaml:"lockout_window"`
}

type StorageConfig struct {
	Driver       string      `yaml:"driver"` // local | minio | s3
	UploadFolder string      `yaml:"upload_folder"`
	Minio        MinioConfig `yaml:"minio"`
	S3           S3Config    `yaml:"s3"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
}

type QueueConfig struct {
	Driver     string `yaml:"driver"` // memory | redis
	BufferSize int    `yaml:"buffer_size"`
}

const (
	StorageDriverLocal = "local"
	StorageDriverMinio = "minio"
	StorageDriverS3    = "s3"

	QueueDriverMemory = "memory"
	QueueDriverRedis  = "redis"
)

// Load applies defaults, then the optional YAML file at path, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Env:  "dev",
			Port: "8080",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "helpdesk",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		Session: SessionConfig{
			SecretKey:        "dev-secret-key",
			TTL:              24 * time.Hour,
			MaxLoginAttempts: 5,
			LockoutWindow:    15 * time.Minute,
		},
		Storage: StorageConfig{
			Driver:       StorageDriverLocal,
			UploadFolder: "uploads",
			Minio: MinioConfig{
				Endpoint: "localhost:9000",
				Bucket:   "helpdesk-uploads",
			},
			S3: S3Config{
				Region: "us-east-1",
				Bucket: "helpdesk-uploads",
			},
		},
		Queue: QueueConfig{
			Driver:     QueueDriverMemory,
			BufferSize: 100,
		},
	}
}

func LoadTestConfig() *Config {
	cfg := Default()
	cfg.Server.Env = "test"
	cfg.Database = DatabaseConfig{
		Host:     "localhost",
		Port:     "5433", // test DB port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}
	cfg.Redis = RedisConfig{
		Host:     "localhost",
		Port:     "6380", // test Redis port
		Password: "",
		DB:       1,
	}
	cfg.Session.SecretKey = "test-secret-key"
	return cfg
}

func applyEnv(cfg *Config) error {
	cfg.Server.Env = getEnv("APP_ENV", cfg.Server.Env)
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", cfg.Database.SSLMode)

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnv("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	db, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.Redis.DB)))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Redis.DB = db

	cfg.Session.SecretKey = getEnv("SECRET_KEY", cfg.Session.SecretKey)
	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", cfg.Session.TTL.String()))
	if err != nil {
		return fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	cfg.Session.TTL = ttl
	maxAttempts, err := strconv.Atoi(getEnv("LOGIN_MAX_ATTEMPTS", strconv.Itoa(cfg.Session.MaxLoginAttempts)))
	if err != nil {
		return fmt.Errorf("invalid LOGIN_MAX_ATTEMPTS: %w", err)
	}
	cfg.Session.MaxLoginAttempts = maxAttempts
	window, err := time.ParseDuration(getEnv("LOGIN_LOCKOUT_WINDOW", cfg.Session.LockoutWindow.String()))
	if err != nil {
		return fmt.Errorf("invalid LOGIN_LOCKOUT_WINDOW: %w", err)
	}
	cfg.Session.LockoutWindow = window

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.UploadFolder = getEnv("UPLOAD_FOLDER", cfg.Storage.UploadFolder)
	cfg.Storage.Minio.Endpoint = getEnv("MINIO_ENDPOINT", cfg.Storage.Minio.Endpoint)
	cfg.Storage.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Storage.Minio.AccessKey)
	cfg.Storage.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.Storage.Minio.SecretKey)
	cfg.Storage.Minio.Bucket = getEnv("MINIO_BUCKET", cfg.Storage.Minio.Bucket)
	cfg.Storage.Minio.UseSSL = getEnv("MINIO_USE_SSL", strconv.FormatBool(cfg.Storage.Minio.UseSSL)) == "true"
	cfg.Storage.S3.Endpoint = getEnv("S3_ENDPOINT", cfg.Storage.S3.Endpoint)
	cfg.Storage.S3.Region = getEnv("S3_REGION", cfg.Storage.S3.Region)
	cfg.Storage.S3.AccessKey = getEnv("S3_ACCESS_KEY", cfg.Storage.S3.AccessKey)
	cfg.Storage.S3.SecretKey = getEnv("S3_SECRET_KEY", cfg.Storage.S3.SecretKey)
	cfg.Storage.S3.Bucket = getEnv("S3_BUCKET", cfg.Storage.S3.Bucket)

	cfg.Queue.Driver = getEnv("QUEUE_DRIVER", cfg.Queue.Driver)

	switch cfg.Storage.Driver {
	case StorageDriverLocal, StorageDriverMinio, StorageDriverS3:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	switch cfg.Queue.Driver {
	case QueueDriverMemory, QueueDriverRedis:
	default:
		return fmt.Errorf("unknown QUEUE_DRIVER %q", cfg.Queue.Driver)
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Server.Env == "dev"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
