package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API        APIConfig
	Credential CredentialConfig
	Database   DatabaseConfig
	Updates    UpdatesConfig
	R2         R2Config
	Upload     UploadConfig
	Preview    PreviewConfig
	Web        WebConfig
}

type APIConfig struct {
	BaseURL   string
	ClientKey string
	Timeout   time.Duration
	LoginPath string
}

type CredentialConfig struct {
	// Store is one of file, db or memory.
	Store string
	File  string
	// Key is a hex encoded 32 byte key; when set the credential file is sealed.
	Key string
}

type DatabaseConfig struct {
	URL string
}

type UpdatesConfig struct {
	Transport   string
	RabbitMQURL string
	Exchange    string
	ErrorGrace  time.Duration
	RetryDelay  time.Duration
}

type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether direct uploads through the R2 S3 API are configured.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type UploadConfig struct {
	// Mode is presign, direct or multipart.
	Mode          string
	MaxFileSizeMB int
	PutTimeout    time.Duration
}

type PreviewConfig struct {
	GoogleAPIKey string
	Model        string
}

type WebConfig struct {
	BuildDir string
	Port     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment only.")
	}

	return &Config{
		API: APIConfig{
			BaseURL:   apiBaseURL(getEnv("JOBMATCH_BASE_URL", "http://localhost:8080")),
			ClientKey: getEnv("CLIENT_API_KEY", ""),
			Timeout:   getEnvAsDuration("JOBMATCH_HTTP_TIMEOUT", "30s"),
			LoginPath: getEnv("JOBMATCH_LOGIN_PATH", "/login"),
		},
		Credential: CredentialConfig{
			Store: getEnv("JOBMATCH_CREDENTIAL_STORE", "file"),
			File:  getEnv("JOBMATCH_CREDENTIAL_FILE", defaultCredentialFile()),
			Key:   getEnv("JOBMATCH_CREDENTIAL_KEY", ""),
		},
		Database: DatabaseConfig{
			URL: getEnv("DB_URL", ""),
		},
		Updates: UpdatesConfig{
			Transport:   getEnv("JOBMATCH_UPDATES_TRANSPORT", "sse"),
			RabbitMQURL: getEnv("RABBITMQ_URL", ""),
			Exchange:    getEnv("RABBITMQ_EXCHANGE", "session_updates"),
			ErrorGrace:  getEnvAsDuration("JOBMATCH_SSE_ERROR_GRACE", "3s"),
			RetryDelay:  getEnvAsDuration("JOBMATCH_SSE_RETRY", "3s"),
		},
		R2: R2Config{
			AccountID: getEnv("R2_ACCCOUNT_ID", getEnv("R2_ACCOUNT_ID", "")),
			Bucket:    getEnv("R2_BUCKET", ""),
			AccessKey: getEnv("R2_ACCESS_KEY", ""),
			SecretKey: getEnv("R2_SECRET_KEY", ""),
		},
		Upload: UploadConfig{
			Mode:          getEnv("JOBMATCH_UPLOAD_MODE", "presign"),
			MaxFileSizeMB: getEnvAsInt("JOBMATCH_MAX_FILE_MB", 10),
			PutTimeout:    getEnvAsDuration("JOBMATCH_UPLOAD_TIMEOUT", "5m"),
		},
		Preview: PreviewConfig{
			GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),
			Model:        getEnv("PREVIEW_MODEL", "gemini-2.5-pro"),
		},
		Web: WebConfig{
			BuildDir: getEnv("WEB_BUILD_DIR", "./build"),
			Port:     getEnv("WEB_PORT", "8081"),
		},
	}
}

// Validate checks the values every client command needs.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("empty JOBMATCH_BASE_URL in environment")
	}
	switch c.Credential.Store {
	case "file", "memory":
	case "db":
		if c.Database.URL == "" {
			return fmt.Errorf("credential store db needs DB_URL")
		}
	default:
		return fmt.Errorf("unknown credential store %q", c.Credential.Store)
	}
	switch c.Upload.Mode {
	case "presign", "multipart":
	case "direct":
		if !c.R2.Enabled() {
			return fmt.Errorf("upload mode direct needs R2_ACCCOUNT_ID, R2_BUCKET, R2_ACCESS_KEY and R2_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unknown upload mode %q", c.Upload.Mode)
	}
	if c.Updates.Transport == "amqp" && c.Updates.RabbitMQURL == "" {
		return fmt.Errorf("empty RABBITMQ_URL in env")
	}
	return nil
}

// apiBaseURL appends the /api prefix the backend mounts its routes under.
func apiBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	if base == "" || strings.HasSuffix(base, "/api") {
		return base
	}
	return base + "/api"
}

func defaultCredentialFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jobmatch/credential.json"
	}
	return filepath.Join(home, ".jobmatch", "credential.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
