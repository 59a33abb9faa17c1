package config

import (
	"os"
	"strconv"

	"github.com/kozaktomas/face-locker/internal/constants"
)

type Config struct {
	Storage    StorageConfig
	S3         S3Config
	Azure      AzureConfig
	Auth       AuthConfig
	FaceAPI    FaceAPIConfig
	Recognizer RecognizerConfig
}

type StorageConfig struct {
	Backend    string // one of "local", "s3", "azure" (default "local")
	DatasetDir string // base directory for the local backend
	Prefix     string // optional key prefix shared by all backends
}

type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type AzureConfig struct {
	ConnectionString string
	Container        string
}

type AuthConfig struct {
	AdminToken string // bearer token required by mutating endpoints
}

type FaceAPIConfig struct {
	URL   string // defaults to http://localhost:8000
	Model string // model name for reference only
}

type RecognizerConfig struct {
	ConfidenceThreshold float64 // maximum cosine distance for a match (default 0.5)
	MaxImageSize        int     // images are scaled down to this dimension before embedding
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDefault reads an environment variable with a fallback value.
func envDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    envDefault("STORAGE_BACKEND", constants.LocalBackend),
			DatasetDir: envDefault("DATASET_DIR", "dataset"),
			Prefix:     os.Getenv("STORAGE_PREFIX"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("AWS_S3_BUCKET"),
			Region:          os.Getenv("AWS_REGION"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		Azure: AzureConfig{
			ConnectionString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
			Container:        os.Getenv("AZURE_CONTAINER_NAME"),
		},
		Auth: AuthConfig{
			AdminToken: os.Getenv("ADMIN_TOKEN"),
		},
		FaceAPI: FaceAPIConfig{
			URL:   envDefault("FACE_API_URL", constants.DefaultFaceAPIURL),
			Model: os.Getenv("FACE_API_MODEL"),
		},
		Recognizer: RecognizerConfig{
			ConfidenceThreshold: envFloat("CONFIDENCE_THRESHOLD", constants.DefaultConfidenceThreshold),
			MaxImageSize:        envInt("MAX_IMAGE_SIZE", constants.DefaultMaxImageSize),
		},
	}
}
