package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Provider names
const (
	ProviderWatson     = "watson"
	ProviderAssemblyAI = "assemblyai"
	ProviderGroq       = "groq"
)

// Config holds application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Storage       StorageConfig
	Transcription TranscriptionConfig
	Analysis      AnalysisConfig
	Watson        WatsonConfig
	Assembly      AssemblyAIConfig
	Groq          GroqConfig
	Pexels        PexelsConfig
	Shotstack     ShotstackConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port              string        `envconfig:"PORT" default:"8080"`
	Host              string        `envconfig:"HOST" default:"0.0.0.0"`
	Environment       string        `envconfig:"ENVIRONMENT" default:"development" validate:"oneof=development staging production test"`
	AllowedOrigins    []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout   int           `envconfig:"SHUTDOWN_TIMEOUT" default:"10" validate:"gte=0"` // seconds
	UploadDir         string        `envconfig:"UPLOAD_DIR" default:"uploads" validate:"required"`
	MaxUploadMB       int64         `envconfig:"MAX_UPLOAD_MB" default:"50" validate:"gt=0"`
	MaxConcurrentRuns int           `envconfig:"MAX_CONCURRENT_RUNS" default:"2" validate:"gt=0"`
	RunTimeout        time.Duration `envconfig:"RUN_TIMEOUT" default:"30m"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"visually"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Endpoint        string        `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000" validate:"required"`
	AccessKeyID     string        `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string        `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string        `envconfig:"STORAGE_BUCKET" default:"visually" validate:"required"`
	Region          string        `envconfig:"STORAGE_REGION"`
	UseSSL          bool          `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string        `envconfig:"STORAGE_PUBLIC_URL"` // rewrites presigned URLs for an externally reachable host
	URLExpiry       time.Duration `envconfig:"STORAGE_URL_EXPIRY" default:"24h" validate:"gt=0"`
}

// TranscriptionConfig selects the speech recogniser
type TranscriptionConfig struct {
	Provider string `envconfig:"TRANSCRIPTION_PROVIDER" default:"watson" validate:"oneof=watson assemblyai"`
	Model    string `envconfig:"TRANSCRIPTION_MODEL" default:"en-US_BroadbandModel"`
}

// AnalysisConfig selects the text analyser
type AnalysisConfig struct {
	Provider string `envconfig:"ANALYSIS_PROVIDER" default:"watson" validate:"oneof=watson groq"`
}

// WatsonConfig holds IBM Watson credentials and endpoints
type WatsonConfig struct {
	STTAPIKey  string `envconfig:"WATSON_STT_API_KEY"`
	STTURL     string `envconfig:"WATSON_STT_URL" default:"https://api.us-south.speech-to-text.watson.cloud.ibm.com"`
	NLUAPIKey  string `envconfig:"WATSON_NLU_API_KEY"`
	NLUURL     string `envconfig:"WATSON_NLU_URL" default:"https://api.us-south.natural-language-understanding.watson.cloud.ibm.com"`
	NLUVersion string `envconfig:"WATSON_NLU_VERSION" default:"2021-03-25"`
	IAMURL     string `envconfig:"WATSON_IAM_URL" default:"https://iam.cloud.ibm.com/identity/token"`
}

// AssemblyAIConfig holds AssemblyAI configuration
type AssemblyAIConfig struct {
	APIKey       string `envconfig:"ASSEMBLYAI_API_KEY"`
	LanguageCode string `envconfig:"ASSEMBLYAI_LANGUAGE_CODE" default:"en"`
}

// GroqConfig holds Groq configuration
type GroqConfig struct {
	APIKey  string `envconfig:"GROQ_API_KEY"`
	BaseURL string `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com"`
	Model   string `envconfig:"GROQ_MODEL" default:"llama-3.1-70b-versatile"`
}

// PexelsConfig holds stock footage search configuration
type PexelsConfig struct {
	APIKey          string        `envconfig:"PEXELS_API_KEY" validate:"required"`
	BaseURL         string        `envconfig:"PEXELS_BASE_URL" default:"https://api.pexels.com" validate:"url"`
	PageSize        int           `envconfig:"PEXELS_PAGE_SIZE" default:"10" validate:"gt=0,lte=80"`
	RequestsPerHour int           `envconfig:"PEXELS_REQUESTS_PER_HOUR" default:"200" validate:"gt=0"`
	CacheTTL        time.Duration `envconfig:"PEXELS_CACHE_TTL" default:"24h"`
}

// ShotstackConfig holds render service configuration
type ShotstackConfig struct {
	APIKey           string        `envconfig:"SHOTSTACK_API_KEY" validate:"required"`
	APIURL           string        `envconfig:"SHOTSTACK_API_URL" default:"https://api.shotstack.io/stage" validate:"url"`
	OutputFormat     string        `envconfig:"SHOTSTACK_OUTPUT_FORMAT" default:"mp4" validate:"oneof=mp4 gif mp3"`
	OutputResolution string        `envconfig:"SHOTSTACK_OUTPUT_RESOLUTION" default:"sd" validate:"oneof=preview mobile sd hd 1080"`
	PollInterval     time.Duration `envconfig:"SHOTSTACK_POLL_INTERVAL" default:"3s" validate:"gt=0"`
	PollMaxAttempts  int           `envconfig:"SHOTSTACK_POLL_MAX_ATTEMPTS" default:"200" validate:"gt=0"`
	PollMaxWait      time.Duration `envconfig:"SHOTSTACK_POLL_MAX_WAIT" default:"15m" validate:"gt=0"`
	SoundtrackEffect string        `envconfig:"SHOTSTACK_SOUNDTRACK_EFFECT" default:"fadeOut"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config, err := FromEnv()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FromEnv decodes every section from the environment without validating
func FromEnv() (*Config, error) {
	config := &Config{}
	sections := map[string]interface{}{
		"server":        &config.Server,
		"database":      &config.Database,
		"redis":         &config.Redis,
		"storage":       &config.Storage,
		"transcription": &config.Transcription,
		"analysis":      &config.Analysis,
		"watson":        &config.Watson,
		"assemblyai":    &config.Assembly,
		"groq":          &config.Groq,
		"pexels":        &config.Pexels,
		"shotstack":     &config.Shotstack,
	}
	for name, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", name, err)
		}
	}
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Transcription.Provider {
	case ProviderWatson:
		if c.Watson.STTAPIKey == "" {
			return fmt.Errorf("WATSON_STT_API_KEY is required")
		}
	case ProviderAssemblyAI:
		if c.Assembly.APIKey == "" {
			return fmt.Errorf("ASSEMBLYAI_API_KEY is required")
		}
	}

	switch c.Analysis.Provider {
	case ProviderWatson:
		if c.Watson.NLUAPIKey == "" {
			return fmt.Errorf("WATSON_NLU_API_KEY is required")
		}
	case ProviderGroq:
		if c.Groq.APIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required")
		}
	}
	return nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// MaxUploadBytes returns the upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
