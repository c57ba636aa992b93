package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full application configuration, loaded once at startup and
// passed into constructors. The pipeline never re-reads settings per call.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	LLM        LLMConfig        `mapstructure:"llm"`
	TTS        TTSConfig        `mapstructure:"tts"`
	Image      ImageConfig      `mapstructure:"image"`
	Generation GenerationConfig `mapstructure:"generation"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite
	Path            string        `mapstructure:"path"`   // sqlite file path
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type StorageConfig struct {
	Type      string `mapstructure:"type"` // r2, s3, s3compatible; auto-detected when empty
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

// Configured reports whether durable storage credentials are present. When
// they are not, the image migrator degrades to ephemeral URLs.
func (c *StorageConfig) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

type LLMConfig struct {
	APIKey            string   `mapstructure:"api_key"`
	BaseURL           string   `mapstructure:"base_url"`
	PreferredModel    string   `mapstructure:"preferred_model"`
	BaselineModels    []string `mapstructure:"baseline_models"`
	Temperature       float64  `mapstructure:"temperature"`
	MainTextMaxTokens int      `mapstructure:"main_text_max_tokens"`
	FieldMaxTokens    int      `mapstructure:"field_max_tokens"`
}

type TTSConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	DefaultVoice string `mapstructure:"default_voice"`
}

type ImageConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	Model           string `mapstructure:"model"`
	PromptTemplate  string `mapstructure:"prompt_template"` // empty uses the built-in template
	MinPromptLength int    `mapstructure:"min_prompt_length"`
}

type GenerationConfig struct {
	MaxBatchSize      int               `mapstructure:"max_batch_size"`
	ItemDelay         time.Duration     `mapstructure:"item_delay"`
	PausePollInterval time.Duration     `mapstructure:"pause_poll_interval"`
	FieldTemplates    map[string]string `mapstructure:"field_templates"` // per-field overrides
}

// Load reads configuration from the given yaml file (or ./configs/config.yaml)
// with environment variable overrides.
func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/selah.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "selah-media")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.preferred_model", "gpt-4o")
	v.SetDefault("llm.baseline_models", []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1-mini"})
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.main_text_max_tokens", 1600)
	v.SetDefault("llm.field_max_tokens", 300)
	v.SetDefault("tts.base_url", "https://api.openai.com/v1")
	v.SetDefault("tts.default_voice", "alloy")
	v.SetDefault("image.base_url", "https://api.openai.com/v1")
	v.SetDefault("image.model", "dall-e-3")
	v.SetDefault("image.min_prompt_length", 12)
	v.SetDefault("generation.max_batch_size", 30)
	v.SetDefault("generation.item_delay", 2*time.Second)
	v.SetDefault("generation.pause_poll_interval", 500*time.Millisecond)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	v.BindEnv("llm.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.base_url", "OPENAI_BASE_URL")
	v.BindEnv("llm.preferred_model", "LLM_PREFERRED_MODEL")
	v.BindEnv("tts.api_key", "TTS_API_KEY")
	v.BindEnv("tts.base_url", "TTS_BASE_URL")
	v.BindEnv("image.api_key", "IMAGE_API_KEY")
	v.BindEnv("image.base_url", "IMAGE_BASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
