package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	LLM      LLMConfig      `yaml:"llm"`
	Storage  StorageConfig  `yaml:"storage"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Chat     ChatConfig     `yaml:"chat"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host          string   `yaml:"host"`
	Port          int      `yaml:"port"`
	RateLimit     float64  `yaml:"rate_limit"`
	RateBurst     int      `yaml:"rate_burst"`
	CORSOrigins   []string `yaml:"cors_origins"`
	MaxUploadSize int64    `yaml:"max_upload_size"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConns       int    `yaml:"max_conns"`
	MinConns       int    `yaml:"min_conns"`
	MigrationsPath string `yaml:"migrations_path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	// DevRoles trusts the role header when no JWT secret is set.
	DevRoles bool `yaml:"dev_roles"`
}

type LLMConfig struct {
	OpenAIKey        string `yaml:"openai_key"`
	OpenAIBaseURL    string `yaml:"openai_base_url"`
	AnthropicKey     string `yaml:"anthropic_key"`
	GeminiKey        string `yaml:"gemini_key"`
	OllamaURL        string `yaml:"ollama_url"`
	TextGenURL       string `yaml:"textgen_url"`
	TextGenKey       string `yaml:"textgen_key"`
	DefaultProvider  string `yaml:"default_provider"`
	DefaultModel     string `yaml:"default_model"`
	FallbackProvider string `yaml:"fallback_provider"`
	MaxRetries       int    `yaml:"max_retries"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend"` // "supabase", "s3" or "local"
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
	Bucket      string `yaml:"bucket"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3Region    string `yaml:"s3_region"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3UseSSL    bool   `yaml:"s3_use_ssl"`
	LocalDir    string `yaml:"local_dir"`
}

type PipelineConfig struct {
	AnalysisModel        string        `yaml:"analysis_model"`
	AnalysisTemperature  float64       `yaml:"analysis_temperature"`
	AnalysisMaxTokens    int           `yaml:"analysis_max_tokens"`
	AnalysisMaxChars     int           `yaml:"analysis_max_chars"`
	MinExtractedChars    int           `yaml:"min_extracted_chars"`
	PlaceholderThreshold int           `yaml:"placeholder_threshold"`
	LockTTL              time.Duration `yaml:"lock_ttl"`
}

type ChatConfig struct {
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	HistoryLimit int     `yaml:"history_limit"`
	ContextChars int     `yaml:"context_chars"`
}

type WorkerConfig struct {
	Concurrency   int           `yaml:"concurrency"`
	TaskTimeout   time.Duration `yaml:"task_timeout"`
	SweepTimeout  time.Duration `yaml:"sweep_timeout"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			RateLimit:     20,
			RateBurst:     40,
			CORSOrigins:   []string{"*"},
			MaxUploadSize: 32 << 20,
		},
		Database: DatabaseConfig{
			MaxConns:       20,
			MinConns:       2,
			MigrationsPath: "migrations",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		LLM: LLMConfig{
			OllamaURL:       "",
			DefaultProvider: "openai",
			DefaultModel:    "gpt-4o-mini",
			MaxRetries:      0,
		},
		Storage: StorageConfig{
			Backend:  "supabase",
			Bucket:   "documents",
			S3Region: "us-east-1",
			S3UseSSL: true,
			LocalDir: "data/uploads",
		},
		Pipeline: PipelineConfig{
			AnalysisTemperature:  0.3,
			AnalysisMaxTokens:    2000,
			AnalysisMaxChars:     8000,
			MinExtractedChars:    50,
			PlaceholderThreshold: 20,
			LockTTL:              10 * time.Minute,
		},
		Chat: ChatConfig{
			Temperature:  0.7,
			MaxTokens:    1000,
			HistoryLimit: 20,
			ContextChars: 2000,
		},
		Worker: WorkerConfig{
			Concurrency:  10,
			TaskTimeout:  10 * time.Minute,
			SweepTimeout: time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and finally the environment, which always wins.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	var err error
	if cfg.Server.Port, err = getEnvInt("SERVER_PORT", cfg.Server.Port); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if cfg.Server.RateLimit, err = getEnvFloat("RATE_LIMIT_RPS", cfg.Server.RateLimit); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.Server.RateBurst, err = getEnvInt("RATE_LIMIT_BURST", cfg.Server.RateBurst); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", int(cfg.Server.MaxUploadSize))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
	}
	cfg.Server.MaxUploadSize = int64(maxUpload)
	if cfg.Database.MaxConns, err = getEnvInt("DB_MAX_CONNS", cfg.Database.MaxConns); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	if cfg.Database.MinConns, err = getEnvInt("DB_MIN_CONNS", cfg.Database.MinConns); err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", cfg.Redis.DB); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.LLM.MaxRetries, err = getEnvInt("LLM_MAX_RETRIES", cfg.LLM.MaxRetries); err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}
	if cfg.Pipeline.AnalysisTemperature, err = getEnvFloat("ANALYSIS_TEMPERATURE", cfg.Pipeline.AnalysisTemperature); err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_TEMPERATURE: %w", err)
	}
	if cfg.Pipeline.AnalysisMaxTokens, err = getEnvInt("ANALYSIS_MAX_TOKENS", cfg.Pipeline.AnalysisMaxTokens); err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_MAX_TOKENS: %w", err)
	}
	if cfg.Pipeline.AnalysisMaxChars, err = getEnvInt("ANALYSIS_MAX_INPUT_CHARS", cfg.Pipeline.AnalysisMaxChars); err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_MAX_INPUT_CHARS: %w", err)
	}
	if cfg.Pipeline.MinExtractedChars, err = getEnvInt("EXTRACT_MIN_CHARS", cfg.Pipeline.MinExtractedChars); err != nil {
		return nil, fmt.Errorf("invalid EXTRACT_MIN_CHARS: %w", err)
	}
	if cfg.Pipeline.PlaceholderThreshold, err = getEnvInt("EXTRACT_PLACEHOLDER_THRESHOLD", cfg.Pipeline.PlaceholderThreshold); err != nil {
		return nil, fmt.Errorf("invalid EXTRACT_PLACEHOLDER_THRESHOLD: %w", err)
	}
	if cfg.Pipeline.LockTTL, err = getEnvDuration("PIPELINE_LOCK_TTL", cfg.Pipeline.LockTTL); err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_LOCK_TTL: %w", err)
	}
	if cfg.Chat.Temperature, err = getEnvFloat("CHAT_TEMPERATURE", cfg.Chat.Temperature); err != nil {
		return nil, fmt.Errorf("invalid CHAT_TEMPERATURE: %w", err)
	}
	if cfg.Chat.MaxTokens, err = getEnvInt("CHAT_MAX_TOKENS", cfg.Chat.MaxTokens); err != nil {
		return nil, fmt.Errorf("invalid CHAT_MAX_TOKENS: %w", err)
	}
	if cfg.Chat.HistoryLimit, err = getEnvInt("CHAT_HISTORY_LIMIT", cfg.Chat.HistoryLimit); err != nil {
		return nil, fmt.Errorf("invalid CHAT_HISTORY_LIMIT: %w", err)
	}
	if cfg.Chat.ContextChars, err = getEnvInt("CHAT_CONTEXT_CHARS", cfg.Chat.ContextChars); err != nil {
		return nil, fmt.Errorf("invalid CHAT_CONTEXT_CHARS: %w", err)
	}
	if cfg.Worker.Concurrency, err = getEnvInt("WORKER_CONCURRENCY", cfg.Worker.Concurrency); err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}
	if cfg.Worker.TaskTimeout, err = getEnvDuration("WORKER_TASK_TIMEOUT", cfg.Worker.TaskTimeout); err != nil {
		return nil, fmt.Errorf("invalid WORKER_TASK_TIMEOUT: %w", err)
	}
	if cfg.Worker.SweepTimeout, err = getEnvDuration("SWEEP_TIMEOUT", cfg.Worker.SweepTimeout); err != nil {
		return nil, fmt.Errorf("invalid SWEEP_TIMEOUT: %w", err)
	}
	if cfg.Auth.DevRoles, err = getEnvBool("AUTH_DEV_ROLES", cfg.Auth.DevRoles); err != nil {
		return nil, fmt.Errorf("invalid AUTH_DEV_ROLES: %w", err)
	}
	if cfg.Storage.S3UseSSL, err = getEnvBool("S3_USE_SSL", cfg.Storage.S3UseSSL); err != nil {
		return nil, fmt.Errorf("invalid S3_USE_SSL: %w", err)
	}

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MigrationsPath = getEnv("MIGRATIONS_PATH", cfg.Database.MigrationsPath)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)

	cfg.LLM.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.LLM.OpenAIKey)
	cfg.LLM.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.LLM.OpenAIBaseURL)
	cfg.LLM.AnthropicKey = getEnv("ANTHROPIC_API_KEY", cfg.LLM.AnthropicKey)
	cfg.LLM.GeminiKey = getEnv("GEMINI_API_KEY", cfg.LLM.GeminiKey)
	cfg.LLM.OllamaURL = getEnv("OLLAMA_URL", cfg.LLM.OllamaURL)
	cfg.LLM.TextGenURL = getEnv("TEXTGEN_URL", cfg.LLM.TextGenURL)
	cfg.LLM.TextGenKey = getEnv("TEXTGEN_API_KEY", cfg.LLM.TextGenKey)
	cfg.LLM.DefaultProvider = getEnv("LLM_DEFAULT_PROVIDER", cfg.LLM.DefaultProvider)
	cfg.LLM.DefaultModel = getEnv("LLM_DEFAULT_MODEL", cfg.LLM.DefaultModel)
	cfg.LLM.FallbackProvider = getEnv("LLM_FALLBACK_PROVIDER", cfg.LLM.FallbackProvider)

	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.SupabaseURL = getEnv("SUPABASE_URL", cfg.Storage.SupabaseURL)
	cfg.Storage.SupabaseKey = getEnv("SUPABASE_SERVICE_KEY", cfg.Storage.SupabaseKey)
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.S3Endpoint = getEnv("S3_ENDPOINT", cfg.Storage.S3Endpoint)
	cfg.Storage.S3Region = getEnv("S3_REGION", cfg.Storage.S3Region)
	cfg.Storage.S3AccessKey = getEnv("S3_ACCESS_KEY", cfg.Storage.S3AccessKey)
	cfg.Storage.S3SecretKey = getEnv("S3_SECRET_KEY", cfg.Storage.S3SecretKey)
	cfg.Storage.LocalDir = getEnv("STORAGE_LOCAL_DIR", cfg.Storage.LocalDir)

	cfg.Pipeline.AnalysisModel = getEnv("ANALYSIS_MODEL", cfg.Pipeline.AnalysisModel)
	cfg.Chat.Model = getEnv("CHAT_MODEL", cfg.Chat.Model)
	cfg.Worker.SweepSchedule = getEnv("SWEEP_SCHEDULE", cfg.Worker.SweepSchedule)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	if cfg.Pipeline.AnalysisModel == "" {
		cfg.Pipeline.AnalysisModel = cfg.LLM.DefaultModel
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = cfg.LLM.DefaultModel
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports settings that must be present for a production deployment.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	switch c.Storage.Backend {
	case "supabase":
		if c.Storage.SupabaseURL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
	case "s3":
		if c.Storage.S3AccessKey == "" {
			missing = append(missing, "S3_ACCESS_KEY")
		}
	case "local":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
