package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 推理服務提供者
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Config 應用配置
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Inference  InferenceConfig  `mapstructure:"inference"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Search     SearchConfig     `mapstructure:"search"`
	Gate       GateConfig       `mapstructure:"gate"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Image      ImageConfig      `mapstructure:"image"`
	LogLevel   string           `mapstructure:"log_level"`
	LogFile    string           `mapstructure:"log_file"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// IsProduction 是否為正式環境
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// InferenceConfig 選擇圖片辨識服務
type InferenceConfig struct {
	Provider string `mapstructure:"provider"`
}

// GeminiConfig Gemini 配置
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"` // 空字串時使用 SDK 預設端點
	Timeout time.Duration `mapstructure:"timeout"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// AnalysisConfig 圖片分析設定
type AnalysisConfig struct {
	Deadline     time.Duration `mapstructure:"deadline"`
	MinDimension int           `mapstructure:"min_dimension"`
	MaxDimension int           `mapstructure:"max_dimension"`
}

// SearchConfig 營養搜尋設定
type SearchConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	DataSource  string        `mapstructure:"data_source"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	Deadline    time.Duration `mapstructure:"deadline"`
}

// GateConfig 同一呼叫者序列化設定
type GateConfig struct {
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	MaxSize         int           `mapstructure:"max_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// CacheConfig 搜尋結果快取（Redis）
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Addr    string        `mapstructure:"addr"`
	DB      int           `mapstructure:"db"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 上傳圖片配置
type ImageConfig struct {
	MaxSizeBytes int64    `mapstructure:"max_size_bytes"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 可有可無
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("app.env", "APP_ENV")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY", "API_KEY")
	_ = v.BindEnv("gemini.model", "GEMINI_MODEL")
	_ = v.BindEnv("gemini.base_url", "GEMINI_BASE_URL")
	_ = v.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	_ = v.BindEnv("inference.provider", "INFERENCE_PROVIDER")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("cache.addr", "REDIS_ADDR")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("log_file", "LOG_FILE")

	// 設定檔（可選）
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "food-analyzer")

	// 伺服器設定
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "5s")

	// 推理服務
	v.SetDefault("inference.provider", ProviderGemini)
	v.SetDefault("gemini.model", "gemini-3-flash-preview")
	v.SetDefault("gemini.timeout", "40s")
	v.SetDefault("openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.max_tokens", 2048)
	v.SetDefault("openrouter.timeout", "40s")

	// 分析設定
	v.SetDefault("analysis.deadline", "45s")
	v.SetDefault("analysis.min_dimension", 100)
	v.SetDefault("analysis.max_dimension", 2500)

	// 搜尋設定
	v.SetDefault("search.base_url", "https://health-diet.ru")
	v.SetDefault("search.data_source", "other")
	v.SetDefault("search.http_timeout", "10s")
	v.SetDefault("search.deadline", "15s")

	// 呼叫者鎖
	v.SetDefault("gate.idle_ttl", "60s")
	v.SetDefault("gate.max_size", 1000)
	v.SetDefault("gate.cleanup_interval", "30s")

	// 快取設定
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "1h")

	// 限流設定
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB
	v.SetDefault("image.allowed_types", []string{"image/jpeg", "image/png"})

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "logs/api.log")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Inference.Provider {
	case ProviderGemini, ProviderOpenRouter:
	default:
		return fmt.Errorf("unknown inference provider %q", config.Inference.Provider)
	}

	if config.Analysis.Deadline <= 0 {
		return fmt.Errorf("invalid analysis deadline")
	}
	if config.Analysis.MinDimension <= 0 || config.Analysis.MaxDimension < config.Analysis.MinDimension {
		return fmt.Errorf("invalid image dimension bounds")
	}

	if config.Search.Deadline <= 0 || config.Search.HTTPTimeout <= 0 {
		return fmt.Errorf("invalid search timeouts")
	}

	if config.Gate.IdleTTL <= 0 {
		return fmt.Errorf("invalid gate idle ttl")
	}
	if config.Gate.MaxSize <= 0 {
		return fmt.Errorf("invalid gate max size")
	}

	if config.Cache.Enabled && config.Cache.TTL <= 0 {
		return fmt.Errorf("invalid cache ttl")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	if config.Image.MaxSizeBytes <= 0 {
		return fmt.Errorf("invalid image max size")
	}

	return nil
}
