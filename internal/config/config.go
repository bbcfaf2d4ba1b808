package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every subsystem's settings.
type Config struct {
	Server ServerConfig
	Kakao  KakaoConfig
	Odsay  OdsayConfig
	AI     AIConfig
	Meet   MeetConfig
}

// Load reads the whole configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	kakao, err := loadKakaoConfig()
	if err != nil {
		return nil, err
	}

	odsay, err := loadOdsayConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	meet, err := loadMeetConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Kakao: kakao, Odsay: odsay, AI: ai, Meet: meet}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// KakaoConfig holds Kakao Local REST API settings used for geocoding and the
// nearby-place category search.
type KakaoConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func loadKakaoConfig() (KakaoConfig, error) {
	timeout, err := parseDurationEnv("KAKAO_TIMEOUT", 3*time.Second)
	if err != nil {
		return KakaoConfig{}, err
	}

	cfg := KakaoConfig{
		APIKey:  strings.TrimSpace(os.Getenv("KAKAO_REST_API_KEY")),
		BaseURL: getEnvOrDefault("KAKAO_BASE_URL", "https://dapi.kakao.com"),
		Timeout: timeout,
	}
	if cfg.APIKey == "" {
		return KakaoConfig{}, fmt.Errorf("KAKAO_REST_API_KEY is required")
	}
	return cfg, nil
}

// OdsayConfig holds the transit-network lookup API settings.
type OdsayConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func loadOdsayConfig() (OdsayConfig, error) {
	timeout, err := parseDurationEnv("ODSAY_TIMEOUT", 3*time.Second)
	if err != nil {
		return OdsayConfig{}, err
	}

	cfg := OdsayConfig{
		APIKey:  strings.TrimSpace(os.Getenv("ODSAY_API_KEY")),
		BaseURL: getEnvOrDefault("ODSAY_BASE_URL", "https://api.odsay.com"),
		Timeout: timeout,
	}
	if cfg.APIKey == "" {
		return OdsayConfig{}, fmt.Errorf("ODSAY_API_KEY is required")
	}
	return cfg, nil
}

// AIConfig holds the chat-model settings backing the summarizer. The service
// degrades to templated messages when it is not enabled.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Timeout     time.Duration
}

// Enabled reports whether the required model credentials were provided.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing: provide ARK_API_KEY + ARK_MODEL or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("ARK_TIMEOUT", 5*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
	}, nil
}

// MeetConfig carries the recommendation pipeline tunables.
type MeetConfig struct {
	TurnTimeout     time.Duration
	SessionTTL      time.Duration
	FallbackRadiusM int
	StationSuffix   string
	AirportLineMark string
}

func loadMeetConfig() (MeetConfig, error) {
	turnTimeout, err := parseDurationEnv("MEET_TURN_TIMEOUT", 10*time.Second)
	if err != nil {
		return MeetConfig{}, err
	}

	sessionTTL, err := parseDurationEnv("MEET_SESSION_TTL", 30*time.Minute)
	if err != nil {
		return MeetConfig{}, err
	}

	radius := 1000
	if override, err := parseOptionalIntEnv("MEET_FALLBACK_RADIUS_M"); err != nil {
		return MeetConfig{}, err
	} else if override != nil {
		if *override <= 0 {
			return MeetConfig{}, fmt.Errorf("MEET_FALLBACK_RADIUS_M must be positive")
		}
		radius = *override
	}

	return MeetConfig{
		TurnTimeout:     turnTimeout,
		SessionTTL:      sessionTTL,
		FallbackRadiusM: radius,
		StationSuffix:   getEnvOrDefault("MEET_STATION_SUFFIX", "역"),
		AirportLineMark: getEnvOrDefault("MEET_AIRPORT_LINE", "공항"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
