package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	ollamaapi "github.com/ollama/ollama/api"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	AI        AIConfig
	Chat      ChatConfig
	Emotion   EmotionConfig
	Retrieval RetrievalConfig
	Report    ReportConfig
	Database  DatabaseConfig
	Session   SessionConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	emotion, err := loadEmotionConfig()
	if err != nil {
		return nil, err
	}

	retrieval, err := loadRetrievalConfig()
	if err != nil {
		return nil, err
	}

	report, err := loadReportConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Log:       loadLogConfig(),
		AI:        ai,
		Chat:      chat,
		Emotion:   emotion,
		Retrieval: retrieval,
		Report:    report,
		Database:  DatabaseConfig{DSN: strings.TrimSpace(os.Getenv("DATABASE_URL"))},
		Session:   session,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	CookieSecure   bool
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	secure, err := parseBoolEnv("COOKIE_SECURE", false)
	if err != nil {
		return ServerConfig{}, err
	}

	var origins []string
	for _, origin := range strings.Split(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, CookieSecure: secure, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, CookieSecure: secure, AllowedOrigins: origins}, nil
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
		Output: getEnvOrDefault("LOG_OUTPUT", "stdout"),
	}
}

// Chat model providers.
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider    string
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

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	switch c.Provider {
	case ProviderArk:
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	case ProviderOpenAI:
		return c.APIKey != ""
	case ProviderOllama:
		return true
	default:
		return false
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("chat model configuration incomplete for provider %q: set LLM_MODEL and the provider credentials", c.Provider)
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

	switch c.Provider {
	case ProviderOpenAI:
		// Groq and other OpenAI-compatible endpoints are reached through BaseURL.
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
			Timeout:     c.Timeout,
		})
	case ProviderOllama:
		cfg := &ollama.ChatModelConfig{
			BaseURL: c.BaseURL,
			Model:   c.Model,
			Timeout: c.Timeout,
		}
		if temperature != nil {
			cfg.Options = &ollamaapi.Options{Temperature: *temperature}
		}
		return ollama.NewChatModel(ctx, cfg)
	default:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI))
	switch provider {
	case ProviderArk, ProviderOpenAI, ProviderOllama:
	default:
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		def := 0.5
		temperature = &def
	}

	topP, err := parseOptionalFloatEnv("LLM_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("LLM_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:    provider,
		APIKey:      strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("LLM_MODEL")),
		BaseURL:     getEnvOrDefault("LLM_BASE_URL", defaultBaseURL(provider)),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
	}, nil
}

func defaultBaseURL(provider string) string {
	switch provider {
	case ProviderArk:
		return "https://ark.cn-beijing.volces.com/api/v3"
	case ProviderOllama:
		return "http://localhost:11434"
	default:
		return "https://api.groq.com/openai/v1"
	}
}

// ChatConfig bounds a single composed chat reply.
type ChatConfig struct {
	Timeout time.Duration
}

func loadChatConfig() (ChatConfig, error) {
	timeout, err := parseDurationEnv("CHAT_TIMEOUT", 30*time.Second)
	if err != nil {
		return ChatConfig{}, err
	}
	return ChatConfig{Timeout: timeout}, nil
}

// Emotion classifier backends.
const (
	EmotionKeyword = "keyword"
	EmotionHugot   = "hugot"
	EmotionLLM     = "llm"
)

// EmotionConfig 描述情绪分类配置。
type EmotionConfig struct {
	Backend   string
	ModelPath string
	Timeout   time.Duration
}

func loadEmotionConfig() (EmotionConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("EMOTION_BACKEND", EmotionKeyword))
	switch backend {
	case EmotionKeyword, EmotionHugot, EmotionLLM:
	default:
		return EmotionConfig{}, fmt.Errorf("invalid EMOTION_BACKEND value %q", backend)
	}

	timeout, err := parseDurationEnv("EMOTION_TIMEOUT", 5*time.Second)
	if err != nil {
		return EmotionConfig{}, err
	}

	return EmotionConfig{
		Backend:   backend,
		ModelPath: getEnvOrDefault("EMOTION_MODEL_PATH", "./models/emotion-english-distilroberta-base"),
		Timeout:   timeout,
	}, nil
}

// Retrieval backends and embedders.
const (
	RetrievalMemory   = "memory"
	RetrievalQdrant   = "qdrant"
	RetrievalPGVector = "pgvector"

	EmbedderOllama = "ollama"
	EmbedderHugot  = "hugot"
)

// RetrievalConfig 描述知识库检索配置。
type RetrievalConfig struct {
	Backend        string
	Embedder       string
	EmbeddingModel string
	OllamaHost     string
	HugotModelPath string
	QdrantHost     string
	QdrantPort     int
	Collection     string
	CorpusPath     string
	TopK           int
}

func loadRetrievalConfig() (RetrievalConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("RETRIEVAL_BACKEND", RetrievalMemory))
	switch backend {
	case RetrievalMemory, RetrievalQdrant, RetrievalPGVector:
	default:
		return RetrievalConfig{}, fmt.Errorf("invalid RETRIEVAL_BACKEND value %q", backend)
	}

	embedder := strings.ToLower(getEnvOrDefault("EMBEDDER", EmbedderOllama))
	switch embedder {
	case EmbedderOllama, EmbedderHugot:
	default:
		return RetrievalConfig{}, fmt.Errorf("invalid EMBEDDER value %q", embedder)
	}

	qdrantPort := 6334
	if override, err := parseOptionalIntEnv("QDRANT_PORT"); err != nil {
		return RetrievalConfig{}, err
	} else if override != nil {
		qdrantPort = *override
	}

	topK := 3
	if override, err := parseOptionalIntEnv("RETRIEVAL_TOP_K"); err != nil {
		return RetrievalConfig{}, err
	} else if override != nil {
		topK = *override
	}
	if topK < 1 {
		topK = 1
	}
	if topK > 3 {
		topK = 3
	}

	return RetrievalConfig{
		Backend:        backend,
		Embedder:       embedder,
		EmbeddingModel: getEnvOrDefault("EMBEDDING_MODEL", "nomic-embed-text"),
		OllamaHost:     getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
		HugotModelPath: getEnvOrDefault("EMBEDDING_MODEL_PATH", "./models/sentence-transformers_all-MiniLM-L6-v2"),
		QdrantHost:     getEnvOrDefault("QDRANT_HOST", "localhost"),
		QdrantPort:     qdrantPort,
		Collection:     getEnvOrDefault("KNOWLEDGE_COLLECTION", "medical-chatbot"),
		CorpusPath:     getEnvOrDefault("KNOWLEDGE_CORPUS", "./data/medical_corpus.yaml"),
		TopK:           topK,
	}, nil
}

// ReportConfig 描述报告摘要配置。
type ReportConfig struct {
	Timeout        time.Duration
	MaxUploadBytes int64
}

func loadReportConfig() (ReportConfig, error) {
	timeout, err := parseDurationEnv("REPORT_TIMEOUT", 60*time.Second)
	if err != nil {
		return ReportConfig{}, err
	}

	maxUpload := int64(10 << 20)
	if override, err := parseOptionalIntEnv("REPORT_MAX_UPLOAD_BYTES"); err != nil {
		return ReportConfig{}, err
	} else if override != nil && *override > 0 {
		maxUpload = int64(*override)
	}

	return ReportConfig{Timeout: timeout, MaxUploadBytes: maxUpload}, nil
}

// DatabaseConfig 描述关系型存储配置，DSN 为空时使用内存存储。
type DatabaseConfig struct {
	DSN string
}

// SessionConfig 描述登录会话配置，RedisURL 为空时使用内存存储。
type SessionConfig struct {
	RedisURL string
	TTL      time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return SessionConfig{}, err
	}
	return SessionConfig{
		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),
		TTL:      ttl,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
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
