// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储加载后的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// Env 为 production 时不向客户端回显错误细节
	Env string `mapstructure:"env"`
}

// IsProduction 报告当前是否运行在生产环境。
func (c ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// RedisConfig 存储会话持久层 Redis 的配置。
type RedisConfig struct {
	URL         string `mapstructure:"url"`
	Password    string `mapstructure:"password"`
	TLS         bool   `mapstructure:"tls"`
	Required    bool   `mapstructure:"required"`
	TTLSeconds  int    `mapstructure:"ttl_seconds"`
	OpTimeoutMs int    `mapstructure:"op_timeout_ms"`
}

// TTL 返回会话的过期时间。
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// OpTimeout 返回单次 Redis 调用的时限。
func (c RedisConfig) OpTimeout() time.Duration {
	return time.Duration(c.OpTimeoutMs) * time.Millisecond
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// EmbeddingConfig 存储 Embedding 提供方相关的配置。
type EmbeddingConfig struct {
	// Provider 为 "hf" 时优先使用 HuggingFace
	Provider  string                  `mapstructure:"provider"`
	TimeoutMs int                     `mapstructure:"timeout_ms"`
	Jina      EmbeddingProviderConfig `mapstructure:"jina"`
	HF        EmbeddingProviderConfig `mapstructure:"hf"`
}

// Timeout 返回单个远程提供方的调用时限。
func (c EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// EmbeddingProviderConfig 描述单个远程 Embedding 提供方。
type EmbeddingProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	TimeoutMs  int                 `mapstructure:"timeout_ms"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// Timeout 返回一次生成调用的时限。
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// LLMGenerationConfig 配置生成相关参数（可选）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// PipelineConfig 存储问答流水线的时限与检索参数。
type PipelineConfig struct {
	OverallTimeoutMs  int `mapstructure:"overall_timeout_ms"`
	TopK              int `mapstructure:"top_k"`
	IngestTimeoutMs   int `mapstructure:"ingest_timeout_ms"`
	RetrieveTimeoutMs int `mapstructure:"retrieve_timeout_ms"`
}

// OverallTimeout 返回整条流水线的总时限。
func (c PipelineConfig) OverallTimeout() time.Duration {
	return time.Duration(c.OverallTimeoutMs) * time.Millisecond
}

// RetrieveTimeout 返回问答时查询向量化的时限，超时后使用兜底向量。
func (c PipelineConfig) RetrieveTimeout() time.Duration {
	return time.Duration(c.RetrieveTimeoutMs) * time.Millisecond
}

// IngestTimeout 返回入库时单篇文章向量化的时限。
func (c PipelineConfig) IngestTimeout() time.Duration {
	return time.Duration(c.IngestTimeoutMs) * time.Millisecond
}

// KafkaConfig 存储文章入库消息队列的配置，Brokers 为空时不启动消费者。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig 存储种子语料对象存储的配置，Endpoint 为空时使用内置样例文章。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	SeedObject      string `mapstructure:"seed_object"`
}

// envBindings 将配置键映射到环境变量，多个变量时取第一个非空值。
var envBindings = map[string][]string{
	"server.port":                  {"PORT"},
	"server.mode":                  {"GIN_MODE"},
	"server.env":                   {"APP_ENV", "NODE_ENV"},
	"redis.url":                    {"REDIS_URL"},
	"redis.password":               {"REDIS_PASSWORD"},
	"redis.tls":                    {"REDIS_TLS"},
	"redis.required":               {"REQUIRE_REDIS"},
	"redis.ttl_seconds":            {"SESSION_TTL_SECONDS"},
	"redis.op_timeout_ms":          {"REDIS_OP_TIMEOUT_MS"},
	"log.level":                    {"LOG_LEVEL"},
	"log.format":                   {"LOG_FORMAT"},
	"embedding.provider":           {"EMBEDDINGS_PROVIDER"},
	"embedding.timeout_ms":         {"EMBEDDING_TIMEOUT_MS"},
	"embedding.jina.api_key":       {"JINA_API_KEY"},
	"embedding.hf.api_key":         {"HF_API_KEY"},
	"embedding.hf.model":           {"HF_EMBEDDING_MODEL"},
	"llm.api_key":                  {"LLM_API_KEY", "GEMINI_API_KEY"},
	"llm.base_url":                 {"LLM_BASE_URL"},
	"llm.model":                    {"LLM_MODEL"},
	"llm.timeout_ms":               {"LLM_TIMEOUT_MS"},
	"pipeline.retrieve_timeout_ms": {"RETRIEVE_TIMEOUT_MS"},
	"kafka.brokers":                {"KAFKA_BROKERS"},
	"kafka.topic":                  {"KAFKA_TOPIC"},
	"minio.endpoint":               {"MINIO_ENDPOINT"},
	"minio.access_key_id":          {"MINIO_ACCESS_KEY_ID"},
	"minio.secret_access_key":      {"MINIO_SECRET_ACCESS_KEY"},
	"minio.use_ssl":                {"MINIO_USE_SSL"},
	"minio.bucket_name":            {"MINIO_BUCKET"},
	"minio.seed_object":            {"MINIO_SEED_OBJECT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.env", "development")
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls", false)
	v.SetDefault("redis.required", false)
	v.SetDefault("redis.ttl_seconds", 3600)
	v.SetDefault("redis.op_timeout_ms", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")
	v.SetDefault("embedding.provider", "")
	v.SetDefault("embedding.timeout_ms", 8000)
	v.SetDefault("embedding.jina.api_key", "")
	v.SetDefault("embedding.jina.base_url", "https://api.jina.ai/v1")
	v.SetDefault("embedding.jina.model", "jina-embeddings-v2-base-en")
	v.SetDefault("embedding.hf.api_key", "")
	v.SetDefault("embedding.hf.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("embedding.hf.model", "sentence-transformers/all-MiniLM-L6-v2")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.timeout_ms", 10000)
	v.SetDefault("pipeline.overall_timeout_ms", 10000)
	v.SetDefault("pipeline.top_k", 3)
	v.SetDefault("pipeline.ingest_timeout_ms", 1500)
	v.SetDefault("pipeline.retrieve_timeout_ms", 1500)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "articles")
	v.SetDefault("kafka.group_id", "news-rag-go-consumer")
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.bucket_name", "news-rag")
	v.SetDefault("minio.seed_object", "seed/articles.json")
}

// Load 读取可选的 YAML 配置文件，再用环境变量覆盖。配置文件不存在时只使用默认值和环境变量。
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("绑定环境变量 %s 失败: %w", key, err)
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("访问配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if cfg.Pipeline.TopK <= 0 {
		cfg.Pipeline.TopK = 3
	}
	return cfg, nil
}

// Init 加载配置到全局变量 Conf，失败时直接 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
