package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// OpenAIConfig 包含 OpenAI 兼容服务的配置。
// BaseURL 指向本地 llama.cpp server 或任何 OpenAI 兼容端点。
type OpenAIConfig struct {
	BaseURL string `yaml:"baseURL"` // 服务端点 (例如: "http://127.0.0.1:11435/v1")
	APIKey  string `yaml:"apiKey"`  // API 密钥，本地服务可为任意值
	Model   string `yaml:"model"`   // 模型名称
}

// OllamaConfig 包含 Ollama 服务的配置。
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"` // Ollama 服务地址 (默认: "http://localhost:11434")
	Model   string `yaml:"model"`   // 模型名称
}

// LLMConfig 包含了不同 LLM 提供商的配置。
type LLMConfig struct {
	Provider string       `yaml:"provider"` // LLM 提供商 ("openai" 或 "ollama")
	OpenAI   OpenAIConfig `yaml:"openai"`   // OpenAI 兼容服务配置
	Ollama   OllamaConfig `yaml:"ollama"`   // Ollama 配置
}

// EmbeddingConfig 包含了不同 Embedding 提供商的配置。
type EmbeddingConfig struct {
	Provider string       `yaml:"provider"` // Embedding 提供商 ("openai" 或 "ollama")
	OpenAI   OpenAIConfig `yaml:"openai"`   // OpenAI 兼容服务配置
	Ollama   OllamaConfig `yaml:"ollama"`   // Ollama 配置
	Dim      int          `yaml:"dim"`      // 向量维度
}

// MilvusConfig 定义了 Milvus 数据库的连接配置。
type MilvusConfig struct {
	Address string `yaml:"address"` // Milvus 服务地址
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`     // Kafka Broker 地址列表
	EventsTopic string   `yaml:"eventsTopic"` // Agent 事件主题
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address       string `yaml:"address"`       // MongoDB 服务器地址
	Username      string `yaml:"username"`      // 用户名
	Password      string `yaml:"password"`      // 密码
	Database      string `yaml:"database"`      // 数据库名称
	RunCollection string `yaml:"runCollection"` // Agent 运行记录集合名称
}

// EtcdConfig 定义了 Etcd 服务注册的连接配置。
type EtcdConfig struct {
	Endpoints []string `yaml:"endpoints"` // Etcd 节点地址列表
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Milvus  MilvusConfig `yaml:"milvus"`  // Milvus 数据库配置
	Redis   RedisConfig  `yaml:"redis"`   // Redis 数据库配置
	Kafka   KafkaConfig  `yaml:"kafka"`   // Kafka 消息队列配置
	MongoDB MongoConfig  `yaml:"mongodb"` // MongoDB 数据库配置
	Etcd    EtcdConfig   `yaml:"etcd"`    // Etcd 服务注册配置
}

// RateLimitConfig 定义了 API 层令牌桶限流配置。
type RateLimitConfig struct {
	Enabled  bool    `yaml:"enabled"`  // 是否启用限流
	Rate     float64 `yaml:"rate"`     // 每秒补充的令牌数
	Capacity int     `yaml:"capacity"` // 令牌桶容量
}

// AgentConfig 定义了 Agent 引擎的运行参数。
type AgentConfig struct {
	Workers            int    `yaml:"workers"`            // 后台执行 worker 数量
	WorkspaceDir       string `yaml:"workspaceDir"`       // 文件工具的沙箱工作目录
	MemoryCollection   string `yaml:"memoryCollection"`   // 长期记忆集合名称
	MemoryTopK         int    `yaml:"memoryTopK"`         // 记忆检索条数上限
	ScanIntervalMillis int    `yaml:"scanIntervalMillis"` // 编排调度扫描间隔（毫秒）
	StatusCacheTTL     int    `yaml:"statusCacheTTL"`     // Redis 状态缓存 TTL（秒）
	CleanupMaxAgeHours int    `yaml:"cleanupMaxAgeHours"` // 已完成 agent 的清理阈值（小时）
}

// ServerConfig 定义了 HTTP 服务的配置。
type ServerConfig struct {
	Address   string          `yaml:"address"`   // 监听地址 (例如: ":8090")
	RateLimit RateLimitConfig `yaml:"rateLimit"` // 限流配置
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App       AppInfo         `yaml:"app"`       // 应用程序信息
	Logger    LoggerConfig    `yaml:"logger"`    // 日志记录器配置
	Server    ServerConfig    `yaml:"server"`    // HTTP 服务配置
	LLM       LLMConfig       `yaml:"llm"`       // LLM 配置部分
	Embedding EmbeddingConfig `yaml:"embedding"` // Embedding 配置部分
	Agent     AgentConfig     `yaml:"agent"`     // Agent 引擎配置
	Databases DatabaseConfigs `yaml:"databases"` // 数据库配置
}

// LoadConfig 从指定路径读取并解析 YAML 配置文件。
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults 为未配置的引擎参数填充默认值。
func applyDefaults(cfg *AppConfig) {
	if cfg.Agent.Workers <= 0 {
		cfg.Agent.Workers = 4
	}
	if cfg.Agent.WorkspaceDir == "" {
		cfg.Agent.WorkspaceDir = "workspace"
	}
	if cfg.Agent.MemoryCollection == "" {
		cfg.Agent.MemoryCollection = "agent_memory"
	}
	if cfg.Agent.MemoryTopK <= 0 {
		cfg.Agent.MemoryTopK = 3
	}
	if cfg.Agent.ScanIntervalMillis <= 0 {
		cfg.Agent.ScanIntervalMillis = 1000
	}
	if cfg.Agent.StatusCacheTTL <= 0 {
		cfg.Agent.StatusCacheTTL = 300
	}
	if cfg.Agent.CleanupMaxAgeHours <= 0 {
		cfg.Agent.CleanupMaxAgeHours = 24
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8090"
	}
	if cfg.Databases.Kafka.EventsTopic == "" {
		cfg.Databases.Kafka.EventsTopic = "agent_events"
	}
	if cfg.Databases.MongoDB.RunCollection == "" {
		cfg.Databases.MongoDB.RunCollection = "agent_runs"
	}
}
