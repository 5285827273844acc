package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic information about the running application.
type AppInfo struct {
	Name        string `yaml:"name"`        // application name
	Version     string `yaml:"version"`     // application version
	Environment string `yaml:"environment"` // e.g. "development", "production"
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Address        string  `yaml:"address"`        // listen address, e.g. ":8000"
	RateLimit      float64 `yaml:"rateLimit"`      // sustained requests per second, 0 disables limiting
	RateLimitBurst int     `yaml:"rateLimitBurst"` // token bucket capacity
}

// LoggerConfig holds the logger settings.
type LoggerConfig struct {
	Level string `yaml:"level"` // log level: "debug", "info", "warn", "error"
}

// MySQLConfig holds the MySQL connection settings for the fact store.
type MySQLConfig struct {
	Address         string `yaml:"address"`         // server address, e.g. "localhost:3306"
	Username        string `yaml:"username"`        // user name
	Password        string `yaml:"password"`        // password
	Database        string `yaml:"database"`        // database name
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // maximum open connections
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // maximum idle connections
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // connection lifetime in seconds
}

// RedisConfig holds the Redis connection settings for the turn queue.
type RedisConfig struct {
	Address  string `yaml:"address"`  // server address, e.g. "localhost:6379"
	Password string `yaml:"password"` // password
	DB       int    `yaml:"db"`       // database number
}

// MilvusConfig holds the Milvus connection and collection settings for the
// conversation vector store.
type MilvusConfig struct {
	Address        string `yaml:"address"`        // Milvus address, e.g. "localhost:19530"
	CollectionName string `yaml:"collectionName"` // collection for conversation embeddings
	Dimension      int    `yaml:"dimension"`      // embedding dimension, fixed for the collection's lifetime
	IndexNlist     int    `yaml:"indexNlist"`     // nlist parameter of the IVF_FLAT index
}

// KafkaConfig holds the Kafka settings for pipeline telemetry.
type KafkaConfig struct {
	Enabled  bool     `yaml:"enabled"`  // whether telemetry publishing is on
	Brokers  []string `yaml:"brokers"`  // broker address list
	LogTopic string   `yaml:"logTopic"` // topic for pipeline processing events
}

// EtcdConfig holds the etcd settings for service registration.
type EtcdConfig struct {
	Enabled   bool     `yaml:"enabled"`   // whether the service registers itself
	Endpoints []string `yaml:"endpoints"` // etcd endpoint list
	TTL       int64    `yaml:"ttl"`       // registration lease TTL in seconds
}

// OllamaConfig holds the settings of an Ollama-served model.
type OllamaConfig struct {
	Model   string `yaml:"model"`   // model name
	BaseURL string `yaml:"baseURL"` // server URL, defaults to http://localhost:11434
}

// OpenAIConfig holds the settings of an OpenAI-served model.
type OpenAIConfig struct {
	Model  string `yaml:"model"`  // model name
	APIKey string `yaml:"apiKey"` // API key
}

// GeminiConfig holds the settings of a Gemini-served model.
type GeminiConfig struct {
	Model  string `yaml:"model"`  // model name
	APIKey string `yaml:"apiKey"` // API key
}

// LLMConfig selects and configures the completion model used for fact
// extraction.
type LLMConfig struct {
	Provider string       `yaml:"provider"` // "ollama", "openai" or "gemini"
	Ollama   OllamaConfig `yaml:"ollama"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Gemini   GeminiConfig `yaml:"gemini"`
}

// EmbeddingConfig selects and configures the embedding model.
type EmbeddingConfig struct {
	Provider  string       `yaml:"provider"`  // "ollama", "openai" or "gemini"
	CacheSize int64        `yaml:"cacheSize"` // max entries of the in-process embedding cache, 0 disables it
	Ollama    OllamaConfig `yaml:"ollama"`
	OpenAI    OpenAIConfig `yaml:"openai"`
	Gemini    GeminiConfig `yaml:"gemini"`
}

// MemoryConfig holds the tunables of the memory pipeline.
type MemoryConfig struct {
	TurnChannel       string `yaml:"turnChannel"`       // Redis pub/sub channel carrying conversation turns
	MaxTextLength     int    `yaml:"maxTextLength"`     // conversation text is truncated to this many characters
	ExtractionTimeout int    `yaml:"extractionTimeout"` // LLM extraction timeout in seconds
	EmbeddingTimeout  int    `yaml:"embeddingTimeout"`  // embedding call timeout in seconds
	ConsumerBackoff   int    `yaml:"consumerBackoff"`   // delay in seconds before resubscribing after a lost subscription
}

// DatabaseConfigs groups the configuration of every backing store.
type DatabaseConfigs struct {
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Milvus MilvusConfig `yaml:"milvus"`
	Kafka  KafkaConfig  `yaml:"kafka"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Logger    LoggerConfig    `yaml:"logger"`
	Databases DatabaseConfigs `yaml:"databases"`
	Etcd      EtcdConfig      `yaml:"etcd"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Memory    MemoryConfig    `yaml:"memory"`
}

// LoadConfig loads and parses the YAML configuration file at path, applying
// defaults for omitted memory-pipeline settings.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8000"
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = int(cfg.Server.RateLimit)
	}
	if cfg.Databases.Milvus.CollectionName == "" {
		cfg.Databases.Milvus.CollectionName = "conversational_memories"
	}
	if cfg.Databases.Milvus.Dimension == 0 {
		cfg.Databases.Milvus.Dimension = 384
	}
	if cfg.Databases.Milvus.IndexNlist == 0 {
		cfg.Databases.Milvus.IndexNlist = 1024
	}
	if cfg.Memory.TurnChannel == "" {
		cfg.Memory.TurnChannel = "conversation_turns"
	}
	if cfg.Memory.MaxTextLength == 0 {
		cfg.Memory.MaxTextLength = 4096
	}
	if cfg.Memory.ExtractionTimeout == 0 {
		cfg.Memory.ExtractionTimeout = 30
	}
	if cfg.Memory.EmbeddingTimeout == 0 {
		cfg.Memory.EmbeddingTimeout = 30
	}
	if cfg.Memory.ConsumerBackoff == 0 {
		cfg.Memory.ConsumerBackoff = 5
	}
	if cfg.Etcd.TTL == 0 {
		cfg.Etcd.TTL = 15
	}
}
