// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/pkg/database"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，由 Init 填充。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Identity IdentityConfig `mapstructure:"identity"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

// DatabaseConfig 存储所有数据库连接的配置。
// DSN 的 scheme 决定使用哪个 gorm 驱动，见 database.ParseDSN。
type DatabaseConfig struct {
	DSN   string      `mapstructure:"dsn"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// IdentityConfig 配置需要解析身份 cookie 的路径模式（doublestar 语法）。
type IdentityConfig struct {
	Paths []string `mapstructure:"paths"`
}

// AdminConfig 用于启动时初始化管理员账号，email 为空则跳过。
type AdminConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// KafkaConfig 存储 Kafka 相关的配置。Brokers 为空时不发布文档事件。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。Enabled 为 false 时只登记元数据。
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// LLMConfig 存储大语言模型相关的配置。APIKey 为空时使用固定回复。
type LLMConfig struct {
	APIKey       string              `mapstructure:"api_key"`
	BaseURL      string              `mapstructure:"base_url"`
	Model        string              `mapstructure:"model"`
	SystemPrompt string              `mapstructure:"system_prompt"`
	HistoryLimit int                 `mapstructure:"history_limit"`
	Generation   LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// DefaultIdentityPaths 是身份中间件默认覆盖的路径。
var DefaultIdentityPaths = []string{"/", "/admin", "/admin/**", "/auth/**", "/identity", "/chat", "/chat/**"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.redis.addr", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_token_expire_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")
	v.SetDefault("identity.paths", DefaultIdentityPaths)
	v.SetDefault("admin.name", "Administrator")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "chatdesk-documents")
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket_name", "chatdesk")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.system_prompt", "")
	v.SetDefault("llm.history_limit", 20)
}

// Load 按 .env -> config.yaml -> 环境变量 的顺序加载配置并校验。
// configPath 指向的文件不存在时只使用默认值和环境变量。
func Load(configPath string) (*Config, error) {
	cfg, err := Read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read 加载配置但不校验，供诊断命令使用。
func Read(configPath string) (*Config, error) {
	// .env 只是开发期的便利，缺失不算错误
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, apperr.Wrap(apperr.KindConfiguration, "读取 .env 失败", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容原有部署使用的 DATABASE_URL
	_ = v.BindEnv("database.dsn", "DATABASE_DSN", "DATABASE_URL")

	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, apperr.Wrap(apperr.KindConfiguration, "读取配置文件失败", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "无法将配置解析到结构体中", err)
	}
	return &cfg, nil
}

// Init 加载配置到全局变量 Conf。
func Init(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	Conf = *cfg
	return nil
}

// Validate 校验启动必须的配置项：签名密钥和数据库连接串。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return apperr.New(apperr.KindConfiguration, "jwt.secret (JWT_SECRET) 未配置")
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return apperr.New(apperr.KindConfiguration, "database.dsn (DATABASE_DSN / DATABASE_URL) 未配置")
	}
	if _, _, err := database.ParseDSN(c.Database.DSN); err != nil {
		return apperr.Wrap(apperr.KindConfiguration, "database.dsn 无效", err)
	}
	if len(c.Identity.Paths) == 0 {
		c.Identity.Paths = DefaultIdentityPaths
	}
	if c.MinIO.Enabled && (c.MinIO.Endpoint == "" || c.MinIO.BucketName == "") {
		return apperr.New(apperr.KindConfiguration, fmt.Sprintf("minio 已启用但 endpoint/bucket_name 为空: %q/%q", c.MinIO.Endpoint, c.MinIO.BucketName))
	}
	return nil
}
