// Package config 负责加载和管理应用程序的配置
// 使用 viper 库支持 YAML 配置文件和环境变量覆盖
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 是应用程序的根配置结构
// 包含所有子配置模块
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`  // 服务器配置
	MySQL   MySQLConfig   `mapstructure:"mysql"`   // MySQL 配置
	Redis   RedisConfig   `mapstructure:"redis"`   // Redis 配置
	AI      AIConfig      `mapstructure:"ai"`      // 远程补全服务配置
	Storage StorageConfig `mapstructure:"storage"` // 对象存储配置
	Chat    ChatConfig    `mapstructure:"chat"`    // 对话管线配置
	Log     LogConfig     `mapstructure:"log"`     // 日志配置
}

// ServerConfig 服务器相关配置
type ServerConfig struct {
	Port int      `mapstructure:"port"` // 监听端口，默认 8080
	Mode string   `mapstructure:"mode"` // 运行模式: debug / release
	CORS []string `mapstructure:"cors"` // CORS 允许的域名
}

// MySQLConfig MySQL 数据库连接配置
type MySQLConfig struct {
	Host         string `mapstructure:"host"`           // 数据库主机地址
	Port         int    `mapstructure:"port"`           // 数据库端口
	Username     string `mapstructure:"username"`       // 数据库用户名
	Password     string `mapstructure:"password"`       // 数据库密码
	Database     string `mapstructure:"database"`       // 数据库名称
	Charset      string `mapstructure:"charset"`        // 字符集
	MaxIdleConns int    `mapstructure:"max_idle_conns"` // 最大空闲连接数
	MaxOpenConns int    `mapstructure:"max_open_conns"` // 最大打开连接数
	MaxLifetime  int    `mapstructure:"max_lifetime"`   // 连接最大生命周期（秒）
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`      // Redis 主机地址
	Port     int    `mapstructure:"port"`      // Redis 端口
	Username string `mapstructure:"username"`  // Redis 用户名（阿里云需要）
	Password string `mapstructure:"password"`  // Redis 密码
	DB       int    `mapstructure:"db"`        // 数据库索引 (0-15)
	PoolSize int    `mapstructure:"pool_size"` // 连接池大小
}

// AIConfig 远程补全服务配置
// 请求/响应结构兼容 OpenAI Chat Completions 协议
type AIConfig struct {
	APIKey           string        `mapstructure:"api_key"`           // Bearer 凭证
	BaseURL          string        `mapstructure:"base_url"`          // 补全接口地址
	Model            string        `mapstructure:"model"`             // 模型名称
	Timeout          time.Duration `mapstructure:"timeout"`           // 单次编排的取消预算（含 PDF 拉取）
	Temperature      float64       `mapstructure:"temperature"`       // 采样温度
	MaxTokens        int           `mapstructure:"max_tokens"`        // 最大输出长度
	TopP             float64       `mapstructure:"top_p"`             // 核采样截断
	PresencePenalty  float64       `mapstructure:"presence_penalty"`  // 话题重复惩罚
	FrequencyPenalty float64       `mapstructure:"frequency_penalty"` // 词频重复惩罚
}

// StorageConfig 对象存储配置
// driver 为 local 时文件存放在本地磁盘，由本服务签发访问 URL
// driver 为 s3 时使用 S3 兼容存储，签名 URL 由 S3 预签名生成
type StorageConfig struct {
	Driver       string        `mapstructure:"driver"`         // 存储驱动: local / s3
	LocalRoot    string        `mapstructure:"local_root"`     // 本地存储根目录
	BaseURL      string        `mapstructure:"base_url"`       // 本地驱动的外部访问地址前缀
	URLSecret    string        `mapstructure:"url_secret"`     // 本地驱动签名 URL 的密钥
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"` // 签名 URL 有效期

	S3 S3Config `mapstructure:"s3"` // S3 驱动配置
}

// S3Config S3 兼容存储配置
type S3Config struct {
	Bucket       string `mapstructure:"bucket"`         // 桶名称
	Region       string `mapstructure:"region"`         // 区域
	Endpoint     string `mapstructure:"endpoint"`       // 自定义端点（MinIO 等）
	AccessKey    string `mapstructure:"access_key"`     // Access Key
	SecretKey    string `mapstructure:"secret_key"`     // Secret Key
	UsePathStyle bool   `mapstructure:"use_path_style"` // 是否使用 Path-Style 访问
}

// ChatConfig 对话管线配置
type ChatConfig struct {
	// ConversationGap 会话分组的不活跃间隔阈值
	// 相邻消息间隔超过该值即认为是两次独立会话
	ConversationGap time.Duration `mapstructure:"conversation_gap"`

	// TypingInterval 模拟打字输出的节奏间隔
	TypingInterval time.Duration `mapstructure:"typing_interval"`

	// TypingChunk 每次节奏揭示的字符（rune）数
	TypingChunk int `mapstructure:"typing_chunk"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug/info/warn/error
	Format string `mapstructure:"format"` // 日志格式: json/text
}

// Load 从指定路径加载配置文件
// 支持环境变量覆盖配置项
// 参数:
//   - configPath: 配置文件目录路径 (如 "./configs")
//
// 返回:
//   - *Config: 配置对象
//   - error: 如果加载失败则返回错误
func Load(configPath string) (*Config, error) {
	// 创建新的 viper 实例
	v := viper.New()

	// 设置配置文件
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// 启用环境变量
	v.AutomaticEnv()
	// 将环境变量中的 _ 映射到配置的 .
	// 例如: MYSQL_HOST -> mysql.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 绑定环境变量
	bindEnvVariables(v)

	// 设置默认值（当配置文件中未指定时使用）
	setDefaults(v)

	// 读取配置文件（如果不存在则使用默认值和环境变量）
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在，继续使用默认值和环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 将配置解析到结构体
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindEnvVariables 绑定环境变量到配置项
func bindEnvVariables(v *viper.Viper) {
	// 服务器配置
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// MySQL 配置
	v.BindEnv("mysql.host", "MYSQL_HOST")
	v.BindEnv("mysql.port", "MYSQL_PORT")
	v.BindEnv("mysql.username", "MYSQL_USERNAME")
	v.BindEnv("mysql.password", "MYSQL_PASSWORD")
	v.BindEnv("mysql.database", "MYSQL_DATABASE")

	// Redis 配置
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.username", "REDIS_USERNAME")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// 补全服务配置
	v.BindEnv("ai.api_key", "AI_API_KEY")
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.model", "AI_MODEL")

	// 对象存储配置
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.url_secret", "STORAGE_URL_SECRET")
	v.BindEnv("storage.s3.bucket", "STORAGE_S3_BUCKET")
	v.BindEnv("storage.s3.region", "STORAGE_S3_REGION")
	v.BindEnv("storage.s3.endpoint", "STORAGE_S3_ENDPOINT")
	v.BindEnv("storage.s3.access_key", "STORAGE_S3_ACCESS_KEY")
	v.BindEnv("storage.s3.secret_key", "STORAGE_S3_SECRET_KEY")
}

// setDefaults 设置配置项的默认值
// 当配置文件中没有指定某个值时，将使用这里设置的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors", []string{"http://localhost:3000", "http://localhost:5173"})

	// MySQL 默认配置
	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.charset", "utf8mb4")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("mysql.max_lifetime", 3600)

	// Redis 默认配置
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 100)

	// 补全服务默认配置
	// 采样参数与前端旧版保持一致，不要随意调整
	v.SetDefault("ai.base_url", "https://api.deepseek.com/v1/chat/completions")
	v.SetDefault("ai.model", "deepseek-chat")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.temperature", 1.2)
	v.SetDefault("ai.max_tokens", 3000)
	v.SetDefault("ai.top_p", 0.9)
	v.SetDefault("ai.presence_penalty", 0.0)
	v.SetDefault("ai.frequency_penalty", 0.0)

	// 对象存储默认配置
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_root", "./data/resources")
	v.SetDefault("storage.base_url", "http://localhost:8080/files")
	v.SetDefault("storage.signed_url_ttl", "60s")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_path_style", false)

	// 对话管线默认配置
	v.SetDefault("chat.conversation_gap", "30m")
	v.SetDefault("chat.typing_interval", "20ms")
	v.SetDefault("chat.typing_chunk", 1)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
