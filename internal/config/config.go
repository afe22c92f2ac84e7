// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Render        RenderConfig        `mapstructure:"render"`
	Gate          GateConfig          `mapstructure:"gate"`
	Bot           BotConfig           `mapstructure:"bot"`
	Admin         AdminConfig         `mapstructure:"admin"`
}

// ServerConfig 存储服务器相关的配置。
// GatewayToken 是消息网关调用对话接口时使用的共享密钥。
type ServerConfig struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	GatewayToken string `mapstructure:"gateway_token"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储管理端 JWT 相关的配置。
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

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// LLMConfig 存储内容生成模型相关的配置。
type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// RenderConfig 存储外部渲染服务的配置。
type RenderConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// GateConfig 存储订阅校验服务的配置。
// Channel 是要求用户订阅的频道标识。
type GateConfig struct {
	ServerURL string `mapstructure:"server_url"`
	Channel   string `mapstructure:"channel"`
}

// BotConfig 存储对话流程与配额相关的配置。
// Timezone 决定每日额度重置所依据的日历日期（IANA 名称，默认 UTC）。
type BotConfig struct {
	ReferralLinkBase         string `mapstructure:"referral_link_base"`
	BaselineDailyLimit       int    `mapstructure:"baseline_daily_limit"`
	ReferralBonus            int    `mapstructure:"referral_bonus"`
	Timezone                 string `mapstructure:"timezone"`
	GenerationTimeoutSeconds int    `mapstructure:"generation_timeout_seconds"`
	MaxConcurrentGenerations int    `mapstructure:"max_concurrent_generations"`
	PresignExpireMinutes     int    `mapstructure:"presign_expire_minutes"`
}

// AdminConfig 存储管理端登录的配置。PasswordHash 为 bcrypt 哈希。
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	applyDefaults(&Conf)
}

// applyDefaults 为未配置的关键字段填充默认值。
func applyDefaults(c *Config) {
	if c.Bot.BaselineDailyLimit <= 0 {
		c.Bot.BaselineDailyLimit = 2
	}
	if c.Bot.ReferralBonus <= 0 {
		c.Bot.ReferralBonus = 1
	}
	if c.Bot.Timezone == "" {
		c.Bot.Timezone = "UTC"
	}
	if c.Bot.GenerationTimeoutSeconds <= 0 {
		c.Bot.GenerationTimeoutSeconds = 120
	}
	if c.Bot.MaxConcurrentGenerations <= 0 {
		c.Bot.MaxConcurrentGenerations = 4
	}
	if c.Bot.PresignExpireMinutes <= 0 {
		c.Bot.PresignExpireMinutes = 60
	}
}
