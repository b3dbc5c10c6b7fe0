// Package config 基于 viper 的分层配置：默认值、yaml 文件、环境变量
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	mu           sync.RWMutex
	globalConfig *Config
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Crypto    CryptoConfig    `mapstructure:"crypto"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Email     EmailConfig     `mapstructure:"email"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	OSS       OSSConfig       `mapstructure:"oss"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Business  BusinessConfig  `mapstructure:"business"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Name            string `mapstructure:"name"`
	Mode            string `mapstructure:"mode"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	MaxUploadSize   int64  `mapstructure:"max_upload_size"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres / sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogMode         bool   `mapstructure:"log_mode"`
	SlowThreshold   int    `mapstructure:"slow_threshold"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// DSN 返回数据库连接字符串，sqlite 驱动时 Name 即文件路径
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Name
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.Timezone,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  int    `mapstructure:"dial_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// Addr 返回 Redis 地址
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Broker         string `mapstructure:"broker"`
	ClientIDPrefix string `mapstructure:"client_id_prefix"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	KeepAlive      int    `mapstructure:"keep_alive"`
	AutoReconnect  bool   `mapstructure:"auto_reconnect"`
	ConnectTimeout int    `mapstructure:"connect_timeout"`
	QoS            byte   `mapstructure:"qos"`
	Retained       bool   `mapstructure:"retained"`
	TopicPrefix    string `mapstructure:"topic_prefix"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	OrderTopic   string   `mapstructure:"order_topic"`
	WriteTimeout int      `mapstructure:"write_timeout"`
}

// JWTConfig 访问令牌校验配置，令牌由认证服务签发
type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	AccessTokenExpire int    `mapstructure:"access_token_expire"` // 小时
	Issuer            string `mapstructure:"issuer"`
	LeewaySeconds     int    `mapstructure:"leeway_seconds"`
}

// AccessTokenDuration 返回访问令牌有效期
func (j *JWTConfig) AccessTokenDuration() time.Duration {
	return time.Duration(j.AccessTokenExpire) * time.Hour
}

// Leeway 校验时间类声明时容忍的时钟偏差
func (j *JWTConfig) Leeway() time.Duration {
	return time.Duration(j.LeewaySeconds) * time.Second
}

// CryptoConfig 加密配置
type CryptoConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// SMSConfig 短信配置
type SMSConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Provider        string   `mapstructure:"provider"`
	AccessKeyID     string   `mapstructure:"access_key_id"`
	AccessKeySecret string   `mapstructure:"access_key_secret"`
	SignName        string   `mapstructure:"sign_name"`
	TemplateID      string   `mapstructure:"template_id"`
	NotifyPhones    []string `mapstructure:"notify_phones"`
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKey  string   `mapstructure:"api_key"`
	BaseURL string   `mapstructure:"base_url"`
	From    string   `mapstructure:"from"`
	To      []string `mapstructure:"to"` // 新订单通知收件人
}

// TelegramConfig Telegram 机器人配置
type TelegramConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BotToken      string `mapstructure:"bot_token"`
	BotUsername   string `mapstructure:"bot_username"`
	BaseURL       string `mapstructure:"base_url"`
	DefaultChatID int64  `mapstructure:"default_chat_id"`
	Mode          string `mapstructure:"mode"` // webhook / polling
	WebhookURL    string `mapstructure:"webhook_url"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	PollInterval  int    `mapstructure:"poll_interval"`
	PollTimeout   int    `mapstructure:"poll_timeout"`
}

// IsPolling 是否使用长轮询接收更新
func (t *TelegramConfig) IsPolling() bool {
	return t.Mode != "webhook"
}

// NotifyConfig 通知分发配置
type NotifyConfig struct {
	Timeout     int  `mapstructure:"timeout"`
	LiveEnabled bool `mapstructure:"live_enabled"`
}

// TimeoutDuration 返回单通道发送超时
func (n *NotifyConfig) TimeoutDuration() time.Duration {
	return time.Duration(n.Timeout) * time.Second
}

// OSSConfig 对象存储配置
type OSSConfig struct {
	Provider        string `mapstructure:"provider"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Bucket          string `mapstructure:"bucket"`
	CustomDomain    string `mapstructure:"custom_domain"`
	UploadDir       string `mapstructure:"upload_dir"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Caller     bool   `mapstructure:"caller"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	SearchPerMin  int  `mapstructure:"search_per_min"`
	GeneralPerMin int  `mapstructure:"general_per_min"`
	UserPerMin    int  `mapstructure:"user_per_min"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// BusinessConfig 业务配置
type BusinessConfig struct {
	Order   OrderConfig   `mapstructure:"order"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Review  ReviewConfig  `mapstructure:"review"`
}

// OrderConfig 下单配置
type OrderConfig struct {
	LockTTL int `mapstructure:"lock_ttl"` // 秒
}

// LockTTLDuration 返回下单锁有效期
func (o *OrderConfig) LockTTLDuration() time.Duration {
	return time.Duration(o.LockTTL) * time.Second
}

// CatalogConfig 商品目录配置
type CatalogConfig struct {
	AutocompleteLimit    int `mapstructure:"autocomplete_limit"`
	AutocompleteMaxLimit int `mapstructure:"autocomplete_max_limit"`
}

// ReviewConfig 评价配置
type ReviewConfig struct {
	PageSize        int `mapstructure:"page_size"`
	TopProductLimit int `mapstructure:"top_product_limit"`
}

// DefaultJWTSecret 仅用于开发环境的占位密钥，release 模式下拒绝启动
const DefaultJWTSecret = "your-super-secret-key-change-in-production"

// Load 依次应用默认值、配置文件与环境变量（a.b 对应 A_B），.env 先于一切载入
// 校验通过后替换全局配置；configPath 为空时在 ./configs 与 . 下查找 config.yaml
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	globalConfig = cfg
	mu.Unlock()
	return cfg, nil
}

// Get 全局配置，尚未 Load 时返回仅含默认值的配置
func Get() *Config {
	mu.RLock()
	cfg := globalConfig
	mu.RUnlock()
	if cfg != nil {
		return cfg
	}

	mu.Lock()
	defer mu.Unlock()
	if globalConfig == nil {
		v := viper.New()
		setDefaults(v)
		globalConfig = &Config{}
		_ = v.Unmarshal(globalConfig)
	}
	return globalConfig
}

// Validate 检查启动前必须满足的约束
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q unsupported", c.Database.Driver))
	}
	if c.IsRelease() && (c.JWT.Secret == "" || c.JWT.Secret == DefaultJWTSecret) {
		problems = append(problems, "jwt.secret must be set in release mode")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			problems = append(problems, "telegram.bot_token required when telegram is enabled")
		}
		if !c.Telegram.IsPolling() && c.Telegram.WebhookSecret == "" {
			problems = append(problems, "telegram.webhook_secret required in webhook mode")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// defaults 按配置段组织的默认值，键为段内路径
var defaults = map[string]map[string]any{
	"server": {
		"name":             "grocy-backend",
		"mode":             "debug",
		"port":             5000,
		"read_timeout":     30,
		"write_timeout":    30,
		"shutdown_timeout": 10,
		"max_upload_size":  10 << 20,
	},
	"database": {
		"driver":            "postgres",
		"host":              "localhost",
		"port":              5432,
		"user":              "postgres",
		"password":          "postgres",
		"name":              "grocy",
		"sslmode":           "disable",
		"timezone":          "UTC",
		"max_idle_conns":    10,
		"max_open_conns":    100,
		"conn_max_lifetime": 60,
		"log_mode":          true,
		"slow_threshold":    200,
		"auto_migrate":      true,
	},
	"redis": {
		"host":           "localhost",
		"port":           6379,
		"password":       "",
		"db":             0,
		"pool_size":      100,
		"min_idle_conns": 10,
		"dial_timeout":   5,
		"read_timeout":   3,
		"write_timeout":  3,
	},
	"mqtt": {
		"enabled":          false,
		"broker":           "tcp://localhost:1883",
		"client_id_prefix": "grocy-",
		"keep_alive":       60,
		"auto_reconnect":   true,
		"connect_timeout":  10,
		"qos":              1,
		"retained":         false,
		"topic_prefix":     "grocy/",
	},
	"kafka": {
		"enabled":       false,
		"brokers":       []string{"localhost:9092"},
		"order_topic":   "grocy.orders",
		"write_timeout": 5,
	},
	"jwt": {
		"secret":              DefaultJWTSecret,
		"access_token_expire": 168,
		"leeway_seconds":      30,
		"issuer":              "grocy",
	},
	"crypto": {
		"bcrypt_cost": 10,
	},
	"sms": {
		"enabled":  false,
		"provider": "aliyun",
	},
	"email": {
		"enabled":  false,
		"base_url": "https://api.resend.com",
		"from":     "onboarding@resend.dev",
	},
	"telegram": {
		"enabled":       false,
		"base_url":      "https://api.telegram.org",
		"mode":          "polling",
		"poll_interval": 3,
		"poll_timeout":  25,
	},
	"notify": {
		"timeout":      10,
		"live_enabled": true,
	},
	"oss": {
		"provider":   "mock",
		"upload_dir": "images",
	},
	"logger": {
		"level":       "debug",
		"format":      "console",
		"output":      "stdout",
		"file_path":   "./logs/app.log",
		"max_size":    100,
		"max_backups": 10,
		"max_age":     30,
		"compress":    true,
		"caller":      true,
	},
	"metrics": {
		"enabled":   true,
		"namespace": "grocy",
		"path":      "/metrics",
	},
	"tracing": {
		"enabled":      false,
		"service_name": "grocy-backend",
		"sample_rate":  1.0,
	},
	"ratelimit": {
		"enabled":         true,
		"search_per_min":  60,
		"general_per_min": 600,
		"user_per_min":    120,
	},
	"cors": {
		"allowed_origins":   []string{"*"},
		"allowed_methods":   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		"allowed_headers":   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "Idempotency-Key"},
		"exposed_headers":   []string{"X-Request-ID"},
		"allow_credentials": false,
		"max_age":           86400,
	},
	"business": {
		"order.lock_ttl":                 30,
		"catalog.autocomplete_limit":     5,
		"catalog.autocomplete_max_limit": 20,
		"review.page_size":               10,
		"review.top_product_limit":       10,
	},
}

func setDefaults(v *viper.Viper) {
	for section, values := range defaults {
		for key, value := range values {
			v.SetDefault(section+"."+key, value)
		}
	}
}

// IsDebug 是否为调试模式
func (c *Config) IsDebug() bool {
	return c.Server.Mode == "debug"
}

// IsRelease 是否为发布模式
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}
