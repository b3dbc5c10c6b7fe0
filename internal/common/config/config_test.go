// Package config 配置管理单元测试
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Load 测试 ====================

func TestLoad_WithDefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "grocy-backend", cfg.Server.Name)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 10, cfg.Crypto.BcryptCost)
	assert.Equal(t, "grocy.orders", cfg.Kafka.OrderTopic)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.BaseURL)
	assert.Equal(t, 5, cfg.Business.Catalog.AutocompleteLimit)
	assert.Equal(t, 20, cfg.Business.Catalog.AutocompleteMaxLimit)
	assert.Equal(t, 10, cfg.Business.Review.PageSize)
}

func TestLoad_WithConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.yaml")

	configContent := `
server:
  name: "test-server"
  port: 9000
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "test-server", cfg.Server.Name)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvOverrideWithFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 9000\n"), 0644))
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("BUSINESS_ORDER_LOCK_TTL", "9")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 9*time.Second, cfg.Business.Order.LockTTLDuration())
}

func TestLoad_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  mode: release\n"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

// ==================== Validate 测试 ====================

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 5000, Mode: "release"},
			Database: DatabaseConfig{Driver: "postgres"},
			JWT:      JWTConfig{Secret: "s3cret"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"合法", func(*Config) {}, ""},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"未知驱动", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"默认密钥", func(c *Config) { c.JWT.Secret = DefaultJWTSecret }, "jwt.secret"},
		{"调试模式允许默认密钥", func(c *Config) { c.Server.Mode = "debug"; c.JWT.Secret = DefaultJWTSecret }, ""},
		{"缺少机器人令牌", func(c *Config) { c.Telegram.Enabled = true }, "telegram.bot_token"},
		{"webhook 缺少密钥", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, BotToken: "t", Mode: "webhook"}
		}, "telegram.webhook_secret"},
		{"轮询无需密钥", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, BotToken: "t", Mode: "polling"}
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetDefaults_FileOverride(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	configContent := `
telegram:
  bot_username: "grocy_bot"
  mode: "webhook"
business:
  order:
    lock_ttl: 5
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	v := viper.New()
	v.SetConfigFile(configPath)
	setDefaults(v)
	require.NoError(t, v.ReadInConfig())

	cfg := &Config{}
	require.NoError(t, v.Unmarshal(cfg))

	assert.Equal(t, "grocy_bot", cfg.Telegram.BotUsername)
	assert.Equal(t, "webhook", cfg.Telegram.Mode)
	assert.False(t, cfg.Telegram.IsPolling())
	assert.Equal(t, 5*time.Second, cfg.Business.Order.LockTTLDuration())
	// 未覆盖的保持默认值
	assert.Equal(t, 3, cfg.Telegram.PollInterval)
	assert.Equal(t, 25, cfg.Telegram.PollTimeout)
}

// ==================== Get 测试 ====================

func TestGet_ReturnsSameInstance(t *testing.T) {
	cfg1 := Get()
	cfg2 := Get()
	require.NotNil(t, cfg1)
	assert.Same(t, cfg1, cfg2)
}

// ==================== DatabaseConfig 测试 ====================

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name   string
		config DatabaseConfig
		want   string
	}{
		{
			name: "Postgres",
			config: DatabaseConfig{
				Driver:   "postgres",
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Password: "secret",
				Name:     "grocy",
				SSLMode:  "disable",
				Timezone: "UTC",
			},
			want: "host=localhost port=5432 user=postgres password=secret dbname=grocy sslmode=disable TimeZone=UTC",
		},
		{
			name:   "Sqlite",
			config: DatabaseConfig{Driver: "sqlite", Name: "./data/grocy.db"},
			want:   "./data/grocy.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.DSN())
		})
	}
}

// ==================== 其他配置测试 ====================

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.example.com", Port: 6380}
	assert.Equal(t, "redis.example.com:6380", cfg.Addr())
}

func TestDurations(t *testing.T) {
	jwtCfg := JWTConfig{AccessTokenExpire: 2, LeewaySeconds: 45}
	assert.Equal(t, 2*time.Hour, jwtCfg.AccessTokenDuration())
	assert.Equal(t, 45*time.Second, jwtCfg.Leeway())

	notifyCfg := NotifyConfig{Timeout: 7}
	assert.Equal(t, 7*time.Second, notifyCfg.TimeoutDuration())
}

func TestConfig_Mode(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Mode: "release"}}
	assert.True(t, cfg.IsRelease())
	assert.False(t, cfg.IsDebug())
}
