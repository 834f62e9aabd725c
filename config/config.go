package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	Display DisplayConfig `mapstructure:"display"`
	Log     LogConfig     `mapstructure:"log"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	ETCD    ETCDConfig    `mapstructure:"etcd"`
	Archive ArchiveConfig `mapstructure:"archive"`
	GraphQL GraphQLConfig `mapstructure:"graphql"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// APIConfig 选举后端REST接口
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DisplayConfig 时间戳展示格式
type DisplayConfig struct {
	Timezone   string `mapstructure:"timezone"`
	DateLayout string `mapstructure:"date_layout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type MySQLConfig struct {
	Master       string `mapstructure:"master"`
	Slave        string `mapstructure:"slave"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	// 快照缓存Redis，地址为空时不启用
	DataAddress string        `mapstructure:"data_address"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`

	// Redlock使用的Redis节点
	LockAddresses []string `mapstructure:"lock_addresses"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type ETCDConfig struct {
	Endpoints      []string      `mapstructure:"endpoints"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ArchiveConfig 历史记录归档
type ArchiveConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	// etcd 或 redis
	LockBackend    string `mapstructure:"lock_backend"`
	LockRetryCount int    `mapstructure:"lock_retry_count"`
}

type GraphQLConfig struct {
	Path string `mapstructure:"path"`
}

var AppConfig = Default()

// Default 返回不依赖任何外部存储的默认配置
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		API: APIConfig{
			BaseURL: "http://127.0.0.1:3000",
			Timeout: 10 * time.Second,
		},
		Display: DisplayConfig{
			Timezone:   "Local",
			DateLayout: "2006-01-02 15:04:05",
		},
		Log: LogConfig{Level: "info"},
		Redis: RedisConfig{
			PoolSize:    10,
			MaxRetries:  3,
			Timeout:     3 * time.Second,
			SnapshotTTL: 15 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:   "ledgervote-refresh",
			GroupID: "ledgervote",
		},
		ETCD: ETCDConfig{
			DialTimeout:    5 * time.Second,
			RequestTimeout: 3 * time.Second,
		},
		Archive: ArchiveConfig{
			Interval:       time.Minute,
			LockTimeout:    30 * time.Second,
			LockBackend:    "etcd",
			LockRetryCount: 3,
		},
		GraphQL: GraphQLConfig{Path: "/graphql"},
	}
}

// Location 解析展示时区，无法识别时回退到本地时区
func (c DisplayConfig) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	AppConfig = cfg
	return &AppConfig, nil
}
