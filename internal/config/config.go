package config

import (
	"time"

	"github.com/spf13/pflag"

	pkgconfig "github.com/weiawesome/wes-io-live/roomsync-service/pkg/config"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/database"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

type Config struct {
	Server    ServerConfig
	GRPC      GRPCConfig
	WebSocket WebSocketConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Sync      SyncConfig
	ID        IDConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GRPCConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
	Issuer        string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	FilePath        string        `mapstructure:"file_path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	Prefix   string
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type KafkaConfig struct {
	Enabled    bool
	Brokers    string
	Topic      string
	Partitions int
}

type SyncConfig struct {
	TypingWindow   time.Duration `mapstructure:"typing_window"`
	PersistTimeout time.Duration `mapstructure:"persist_timeout"`
	MaxBodyLength  int           `mapstructure:"max_body_length"`
}

type IDConfig struct {
	Kind           string
	NanoIDSize     int   `mapstructure:"nanoid_size"`
	CUID2Length    int   `mapstructure:"cuid2_length"`
	SnowflakeNode  int64 `mapstructure:"snowflake_node"`
	SnowflakeEpoch int64 `mapstructure:"snowflake_epoch"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads config.yaml from configDir, the environment and the
// given flags, in increasing precedence.
func Load(configDir string, flags *pflag.FlagSet) (*Config, error) {
	v, err := pkgconfig.Load(configDir, "config", flags)
	if err != nil {
		return nil, err
	}
	if flags != nil {
		if f := flags.Lookup("log-level"); f != nil {
			if err := v.BindPFlag("log.level", f); err != nil {
				return nil, err
			}
		}
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50060)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 8192)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("websocket.allowed_origins", []string{})
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_duration", "24h")
	v.SetDefault("auth.issuer", "roomsync")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "roomsync")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "roomsync.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "roomsync:history")
	v.SetDefault("redis.cache_ttl", "5m")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "roomsync-messages")
	v.SetDefault("kafka.partitions", 8)
	v.SetDefault("sync.typing_window", "5s")
	v.SetDefault("sync.persist_timeout", "5s")
	v.SetDefault("sync.max_body_length", 2000)
	v.SetDefault("id.kind", "ulid")
	v.SetDefault("id.nanoid_size", 21)
	v.SetDefault("id.cuid2_length", 24)
	v.SetDefault("id.snowflake_node", 0)
	v.SetDefault("id.snowflake_epoch", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("grpc.port", "GRPC_PORT")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Server.ShutdownTimeout = pkgconfig.Duration(v, "server.shutdown_timeout", 10*time.Second)
	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
	cfg.Auth.TokenDuration = pkgconfig.Duration(v, "auth.token_duration", 24*time.Hour)
	cfg.Database.ConnMaxLifetime = pkgconfig.Duration(v, "database.conn_max_lifetime", time.Hour)
	cfg.Redis.CacheTTL = pkgconfig.Duration(v, "redis.cache_ttl", 5*time.Minute)
	cfg.Sync.TypingWindow = pkgconfig.Duration(v, "sync.typing_window", 5*time.Second)
	cfg.Sync.PersistTimeout = pkgconfig.Duration(v, "sync.persist_timeout", 5*time.Second)

	return &cfg, nil
}

// ToDatabase converts to the shared database settings.
func (c DatabaseConfig) ToDatabase() *database.Config {
	return &database.Config{
		Driver:          c.Driver,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		DBName:          c.DBName,
		SSLMode:         c.SSLMode,
		FilePath:        c.FilePath,
		MaxIdleConns:    c.MaxIdleConns,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		LogLevel:        c.LogLevel,
	}
}

// ToLog converts to the shared logger settings.
func (c LogConfig) ToLog(serviceName string) log.Config {
	return log.Config{
		Level:       c.Level,
		Pretty:      c.Pretty,
		ServiceName: serviceName,
	}
}
