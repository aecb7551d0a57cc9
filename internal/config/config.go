package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the application.
type Config struct {
	Env        string           // Env is the current environment: local, development, production.
	HTTP       HTTPConfig       // HTTP configures the public API server.
	Monitoring MonitoringConfig // Monitoring configures the /metrics and /healthz server.
	Database   PostgresConfig   // Database holds the postgres database configuration.
	RedisAddr  string           // RedisAddr is the redis server address; empty disables redis.
	JWT        JWTConfig        // JWT configures session tokens.
	BcryptCost int              // BcryptCost is the work factor for password hashes.
	Telegram   TelegramConfig   // Telegram configures the optional tracking bot.
	Location   *time.Location   // Location is the timezone used for report periods.
	LogFile    string           // LogFile enables a rotating log file when set.
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Port           int
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// MonitoringConfig holds the monitoring server settings.
type MonitoringConfig struct {
	Port int
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
// An empty Host selects the in-memory store.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// JWTConfig holds the token signing settings.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// TelegramConfig holds the bot settings. An empty Token disables the bot.
type TelegramConfig struct {
	Token         string
	PollerTimeout time.Duration
}

// MustLoad reads the configuration and panics when it is invalid.
// Values come from an optional .env file, an optional YAML file named by CONFIG_PATH
// and LOGITRACK_ prefixed environment variables, in increasing priority.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("logitrack")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			panic("config file does not exist: " + configPath)
		}

		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			panic("config error: " + err.Error())
		}
	}

	secret := v.GetString("jwt.secret")
	if secret == "" {
		panic("jwt secret is empty")
	}

	location, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		panic("failed to load timezone: " + err.Error())
	}

	return &Config{
		Env: v.GetString("env"),
		HTTP: HTTPConfig{
			Port:           v.GetInt("http.port"),
			CORSOrigins:    v.GetStringSlice("http.cors_origins"),
			RequestTimeout: mustDuration(v, "http.timeout"),
		},
		Monitoring: MonitoringConfig{Port: v.GetInt("monitoring.port")},
		Database: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.db_name"),
		},
		RedisAddr:  v.GetString("redis.addr"),
		JWT:        JWTConfig{Secret: secret, TTL: mustDuration(v, "jwt.ttl")},
		BcryptCost: v.GetInt("bcrypt.cost"),
		Telegram: TelegramConfig{
			Token:         v.GetString("telegram.token"),
			PollerTimeout: mustDuration(v, "telegram.timeout"),
		},
		Location: location,
		LogFile:  v.GetString("log.file"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("http.port", 8080) //nolint:mnd // default API port
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("http.timeout", "15s")
	v.SetDefault("monitoring.port", 9090) //nolint:mnd // default monitoring port
	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db_name", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("bcrypt.cost", 10) //nolint:mnd // bcrypt.DefaultCost
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.timeout", "10s")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("log.file", "")
}

func mustDuration(v *viper.Viper, key string) time.Duration {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		panic("failed to parse " + key + " from configuration")
	}
	return value
}
