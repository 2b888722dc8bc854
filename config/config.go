package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Events     EventsConfig
	Tracing    TracingConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Migrations MigrationsConfig
}

type AppConfig struct {
	Name     string
	Port     string
	Env      string
	Timezone string
	LogLevel string
}

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxIdleConns int
	MaxOpenConns int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// EventsConfig selects where appointment events are published
type EventsConfig struct {
	Driver        string // redis | kafka | none
	Brokers       []string
	Topic         string
	ChannelPrefix string
}

type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// CORSConfig lists the browser origins allowed to call the API; "*"
// admits any origin.
type CORSConfig struct {
	AllowedOrigins []string
}

type MigrationsConfig struct {
	AutoMigrate bool
}

// Location resolves APP_TIMEZONE, falling back to UTC
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func LoadConfig() (*Config, error) {
	return Load(".env")
}

// Load reads path (optional) and then the environment, which wins.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(v.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	config := &Config{
		App: AppConfig{
			Name:     v.GetString("APP_NAME"),
			Port:     v.GetString("APP_PORT"),
			Env:      v.GetString("APP_ENV"),
			Timezone: v.GetString("APP_TIMEZONE"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Events: EventsConfig{
			Driver:        strings.ToLower(v.GetString("EVENTS_DRIVER")),
			Brokers:       splitList(v.GetString("EVENTS_KAFKA_BROKERS")),
			Topic:         v.GetString("EVENTS_KAFKA_TOPIC"),
			ChannelPrefix: v.GetString("EVENTS_CHANNEL_PREFIX"),
		},
		Tracing: TracingConfig{
			Enabled:    v.GetBool("TRACING_ENABLED"),
			Endpoint:   v.GetString("TRACING_ENDPOINT"),
			SampleRate: v.GetFloat64("TRACING_SAMPLE_RATE"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Migrations: MigrationsConfig{
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "clinic-practice-api")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_TIMEZONE", "UTC")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("EVENTS_DRIVER", "redis")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "clinic.appointments")
	v.SetDefault("EVENTS_CHANNEL_PREFIX", "clinic")
	v.SetDefault("TRACING_SAMPLE_RATE", 1.0)
	v.SetDefault("RATE_LIMIT_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_BURST", 40)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
