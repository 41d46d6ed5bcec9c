package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Init loads an optional dotenv file into the environment and wires viper to
// read every key from its upper-cased, underscore-separated environment name
// (database.host -> DATABASE_HOST).
func Init(envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("[CONFIG] No %s file loaded: %v", envFile, err)
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Legacy names used by the PHP deployment
	_ = viper.BindEnv("database.host", "DATABASE_HOST", "DB_HOST")
	_ = viper.BindEnv("database.port", "DATABASE_PORT", "DB_PORT")
	_ = viper.BindEnv("database.name", "DATABASE_NAME", "DB_NAME")
	_ = viper.BindEnv("database.user", "DATABASE_USER", "DB_USER")
	_ = viper.BindEnv("database.password", "DATABASE_PASSWORD", "DB_PASS")
	_ = viper.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")
	_ = viper.BindEnv("auth.jwt_expiration", "AUTH_JWT_EXPIRATION", "JWT_EXPIRATION")
	_ = viper.BindEnv("server.env", "SERVER_ENV", "APP_ENV")
	_ = viper.BindEnv("auth.app_url", "AUTH_APP_URL", "APP_URL")
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
	StaticDir      string
	AutoMigrate    bool
}

func LoadServerConfig() *ServerConfig {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.env", "production")
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 15*time.Second)
	viper.SetDefault("server.idle_timeout", 60*time.Second)
	viper.SetDefault("server.request_timeout", 60*time.Second)
	viper.SetDefault("server.allowed_origins", "http://localhost:8080")
	viper.SetDefault("server.static_dir", "./public")
	viper.SetDefault("database.auto_migrate", false)

	return &ServerConfig{
		Port:           viper.GetString("server.port"),
		Env:            viper.GetString("server.env"),
		ReadTimeout:    viper.GetDuration("server.read_timeout"),
		WriteTimeout:   viper.GetDuration("server.write_timeout"),
		IdleTimeout:    viper.GetDuration("server.idle_timeout"),
		RequestTimeout: viper.GetDuration("server.request_timeout"),
		AllowedOrigins: splitList(viper.GetString("server.allowed_origins")),
		StaticDir:      viper.GetString("server.static_dir"),
		AutoMigrate:    viper.GetBool("database.auto_migrate"),
	}
}

// IsDevelopment reports whether internal error detail may be returned to clients.
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// TelemetryConfig holds the OTLP collector endpoint. Telemetry is disabled
// when the endpoint is empty.
type TelemetryConfig struct {
	Endpoint    string
	ServiceName string
	Insecure    bool
	Interval    time.Duration
}

func LoadTelemetryConfig() *TelemetryConfig {
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.service_name", "ru-wallet")
	viper.SetDefault("otel.insecure", true)
	viper.SetDefault("otel.interval", 10*time.Second)

	return &TelemetryConfig{
		Endpoint:    viper.GetString("otel.endpoint"),
		ServiceName: viper.GetString("otel.service_name"),
		Insecure:    viper.GetBool("otel.insecure"),
		Interval:    viper.GetDuration("otel.interval"),
	}
}

// KafkaConfig configures the ledger event publisher. No brokers means events
// are dropped.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func LoadKafkaConfig() *KafkaConfig {
	viper.SetDefault("kafka.brokers", "")
	viper.SetDefault("kafka.topic", "transacoes")

	return &KafkaConfig{
		Brokers: splitList(viper.GetString("kafka.brokers")),
		Topic:   viper.GetString("kafka.topic"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// maxDecimalScale bounds the exponent of money settings.
const maxDecimalScale = 10

func getDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	raw := strings.TrimSpace(viper.GetString(key))
	if raw == "" {
		return defaultVal
	}
	d, err := decimal.NewFromString(raw)
	if err == nil && (d.Exponent() < -maxDecimalScale || d.Exponent() > maxDecimalScale) {
		err = fmt.Errorf("exponent %d out of range", d.Exponent())
	}
	if err != nil {
		log.Printf("[CONFIG] Invalid decimal for %s (%q), using %s", key, raw, defaultVal)
		return defaultVal
	}
	return d
}
