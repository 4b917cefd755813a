package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Tax      TaxConfig      `mapstructure:"tax"`
	Email    EmailConfig    `mapstructure:"email"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpire  time.Duration `mapstructure:"access_token_expire"`
	RefreshTokenExpire time.Duration `mapstructure:"refresh_token_expire"`
	Issuer             string        `mapstructure:"issuer"`
}

// TaxConfig controls sales tax and employee pricing.
type TaxConfig struct {
	Rate string `mapstructure:"rate"`
	// CutoffDate is the day tax collection started, in 2006-01-02 form.
	// Tickets created before it are never taxed.
	CutoffDate         string  `mapstructure:"cutoff_date"`
	ItemName           string  `mapstructure:"item_name"`
	EmployeeMultiplier float64 `mapstructure:"employee_multiplier"`
}

type EmailConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	// Mode is "smtp" to deliver or "log" to print instead of sending.
	Mode string `mapstructure:"mode"`
}

type CatalogConfig struct {
	CSVPath string `mapstructure:"csv_path"`
	// ProductAPIURL is the upstream UPC lookup endpoint. Empty disables it.
	ProductAPIURL string        `mapstructure:"product_api_url"`
	ProductAPIKey string        `mapstructure:"product_api_key"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file, rely on env vars and defaults.
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("jwt.access_token_expire", "24h")
	v.SetDefault("jwt.issuer", "shop-backend")

	v.SetDefault("tax.rate", "0.0825")
	v.SetDefault("tax.cutoff_date", "2017-11-28")
	v.SetDefault("tax.item_name", "Sales Tax")
	v.SetDefault("tax.employee_multiplier", 1.05)

	v.SetDefault("email.mode", "log")
	v.SetDefault("email.port", 587)

	v.SetDefault("catalog.cache_ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
}

func bindEnvVariables(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Email
	v.BindEnv("email.host", "EMAIL_HOST")
	v.BindEnv("email.port", "EMAIL_PORT")
	v.BindEnv("email.username", "EMAIL_USERNAME")
	v.BindEnv("email.password", "EMAIL_PASSWORD")
	v.BindEnv("email.from_address", "EMAIL_FROM_ADDRESS")
	v.BindEnv("email.mode", "EMAIL_MODE")

	// Catalog
	v.BindEnv("catalog.csv_path", "CATALOG_CSV_PATH")
	v.BindEnv("catalog.product_api_url", "CATALOG_PRODUCT_API_URL")
	v.BindEnv("catalog.product_api_key", "CATALOG_PRODUCT_API_KEY")
}

// ParsedCutoffDate parses the tax cutoff date, at midnight UTC.
func (t TaxConfig) ParsedCutoffDate() (time.Time, error) {
	return time.Parse("2006-01-02", t.CutoffDate)
}

// GetEnvOrDefault returns the env var value or a fallback when unset.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
