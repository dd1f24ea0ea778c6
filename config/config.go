package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Midtrans  MidtransConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name          string
	Environment   string
	PublicBaseURL string
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// MidtransConfig carrega as credenciais do gateway de pagamento.
type MidtransConfig struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	SnapBaseURL  string
	APIBaseURL   string
	Timeout      time.Duration
}

type StorageConfig struct {
	Driver          string
	LocalDir        string
	PublicPath      string
	S3Bucket        string
	S3Region        string
	S3PublicBaseURL string
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

const maxGatewayTimeout = 30 * time.Second

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "ecotrack")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PUBLIC_URL", "http://localhost:8080")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "ecotrack")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	v.SetDefault("JWT_ISSUER", "ecotrack")
	v.SetDefault("JWT_TTL", "168h")

	v.SetDefault("MIDTRANS_IS_PRODUCTION", false)
	v.SetDefault("MIDTRANS_TIMEOUT", "30s")

	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("STORAGE_LOCAL_DIR", "./storage/public")
	v.SetDefault("STORAGE_PUBLIC_PATH", "/storage")
	v.SetDefault("AWS_REGION", "ap-southeast-1")

	v.SetDefault("RATE_LIMIT_PER_MINUTE", 100)
	v.SetDefault("RATE_LIMIT_BURST", 20)
}

// Load monta a configuração a partir das variáveis de ambiente.
// Deve ser chamado uma única vez no início do processo.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:          v.GetString("APP_NAME"),
			Environment:   strings.ToLower(v.GetString("APP_ENV")),
			PublicBaseURL: strings.TrimRight(v.GetString("APP_PUBLIC_URL"), "/"),
		},
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:             v.GetString("DB_DSN"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		Midtrans: MidtransConfig{
			ServerKey:    v.GetString("MIDTRANS_SERVER_KEY"),
			ClientKey:    v.GetString("MIDTRANS_CLIENT_KEY"),
			IsProduction: v.GetBool("MIDTRANS_IS_PRODUCTION"),
			SnapBaseURL:  v.GetString("MIDTRANS_SNAP_URL"),
			APIBaseURL:   v.GetString("MIDTRANS_API_URL"),
			Timeout:      v.GetDuration("MIDTRANS_TIMEOUT"),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
			LocalDir:        v.GetString("STORAGE_LOCAL_DIR"),
			PublicPath:      v.GetString("STORAGE_PUBLIC_PATH"),
			S3Bucket:        v.GetString("S3_BUCKET"),
			S3Region:        v.GetString("AWS_REGION"),
			S3PublicBaseURL: v.GetString("S3_PUBLIC_URL"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
			Burst:     v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if cfg.Database.DSN == "" && cfg.Database.Driver == "postgres" {
		cfg.Database.DSN = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
			cfg.Database.Password, cfg.Database.DBName, cfg.Database.SSLMode,
		)
	}

	if cfg.Midtrans.SnapBaseURL == "" {
		cfg.Midtrans.SnapBaseURL = "https://app.sandbox.midtrans.com"
		if cfg.Midtrans.IsProduction {
			cfg.Midtrans.SnapBaseURL = "https://app.midtrans.com"
		}
	}
	if cfg.Midtrans.APIBaseURL == "" {
		cfg.Midtrans.APIBaseURL = "https://api.sandbox.midtrans.com"
		if cfg.Midtrans.IsProduction {
			cfg.Midtrans.APIBaseURL = "https://api.midtrans.com"
		}
	}
	if cfg.Midtrans.Timeout <= 0 || cfg.Midtrans.Timeout > maxGatewayTimeout {
		cfg.Midtrans.Timeout = maxGatewayTimeout
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET é obrigatório")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL deve ser positivo")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER inválido: %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		return errors.New("DB_DSN é obrigatório para sqlite")
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET é obrigatório quando STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER inválido: %q", c.Storage.Driver)
	}
	if c.App.IsProduction() && c.Midtrans.ServerKey == "" {
		return errors.New("MIDTRANS_SERVER_KEY é obrigatório em produção")
	}
	return nil
}
