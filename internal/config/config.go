package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Salesforce SalesforceConfig
	Checks     ChecksConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdleConns   int
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	EncryptionKey string
}

type SalesforceConfig struct {
	ClientID        string
	ClientSecret    string
	TokenURL        string
	SandboxTokenURL string
	RequestTimeout  time.Duration
}

type ChecksConfig struct {
	Concurrency  int
	CheckTimeout time.Duration
	MaxRetries   int
}

func Load() (*Config, error) {
	// .env is optional, real env vars win either way
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("ORGHEALTH")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.maxidleconns", 5)
	viper.SetDefault("auth.tokenttl", "24h")
	viper.SetDefault("salesforce.tokenurl", "https://login.salesforce.com/services/oauth2/token")
	viper.SetDefault("salesforce.sandboxtokenurl", "https://test.salesforce.com/services/oauth2/token")
	viper.SetDefault("salesforce.requesttimeout", "30s")
	viper.SetDefault("checks.concurrency", 4)
	viper.SetDefault("checks.checktimeout", "60s")
	viper.SetDefault("checks.maxretries", 3)

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Override with environment variables
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if key := os.Getenv("ENCRYPTION_KEY"); key != "" {
		cfg.Auth.EncryptionKey = key
	}
	if id := os.Getenv("SALESFORCE_CLIENT_ID"); id != "" {
		cfg.Salesforce.ClientID = id
	}
	if secret := os.Getenv("SALESFORCE_CLIENT_SECRET"); secret != "" {
		cfg.Salesforce.ClientSecret = secret
	}

	return &cfg, nil
}
