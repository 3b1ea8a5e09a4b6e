package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/chestlogic/internal/domain/caselog"
)

// Secret names read from the environment.
const (
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvStoreURL      = "SUPABASE_URL"
	EnvStoreKey      = "SUPABASE_KEY"
	EnvAdminPassword = "ADMIN_PASSWORD"

	EnvConfigPath = "CONFIG_PATH"
	EnvPort       = "PORT"
)

// AI providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Store drivers
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// MissingSecretError names the secret that was not supplied.
type MissingSecretError struct {
	Key string
}

func (e *MissingSecretError) Error() string {
	return "missing required secret: " + e.Key
}

type Config struct {
	Server struct {
		Port         int    `yaml:"port"`
		ReadTimeout  string `yaml:"readTimeout"`
		WriteTimeout string `yaml:"writeTimeout"`
	} `yaml:"server"`

	AI struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"apiKey"`
	} `yaml:"ai"`

	Store struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
		Key    string `yaml:"key"`
		Table  string `yaml:"table"`
	} `yaml:"store"`

	Admin struct {
		Password string `yaml:"password"`
	} `yaml:"admin"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Load reads the optional yaml file at path, overlays secrets from the
// environment and validates the result. A missing file is fine: the
// environment alone can carry every required value.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.loadEnv()
	cfg.loadDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv(c.aiKeyEnv()); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv(EnvStoreURL); v != "" {
		c.Store.URL = v
	}
	if v := os.Getenv(EnvStoreKey); v != "" {
		c.Store.Key = v
	}
	if v := os.Getenv(EnvAdminPassword); v != "" {
		c.Admin.Password = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) loadDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "15s"
	}
	// generation can take a while
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "2m"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderGemini
	}
	if c.AI.Model == "" {
		switch c.AI.Provider {
		case ProviderOpenAI:
			c.AI.Model = "gpt-4o-mini"
		default:
			c.AI.Model = "gemini-1.5-flash"
		}
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSupabase
	}
	if c.Store.Table == "" {
		c.Store.Table = caselog.DefaultTable
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	switch c.Store.Driver {
	case DriverSupabase, DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.AI.APIKey == "" {
		return &MissingSecretError{Key: c.aiKeyEnv()}
	}
	if c.Store.URL == "" {
		return &MissingSecretError{Key: EnvStoreURL}
	}
	if c.Store.Key == "" && c.Store.Driver == DriverSupabase {
		return &MissingSecretError{Key: EnvStoreKey}
	}
	if c.Admin.Password == "" {
		return &MissingSecretError{Key: EnvAdminPassword}
	}

	if !validTable(c.Store.Table) {
		return fmt.Errorf("invalid store table %q", c.Store.Table)
	}
	if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("invalid server.readTimeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("invalid server.writeTimeout: %w", err)
	}
	return nil
}

func (c *Config) aiKeyEnv() string {
	if c.AI.Provider == ProviderOpenAI {
		return EnvOpenAIAPIKey
	}
	return EnvGeminiAPIKey
}

// the table name is interpolated into SQL, keep it to identifier characters
func validTable(name string) bool {
	if name == "" {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) < 0
}

// ReadTimeoutDuration returns Server.ReadTimeout as a time.Duration.
func (c *Config) ReadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// WriteTimeoutDuration returns Server.WriteTimeout as a time.Duration.
func (c *Config) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

// ArchiveEnabled reports whether a MinIO endpoint was configured.
func (c *Config) ArchiveEnabled() bool {
	return c.Minio.Endpoint != ""
}
