package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigFile is read when CONFIG_FILE is not set and the file exists.
const DefaultConfigFile = "appsettings.json"

// JwtConfig holds token signing settings.
type JwtConfig struct {
	SecretKey         string `mapstructure:"secretkey"`
	ExpirationMinutes int    `mapstructure:"expirationminutes"`
}

// DatabaseConfig selects the store backing users and tasks.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres, sqlite or memory
	DSN    string `mapstructure:"dsn"`
}

// PasswordPolicy mirrors the rules applied to passwords on registration.
type PasswordPolicy struct {
	RequiredLength         int  `mapstructure:"requiredlength"`
	RequiredUniqueChars    int  `mapstructure:"requireduniquechars"`
	RequireDigit           bool `mapstructure:"requiredigit"`
	RequireLowercase       bool `mapstructure:"requirelowercase"`
	RequireUppercase       bool `mapstructure:"requireuppercase"`
	RequireNonAlphanumeric bool `mapstructure:"requirenonalphanumeric"`
}

// IdentityConfig holds user registration policy.
type IdentityConfig struct {
	RequireUniqueEmail        bool           `mapstructure:"requireuniqueemail"`
	AllowedUserNameCharacters string         `mapstructure:"allowedusernamecharacters"`
	Password                  PasswordPolicy `mapstructure:"password"`
}

// RabbitMQConfig holds the broker used for task events. An empty URL disables publishing.
type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

// Config is the process-wide application settings. It is built once by Load and
// handed to the components that need it; nothing mutates it afterwards.
type Config struct {
	AppPort  string         `mapstructure:"app_port"`
	Jwt      JwtConfig      `mapstructure:"jwt"`
	Database DatabaseConfig `mapstructure:"database"`
	Identity IdentityConfig `mapstructure:"identity"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_port", ":8080")

	v.SetDefault("jwt.secretkey", "")
	v.SetDefault("jwt.expirationminutes", 60)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "tasks.db")

	v.SetDefault("identity.requireuniqueemail", true)
	v.SetDefault("identity.allowedusernamecharacters", "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+")
	v.SetDefault("identity.password.requiredlength", 6)
	v.SetDefault("identity.password.requireduniquechars", 1)
	v.SetDefault("identity.password.requiredigit", true)
	v.SetDefault("identity.password.requirelowercase", true)
	v.SetDefault("identity.password.requireuppercase", true)
	v.SetDefault("identity.password.requirenonalphanumeric", true)

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.queue", "task_events")
}

// New returns a viper instance with defaults and environment overrides set up.
// Nested keys map to env vars with "_" in place of ".", e.g. JWT_SECRETKEY.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from defaults, an optional settings file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	v := New()

	file := os.Getenv("CONFIG_FILE")
	if file == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			file = DefaultConfigFile
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Jwt.SecretKey == "" {
		errs = append(errs, errors.New("jwt.secretkey is required"))
	}
	if c.Jwt.ExpirationMinutes <= 0 {
		errs = append(errs, fmt.Errorf("jwt.expirationminutes must be positive, got %d", c.Jwt.ExpirationMinutes))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported database.driver %q", c.Database.Driver))
	}
	if c.Identity.Password.RequiredLength < 0 || c.Identity.Password.RequiredUniqueChars < 0 {
		errs = append(errs, errors.New("identity.password lengths must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
