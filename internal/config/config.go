package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultConfigFile = "./configs/doli.yaml"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	// Dolibarr connection. DBUsername and DBPassFile describe the ERP database
	// account; only APIURL and the resolved APIToken reach the API client.
	DBUsername string `mapstructure:"db_username"`
	DBPassFile string `mapstructure:"db_pass_file"`
	APIURL     string `mapstructure:"api_url"`
	APIToken   string `mapstructure:"api_token"`

	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	HTTPDebug          bool          `mapstructure:"http_debug"`

	PassBinary       string `mapstructure:"pass_binary"`
	PasswordStoreDir string `mapstructure:"password_store_dir"`

	PublishersFile      string        `mapstructure:"publishers_file"`
	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`
	RequestDelayMs      int64         `mapstructure:"request_delay_ms"`
	RequestDelay        time.Duration `mapstructure:"-"`
	WatchCustomers      []int64       `mapstructure:"watch_customers"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load reads configuration from the environment, configs/.env and an optional
// config file. The file is taken from CONFIG_FILE when set, otherwise
// ./configs/doli.yaml is used if it exists.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	file := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if file == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			file = defaultConfigFile
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "doli-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_username", "")
	v.SetDefault("db_pass_file", "")
	v.SetDefault("api_url", "")
	v.SetDefault("api_token", "")
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("http_debug", false)
	v.SetDefault("pass_binary", "pass")
	v.SetDefault("password_store_dir", "")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("poll_interval", 900) // seconds
	v.SetDefault("request_delay_ms", 200)
	v.SetDefault("watch_customers", []int64{})
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/fingerprints.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("metrics_addr", "")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	cfg.APIToken = strings.TrimSpace(cfg.APIToken)
	if cfg.APIURL == "" {
		return errors.New("api_url is required")
	}
	if cfg.APIToken == "" {
		return errors.New("api_token is required (secret reference, e.g. pass:dolibarr/api-token)")
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.PollIntervalSeconds <= 0 {
		return fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if cfg.RequestDelayMs < 0 {
		return fmt.Errorf("invalid request_delay_ms (must not be negative)")
	}
	cfg.RequestDelay = time.Duration(cfg.RequestDelayMs) * time.Millisecond

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
