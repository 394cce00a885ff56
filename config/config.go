package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log      Logger   `mapstructure:"logger"`
	DB       Database `mapstructure:"database"`
	API      API      `mapstructure:"api"`
	Watchdog Watchdog `mapstructure:"watchdog"`
	Roller   Roller   `mapstructure:"roller"`
	Bus      Bus      `mapstructure:"bus"`
	Notify   Notify   `mapstructure:"notify"`
	Alert    Alert    `mapstructure:"alert"`
	Cache    Cache    `mapstructure:"cache"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port int `mapstructure:"port"`
}

type Watchdog struct {
	ScanInterval       time.Duration `mapstructure:"scan_interval"`
	Lookback           time.Duration `mapstructure:"lookback"`
	DefaultGracePeriod time.Duration `mapstructure:"default_grace_period"`
	MaxWindowsPerScan  int           `mapstructure:"max_windows_per_scan"`
}

type Roller struct {
	Interval time.Duration `mapstructure:"interval"`
}

type Bus struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type Notify struct {
	WebhookURL       string        `mapstructure:"webhook_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRequestPerMin int           `mapstructure:"max_request_per_min"`
}

type Alert struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	// Config file is optional, environment variables cover everything.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("watchdog.scan_interval", time.Minute)
	viper.SetDefault("watchdog.lookback", 24*time.Hour)
	viper.SetDefault("watchdog.default_grace_period", 5*time.Minute)
	viper.SetDefault("watchdog.max_windows_per_scan", 60)
	viper.SetDefault("roller.interval", 6*time.Hour)
	viper.SetDefault("bus.buffer_size", 100)
	viper.SetDefault("notify.timeout", 10*time.Second)
	viper.SetDefault("notify.max_request_per_min", 60)
	viper.SetDefault("cache.default_expiration", 24*time.Hour)
	viper.SetDefault("cache.cleanup_interval", time.Hour)
}
