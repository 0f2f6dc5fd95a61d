package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Email    EmailConfig
	Booking  BookingConfig
	Sweeper  SweeperConfig
	Notify   NotifyConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
	// StorageDriver selects the persistence backend: "postgres" or "memory".
	StorageDriver string
	// SeedFile is a JSON file of read models loaded into the memory store.
	SeedFile        string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
	Migrate  bool
}

type RedisConfig struct {
	URL string
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type BookingConfig struct {
	PaymentDeadlineMinutes int
	// OwnerResponseHours is how long an unanswered request holds the dates.
	OwnerResponseHours    int
	DefaultCommissionRate float64
}

// PaymentWindow is the time an owner-accepted booking stays payable.
func (c BookingConfig) PaymentWindow() time.Duration {
	return time.Duration(c.PaymentDeadlineMinutes) * time.Minute
}

// ResponseWindow is the time a new request waits for the owner.
func (c BookingConfig) ResponseWindow() time.Duration {
	return time.Duration(c.OwnerResponseHours) * time.Hour
}

type SweeperConfig struct {
	Enabled   bool
	Interval  time.Duration
	BatchSize int
	LockTTL   time.Duration
}

type NotifyConfig struct {
	// Channels is any combination of "log", "redis" and "email".
	Channels []string
	QueueKey string
}

// LoadConfig reads the env file at path (when present) and lets process
// environment variables override it.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "rental-booking")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("STORAGE_DRIVER", "postgres")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("PAYMENT_DEADLINE_MINUTES", 15)
	v.SetDefault("OWNER_RESPONSE_HOURS", 24)
	v.SetDefault("DEFAULT_COMMISSION_RATE", 10.0)
	v.SetDefault("SWEEPER_ENABLED", true)
	v.SetDefault("SWEEPER_INTERVAL", "60s")
	v.SetDefault("SWEEPER_BATCH_SIZE", 100)
	v.SetDefault("SWEEPER_LOCK_TTL", "50s")
	v.SetDefault("NOTIFY_CHANNELS", "log")
	v.SetDefault("NOTIFY_QUEUE_KEY", "notifications:outbox")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			StorageDriver:   v.GetString("STORAGE_DRIVER"),
			SeedFile:        v.GetString("SEED_FILE"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
		},
		Booking: BookingConfig{
			PaymentDeadlineMinutes: v.GetInt("PAYMENT_DEADLINE_MINUTES"),
			OwnerResponseHours:     v.GetInt("OWNER_RESPONSE_HOURS"),
			DefaultCommissionRate:  v.GetFloat64("DEFAULT_COMMISSION_RATE"),
		},
		Sweeper: SweeperConfig{
			Enabled:   v.GetBool("SWEEPER_ENABLED"),
			Interval:  v.GetDuration("SWEEPER_INTERVAL"),
			BatchSize: v.GetInt("SWEEPER_BATCH_SIZE"),
			LockTTL:   v.GetDuration("SWEEPER_LOCK_TTL"),
		},
		Notify: NotifyConfig{
			Channels: splitList(v.GetString("NOTIFY_CHANNELS")),
			QueueKey: v.GetString("NOTIFY_QUEUE_KEY"),
		},
	}

	return config, nil
}
