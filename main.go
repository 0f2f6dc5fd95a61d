package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"rental-booking/cmd"
	"rental-booking/internal/data/memory"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/sweeper"
	"rental-booking/internal/wire"
	"rental-booking/pkg/database"
	"rental-booking/pkg/lock"
	"rental-booking/pkg/notify"
	"rental-booking/pkg/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.App.StorageDriver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx := context.Background()

	repos, closeStorage, err := openStorage(ctx, config, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer closeStorage()

	var rdb *redis.Client
	if config.Redis.URL != "" {
		opts, err := redis.ParseURL(config.Redis.URL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		logger.Info("Redis connected successfully")
	}

	notifier, err := buildNotifier(config, repos, rdb, logger)
	if err != nil {
		logger.Fatal("Failed to build notifier", zap.Error(err))
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, notifier, logger, nil)

	var shutdownHooks []func()
	if config.Sweeper.Enabled {
		var locker gocron.Locker
		if rdb != nil {
			locker = lock.NewRedisLocker(rdb, config.App.Name+":lock:", config.Sweeper.LockTTL)
		}

		sw := sweeper.New(repos.Booking, app.Service.Booking, config.Sweeper, locker, logger, nil)
		if err := sw.Start(ctx); err != nil {
			logger.Fatal("Failed to start sweeper", zap.Error(err))
		}
		shutdownHooks = append(shutdownHooks, func() {
			if err := sw.Stop(); err != nil {
				logger.Error("Failed to stop sweeper", zap.Error(err))
			}
		})
	}

	if err := cmd.APIServer(app.Router, config.App.Port, config.App.ShutdownTimeout, logger, shutdownHooks...); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
	}
}

// openStorage returns the repository set for the configured driver and a
// function that releases it.
func openStorage(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func(), error) {
	switch strings.ToLower(config.App.StorageDriver) {
	case "memory":
		store := memory.NewStore(logger)
		if config.App.SeedFile != "" {
			if err := store.LoadSeed(config.App.SeedFile); err != nil {
				return nil, nil, err
			}
			logger.Info("Seed data loaded", zap.String("file", config.App.SeedFile))
		}
		return store.Repository(), func() {}, nil

	case "postgres", "":
		db, err := database.InitDB(config.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Database connected successfully")

		if config.Database.Migrate {
			if err := database.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, err
			}
			logger.Info("Database migrated")
		}
		return repository.NewRepository(db, logger), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", config.App.StorageDriver)
	}
}

func buildNotifier(config *utils.Config, repos *repository.Repository, rdb *redis.Client, logger *zap.Logger) (notify.Notifier, error) {
	var notifiers notify.Multi
	for _, channel := range config.Notify.Channels {
		switch strings.ToLower(channel) {
		case "log":
			notifiers = append(notifiers, notify.NewLogNotifier(logger))

		case "redis":
			if rdb == nil {
				return nil, fmt.Errorf("notify channel redis requires REDIS_URL")
			}
			notifiers = append(notifiers, notify.NewRedisQueue(rdb, config.Notify.QueueKey))

		case "email":
			client, err := notify.NewSMTPClient(notify.MailConfig{
				Host:     config.Email.Host,
				Port:     config.Email.Port,
				User:     config.Email.User,
				Password: config.Email.Password,
				From:     config.Email.From,
			})
			if err != nil {
				return nil, err
			}
			notifiers = append(notifiers, notify.NewMailer(client, repos.Contact, config.Email.From, logger))

		default:
			return nil, fmt.Errorf("unknown notify channel %q", channel)
		}
	}

	if len(notifiers) == 0 {
		return notify.Nop{}, nil
	}
	return notifiers, nil
}
