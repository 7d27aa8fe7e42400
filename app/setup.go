package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/team-educhange/gibo-api/api"
	"github.com/team-educhange/gibo-api/config"
	"github.com/team-educhange/gibo-api/database"
	"github.com/team-educhange/gibo-api/router"
	"github.com/team-educhange/gibo-api/services/cron"
	"github.com/team-educhange/gibo-api/services/lockfile"
	"github.com/team-educhange/gibo-api/services/preview"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err

	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		print("If not running, run the following command:\n")
		print("  make docker-up   (for Docker setup)\n")
		print("  make db-up       (for local PostgreSQL)\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		print("Error running migrations:\n")
		return err
	}

	// Choose the lock backend. A single instance uses marker files on local
	// disk; REDIS_URL switches both the locks and the slot counter to Redis
	// for multi-instance deployments.
	var (
		locks      lockfile.Locker
		counter    preview.CounterStore
		fileLocker *lockfile.FileLocker
	)
	retryInterval := time.Duration(getEnv.LOCK_RETRY_MS) * time.Millisecond
	if getEnv.REDIS_URL != "" {
		redisLocker, err := lockfile.NewRedisLocker(getEnv.REDIS_URL, getEnv.LOCK_STALE_AFTER)
		if err != nil {
			return fmt.Errorf("failed to connect lock backend: %w", err)
		}
		redisLocker.RetryInterval = retryInterval
		redisCounter, err := preview.NewRedisCounter(getEnv.REDIS_URL, "preview_count")
		if err != nil {
			return fmt.Errorf("failed to connect counter backend: %w", err)
		}
		locks = redisLocker
		counter = redisCounter
	} else {
		fileLocker = lockfile.NewFileLocker(getEnv.LOCK_DIR)
		fileLocker.RetryInterval = retryInterval
		locks = fileLocker
		counter = preview.NewFileCounter(filepath.Join(getEnv.LOCK_DIR, "preview_count.txt"))
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			print("Warning: Failed to get database connection for cron jobs\n")
		} else {
			var staleStore cron.StaleLockStore
			if fileLocker != nil {
				staleStore = fileLocker
			}
			cronManager = cron.NewCronManager(db, staleStore, getEnv.LOCK_STALE_AFTER)
			if err := cronManager.Start(); err != nil {
				print("Warning: Failed to start cron jobs\n")
				print("Error: ", err.Error(), "\n")
				// Don't fail the app, just log the warning
			}
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Attach Middleware
	// Custom Logger
	app.Use(logger.New())

	app.Use(recover.New())

	// Setup Routes
	if err := router.SetupRoutes(app, router.Deps{
		Env:     getEnv,
		Store:   store,
		Locks:   locks,
		Counter: counter,
	}); err != nil {
		return err
	}

	// Get the PORT & Start the Server
	return server.Run()

}
