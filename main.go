package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/todo-app/database"
	"github.com/example/todo-app/domain/ratelimit"
	"github.com/example/todo-app/modules/api"
	"github.com/example/todo-app/modules/auth"
	"github.com/example/todo-app/modules/cache"
	"github.com/example/todo-app/modules/notification"
	ratelimitmod "github.com/example/todo-app/modules/ratelimit"
	"github.com/example/todo-app/modules/reminder"
	"github.com/example/todo-app/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Todo App ===")

	driver := getEnv("DB_DRIVER", database.DriverSQLite)
	jwtConfig := auth.JWTConfig{
		SecretKey:            getEnv("JWT_SECRET_KEY", auth.DefaultJWTConfig().SecretKey),
		Issuer:               getEnv("JWT_ISSUER", "todo-app"),
		AccessTokenDuration:  getEnvDuration("JWT_ACCESS_TTL", 30*time.Minute),
		RefreshTokenDuration: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
	}
	if os.Getenv("JWT_SECRET_KEY") == "" {
		log.Println("WARNING: JWT_SECRET_KEY is not set, using the development default")
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	apiConfig := api.DefaultConfig()
	apiConfig.Port = getEnvInt("HTTP_PORT", apiConfig.Port)
	apiConfig.CORSOrigins = getEnv("CORS_ORIGINS", apiConfig.CORSOrigins)
	apiModule := api.NewModule(apiConfig)

	// Redis backs the statistics cache and the rate limiter. Both are off without it.
	var statsCache cache.Service
	redisAddr := getEnv("REDIS_ADDR", "")
	if redisAddr != "" {
		cacheConfig := cache.DefaultConfig()
		cacheConfig.RedisAddr = redisAddr
		cacheConfig.RedisPassword = getEnv("REDIS_PASSWORD", "")
		cacheConfig.RedisDB = getEnvInt("REDIS_DB", 0)
		cacheConfig.TTL = getEnvDuration("CACHE_TTL", cacheConfig.TTL)
		cacheModule := cache.NewModule(cacheConfig)
		statsCache = cacheModule.GetCache()

		ipLimit := ratelimit.DefaultIPConfig()
		ipLimit.RequestsPerWindow = getEnvInt("RATE_LIMIT_IP", ipLimit.RequestsPerWindow)
		userLimit := ratelimit.DefaultUserConfig()
		userLimit.RequestsPerWindow = getEnvInt("RATE_LIMIT_USER", userLimit.RequestsPerWindow)
		limiterModule := ratelimitmod.NewModule(cacheModule.Client(), ratelimit.MiddlewareConfig{
			IPConfig:   ipLimit,
			UserConfig: userLimit,
			KeyPrefix:  cacheConfig.Prefix + "ratelimit:",
		})
		apiModule.SetRateLimiter(limiterModule.GetMiddleware())

		app.Register(cacheModule)
		app.Register(limiterModule)
	} else {
		log.Println("REDIS_ADDR is not set: statistics caching and rate limiting are disabled")
	}

	notificationModule := notification.NewModule(notification.Config{
		Database: database.Config{Driver: driver, DSN: getEnv("NOTIFICATION_DB_DSN", "notifications.db")},
		SMTP: notification.SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			Sender:   getEnv("SMTP_SENDER", "Todo App <no-reply@todo.local>"),
		},
	})
	apiModule.SetHub(notificationModule.Hub())

	reminderConfig := reminder.DefaultWorkerConfig()
	reminderConfig.Interval = getEnvDuration("REMINDER_INTERVAL", reminderConfig.Interval)
	reminderConfig.Lead = getEnvDuration("REMINDER_LEAD", reminderConfig.Lead)

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(auth.NewModule(auth.Config{
		Database:   database.Config{Driver: driver, DSN: getEnv("AUTH_DB_DSN", "auth.db")},
		JWT:        jwtConfig,
		BcryptCost: getEnvInt("BCRYPT_COST", auth.DefaultBcryptCost),
	}))
	app.Register(task.NewModule(task.Config{
		Database:   database.Config{Driver: driver, DSN: getEnv("TASK_DB_DSN", "tasks.db")},
		StatsCache: statsCache,
	}))
	app.Register(notificationModule)                 // Depends on auth
	app.Register(reminder.NewModule(reminderConfig)) // Depends on task
	app.Register(apiModule)                          // Depends on auth, task and notification

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(apiConfig.Port, redisAddr != "", getEnvBool("PRINT_ROUTES", true))

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, value, fallback)
		return fallback
	}
	return d
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %t", key, value, fallback)
		return fallback
	}
	return b
}

func printStartupInfo(port int, redisEnabled, routes bool) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("Redis cache and rate limiting: %t", redisEnabled)
	if !routes {
		log.Println("Press Ctrl+C to shutdown gracefully")
		return
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/register           - Register a new user")
	log.Println("  POST   /api/v1/auth/login              - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh            - Refresh access token")
	log.Println("  GET    /health                         - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/v1/tasks                   - List tasks (filter, sort, page)")
	log.Println("  POST   /api/v1/tasks                   - Create a task")
	log.Println("  PATCH  /api/v1/tasks/:id/status        - Complete or reopen a task")
	log.Println("  POST   /api/v1/tasks/bulk              - Bulk complete, delete or move")
	log.Println("  GET    /api/v1/tasks/export            - Export tasks as JSON")
	log.Println("  POST   /api/v1/tasks/import            - Import tasks")
	log.Println("  GET    /api/v1/categories              - Categories")
	log.Println("  GET    /api/v1/tags                    - Tags")
	log.Println("  GET    /api/v1/dashboard/statistics    - Dashboard statistics")
	log.Println("  GET    /api/v1/users/me                - Current user profile")
	log.Println("  GET    /api/v1/notifications           - Notifications")
	log.Println("  GET    /ws/notifications?token=...     - Live notification feed")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
