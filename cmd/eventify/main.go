package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/eventify/internal/api"
	"github.com/erazemk/eventify/internal/auth"
	"github.com/erazemk/eventify/internal/booking"
	"github.com/erazemk/eventify/internal/config"
	"github.com/erazemk/eventify/internal/db"
	"github.com/erazemk/eventify/internal/events"
	"github.com/erazemk/eventify/internal/lock"
	"github.com/erazemk/eventify/internal/model"
	"github.com/erazemk/eventify/internal/notify"
	"github.com/erazemk/eventify/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("eventify", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.AdminUser, "user", cfg.AdminUser, "")
	fs.StringVar(&cfg.AdminUser, "u", cfg.AdminUser, "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.StringVar(&cfg.TimeZone, "tz", cfg.TimeZone, "")
	fs.StringVar(&cfg.TimeZone, "z", cfg.TimeZone, "")

	var debug bool
	fs.BoolVar(&debug, "verbose", false, "")
	fs.BoolVar(&debug, "v", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: eventify [flags]

Flags:
  -d, -db <path>          SQLite database path (env EVENTIFY_DB, default: eventify.db)
  -a, -addr <host:port>   listen address (env EVENTIFY_ADDR, default: :8080)
  -u, -user <name>        admin username on first run (env EVENTIFY_ADMIN, default: admin)
  -l, -log <path>         log file path (env EVENTIFY_LOG, default: stdout/stderr only)
  -z, -tz <zone>          time zone for event dates and times (env EVENTIFY_TZ, default: UTC)
  -v, -verbose            enable debug logging
  -h, -help               show this help and exit

Redis locking (REDIS_ADDR) and RabbitMQ notifications (RABBIT_URL) are
configured through the environment or a .env file.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	if err := cfg.Resolve(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.DBPath, cfg.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.DBPath, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath, "time_zone", cfg.Location.String())

	if err := pinTimeZone(context.Background(), database, cfg.TimeZone); err != nil {
		return err
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	checks := map[string]api.Pinger{}

	var locker lock.Locker
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		redisLocker := lock.NewRedisLocker(client, cfg.LockTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisLocker.Ping(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		locker = redisLocker
		checks["redis"] = redisLocker
		slog.Info("using redis locks", "addr", cfg.RedisAddr, "ttl", cfg.LockTTL)
	} else {
		slog.Info("using in-process locks")
	}

	var publisher notify.Publisher
	if cfg.RabbitURL != "" {
		rabbit, err := notify.DialRabbit(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return fmt.Errorf("connecting to rabbitmq: %w", err)
		}
		defer rabbit.Close()
		publisher = rabbit
		slog.Info("publishing booking notifications", "exchange", cfg.RabbitExchange)
	}

	coordinator := booking.New(database, locker, publisher)
	handler := api.NewRouter(api.Deps{
		DB:              database,
		JWTSecret:       jwtSecret,
		TokenTTL:        cfg.TokenTTL,
		Coordinator:     coordinator,
		Events:          events.New(database, coordinator, cfg.Location),
		LoginRateLimit:  cfg.LoginRateLimit,
		LoginRateWindow: cfg.LoginRateWindow,
		HealthChecks:    checks,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go purgeRevokedTokens(janitorCtx, database, time.Hour)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("server stopped, closing connections")
	return nil
}

// pinTimeZone records the time zone on first run. Event dates and times are
// stored as wall-clock values, so starting under a different zone would move
// every existing event relative to its bookings.
func pinTimeZone(ctx context.Context, database *sql.DB, zone string) error {
	stored, err := store.GetSetting(ctx, database, "time_zone")
	if err != nil {
		return err
	}
	switch stored {
	case "":
		return store.SetSetting(ctx, database, "time_zone", zone)
	case zone:
		return nil
	default:
		return fmt.Errorf("database was created for time zone %s, not %s", stored, zone)
	}
}

// purgeRevokedTokens periodically drops revocations of expired tokens until
// ctx is cancelled.
func purgeRevokedTokens(ctx context.Context, database *sql.DB, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeExpiredTokens(ctx, database, now)
			if err != nil {
				slog.Warn("purging revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("purged revoked tokens", "count", n)
			}
		}
	}
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	if _, err := store.CreateUser(context.Background(), database, adminUsername, hash, model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
