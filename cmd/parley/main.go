package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/flow"
	"github.com/parleyhq/parley/internal/genai"
	"github.com/parleyhq/parley/internal/knowledge"
	"github.com/parleyhq/parley/internal/lockfile"
	"github.com/parleyhq/parley/internal/messaging"
	"github.com/parleyhq/parley/internal/router"
	"github.com/parleyhq/parley/internal/scheduler"
	"github.com/parleyhq/parley/internal/store"
	"github.com/parleyhq/parley/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Parley state data
	DefaultStateDir = "/var/lib/parley"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "parley.db"
	// sessionSweepCron is the schedule for purging expired sessions from SQL stores
	sessionSweepCron = "*/10 * * * *"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// File-backed state is exclusive to one process.
	if store.DetectDSNType(*flags.dbDSN) == store.DSNTypeSQLite {
		lock, err := lockfile.AcquireLock(*flags.stateDir)
		if err != nil {
			slog.Error("Failed to lock state directory", "error", err)
			os.Exit(1)
		}
		defer lock.Release()
	}

	srv, cleanup, err := buildServer(ctx, flags)
	if err != nil {
		slog.Error("Failed to bootstrap Parley", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	slog.Info("Bootstrapping Parley with configured modules")
	if err := srv.Run(ctx); err != nil {
		slog.Error("Parley failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Parley exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	StateDir    string
	OpenAIKey   string
	OpenAIModel string
	APIAddr     string
	SessionTTL  string
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	redisURL    *string
	openaiKey   *string
	openaiModel *string
	apiAddr     *string
	sessionTTL  *string
}

// initializeLogger sets up structured logging. PARLEY_DEBUG=true lowers the
// level to debug.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("PARLEY_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		StateDir:    os.Getenv("PARLEY_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		APIAddr:     os.Getenv("API_ADDR"),
		SessionTTL:  os.Getenv("SESSION_TTL"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No PARLEY_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"REDIS_URL_SET", config.RedisURL != "",
		"PARLEY_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"API_ADDR", config.APIAddr,
		"SESSION_TTL", config.SessionTTL)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for Parley data (overrides $PARLEY_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN for the session and lead store (overrides $DATABASE_URL)"),
		redisURL:    flag.String("redis-url", config.RedisURL, "Redis URL for the session store (overrides $REDIS_URL)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel: flag.String("openai-model", config.OpenAIModel, "OpenAI model for answer generation (overrides $OPENAI_MODEL)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		sessionTTL:  flag.String("session-ttl", config.SessionTTL, "session idle expiry, e.g. 30m (overrides $SESSION_TTL)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"redisURL_set", *flags.redisURL != "",
		"openaiKeySet", *flags.openaiKey != "",
		"openaiModel", *flags.openaiModel,
		"apiAddr", *flags.apiAddr,
		"sessionTTL", *flags.sessionTTL)

	// Track the state directory override into the default SQLite path
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// buildStoreOptions constructs store configuration options for the given DSN
func buildStoreOptions(flags Flags, dsn string) []store.Option {
	var storeOpts []store.Option
	if dsn != "" {
		storeOpts = append(storeOpts, store.WithDSN(dsn))
	}
	if *flags.sessionTTL != "" {
		ttl, err := time.ParseDuration(*flags.sessionTTL)
		if err != nil {
			slog.Warn("Invalid session TTL, using default", "value", *flags.sessionTTL, "error", err)
		} else {
			storeOpts = append(storeOpts, store.WithSessionTTL(ttl))
		}
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	return genaiOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}

// sessionPurger is implemented by the SQL stores; the sweep job calls it on
// a schedule.
type sessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// buildServer wires the store, flow engine, knowledge responder, router, and
// HTTP server from the parsed flags. The returned cleanup stops background
// jobs and must run on shutdown.
func buildServer(ctx context.Context, flags Flags) (*api.Server, func(), error) {
	storeOpts := buildStoreOptions(flags, *flags.dbDSN)

	var (
		sessions store.SessionStore
		leads    store.LeadStore
		purger   sessionPurger
	)
	switch store.DetectDSNType(*flags.dbDSN) {
	case store.DSNTypePostgres:
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		st, err := store.NewPostgresStore(storeOpts...)
		if err != nil {
			return nil, nil, err
		}
		sessions, leads, purger = st, st, st
	default:
		slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
		st, err := store.NewSQLiteStore(storeOpts...)
		if err != nil {
			return nil, nil, err
		}
		sessions, leads, purger = st, st, st
	}

	// Redis, when configured, takes over session state; leads stay in SQL.
	if *flags.redisURL != "" {
		rs, err := store.NewRedisSessionStore(ctx, buildStoreOptions(flags, *flags.redisURL)...)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("Redis session store configured")
		sessions = rs
		purger = nil
	}

	sched := scheduler.NewScheduler()
	if purger != nil {
		if err := sched.AddJob(sessionSweepCron, func() {
			if _, err := purger.PurgeExpiredSessions(context.Background()); err != nil {
				slog.Error("Session sweep failed", "error", err)
			}
		}); err != nil {
			sched.Stop()
			return nil, nil, err
		}
	}

	generator, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		sched.Stop()
		return nil, nil, err
	}

	engine := flow.NewEngine(leads)
	responder := knowledge.NewResponder(knowledge.NewStaticRetriever(), generator)
	rt := router.New(sessions, leads, engine, responder)

	// The Twilio channel is optional; without credentials the webhook
	// endpoint reports the channel as unconfigured.
	var msgService messaging.Service
	if twilioSvc, err := messaging.NewTwilioService(); err != nil {
		slog.Warn("Twilio channel disabled", "reason", err)
	} else {
		msgService = twilioSvc
	}

	return api.NewServer(rt, sessions, leads, msgService, buildAPIOptions(flags)...), sched.Stop, nil
}
