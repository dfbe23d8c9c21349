package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/ender-todo/internal/api"
	"github.com/isdelr/ender-todo/internal/auth"
	"github.com/isdelr/ender-todo/internal/config"
	"github.com/isdelr/ender-todo/internal/database"
	"github.com/isdelr/ender-todo/internal/logger"
	"github.com/isdelr/ender-todo/internal/monitoring"
	"github.com/isdelr/ender-todo/internal/services"
	"github.com/isdelr/ender-todo/internal/web"
	"github.com/isdelr/ender-todo/internal/websocket"
	"github.com/rs/zerolog/log"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config path] [run|initdb|adduser <username>]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "path to an optional TOML config file")
	flag.Usage = usage
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init("info", false)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.Production)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	command := flag.Arg(0)
	switch command {
	case "", "run":
		err = serve(cfg, db)
	case "initdb":
		err = initDB(ctx, cfg, db)
	case "adduser":
		if flag.NArg() != 2 {
			usage()
			os.Exit(2)
		}
		err = addUser(ctx, db, flag.Arg(1))
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Command failed")
	}
}

// initDB loads the seed accounts and their todos. Migrations have already
// run by the time it is called.
func initDB(ctx context.Context, cfg *config.Config, db *sql.DB) error {
	seeds := services.NewSeedService(db, services.NewUserService(db))
	summary, err := seeds.LoadFile(ctx, cfg.SeedsPath)
	if errors.Is(err, services.ErrConstraintViolation) {
		log.Warn().Err(err).Msg("Seed data already present, nothing loaded")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Int("users", summary.Users).Int("todos", summary.Todos).Str("path", cfg.SeedsPath).Msg("Database seeded")
	return nil
}

func addUser(ctx context.Context, db *sql.DB, username string) error {
	password, err := promptPassword(os.Stdin, os.Stderr)
	if err != nil {
		return err
	}
	user, err := services.NewUserService(db).CreateUser(ctx, username, password)
	if err != nil {
		return err
	}
	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User created")
	return nil
}

func serve(cfg *config.Config, db *sql.DB) error {
	if cfg.SessionSecret == config.DefaultSessionSecret {
		log.Warn().Msg("Using the default session secret; set SESSION_SECRET outside development")
	}

	render, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	eventService := services.NewEventService(db, hub)
	todoService := services.NewTodoService(db, eventService, cfg.TodosPerPage)

	// Set up and run the background event pruner
	pruner, err := monitoring.NewPruner(eventService, cfg.PruneSchedule, cfg.EventRetention)
	if err != nil {
		return err
	}
	go pruner.Run()

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.Production)

	// Set up router
	router := api.NewRouter(cfg, sessions, render, hub, api.Services{
		Users:  userService,
		Todos:  todoService,
		Events: eventService,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	pruner.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}
