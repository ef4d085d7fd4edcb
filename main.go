package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"taskapi/internal/config"
	"taskapi/internal/database"
	"taskapi/internal/handlers"
	"taskapi/internal/middleware"
	"taskapi/internal/repositories"
	"taskapi/internal/services"
	"taskapi/pkg/rabbitmq"
)

// stores are the repositories backing the API, plus how to release them.
type stores struct {
	users repositories.UserRepository
	tasks repositories.TaskRepository
	close func() error
}

// openStores builds the repositories for the configured driver.
func openStores(cfg config.DatabaseConfig) (*stores, error) {
	if cfg.Driver == "memory" {
		log.Println("Using in-memory repositories; data is lost on exit.")
		return &stores{
			users: repositories.NewMemoryUserRepository(),
			tasks: repositories.NewMemoryTaskRepository(),
			close: func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &stores{
		users: repositories.NewGORMUserRepository(db),
		tasks: repositories.NewGORMTaskRepository(db),
		close: func() error { return database.Close(db) },
	}, nil
}

// newApp wires services and handlers into a fiber app. publisher may be nil.
func newApp(cfg *config.Config, st *stores, publisher services.EventPublisher) *fiber.App {
	tokens := services.NewTokenService(cfg.Jwt)
	authService := services.NewAuthService(st.users, tokens, cfg.Identity)
	taskService := services.NewTaskService(st.tasks, publisher)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: log.Writer()}))

	app.Get("/health", func(c *fiber.Ctx) error {
		events := "disabled"
		if publisher != nil {
			events = "enabled"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
			"events": events,
		})
	})

	api := app.Group("/api")
	auth := middleware.AuthRequired(tokens)
	handlers.NewUserHandler(authService).RegisterRoutes(api, auth)
	handlers.NewTaskHandler(taskService, tokens).RegisterRoutes(api, auth)

	return app
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Storage ---
	st, err := openStores(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Database.Driver, err)
	}

	// --- Task events ---
	// A typed nil *rabbitmq.Client must not reach the service as a non-nil interface.
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQ.URL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		publisher = mqClient
		if err := mqClient.ConsumeTaskEvents(rabbitmq.LogTaskEvent); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	} else {
		log.Println("rabbitmq.url is empty; task events are not published.")
	}

	app := newApp(cfg, st, publisher)

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			log.Printf("Error closing RabbitMQ client: %v", err)
		}
	}
	if err := st.close(); err != nil {
		log.Printf("Error closing store: %v", err)
	}
	log.Println("Server gracefully stopped")
}
