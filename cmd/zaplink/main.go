package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/LucasFarias/ZapLink/app/repository"
	"github.com/LucasFarias/ZapLink/internal/pkg/cache"
	"github.com/LucasFarias/ZapLink/internal/pkg/database"
	"github.com/LucasFarias/ZapLink/internal/pkg/env"
	"github.com/LucasFarias/ZapLink/internal/pkg/metrics/counter"
	"github.com/LucasFarias/ZapLink/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	cache.SetupCache()

	// Drain buffered view/click counters into MySQL in the background
	go counter.StartFlushLoop(30*time.Second, make(chan struct{}))

	app := fiber.New(fiber.Config{
		AppName: "ZapLink",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics, basic-auth protected in this binary
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
