package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/masala/internal/config"
	"github.com/example/masala/internal/database"
	"github.com/example/masala/internal/routes"
	"github.com/example/masala/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)
	database.SeedAdmin(db)
	rdb := database.ConnectRedis(cfg.RedisURL)

	app := fiber.New(fiber.Config{
		AppName: "Masala Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, rdb, cfg)
	defer services.StopCleanupScheduler()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
