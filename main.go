package main

import (
	"log/slog"
	"os"

	"github.com/Abat-Hospital-Project/data-analyzer-backend/config"
	"github.com/Abat-Hospital-Project/data-analyzer-backend/controllers"
	"github.com/Abat-Hospital-Project/data-analyzer-backend/routes"
	"github.com/Abat-Hospital-Project/data-analyzer-backend/services"
	"github.com/Abat-Hospital-Project/data-analyzer-backend/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	db, err := config.OpenDB(cfg.DatabaseDSN)
	if err != nil {
		logger.Error("database startup failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connection established")

	issuer := utils.NewTokenIssuer(cfg.JWTSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.ResetTokenTTL)

	mail := services.NewDispatcher(services.NewMailer(cfg), logger)
	defer mail.Close()

	auth := controllers.NewAuthController(db, issuer, mail, cfg.AppURL, cfg.VerificationCodeTTL, logger)
	users := controllers.NewUserController(db, logger)
	cards := controllers.NewCardController(db, logger)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AppURL,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	routes.Setup(app, auth, users, cards, issuer)

	logger.Info("server running", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
