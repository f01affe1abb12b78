package handler

import (
	"studyquiz/internal/config"
	"studyquiz/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp creates the fiber app with the shared middleware chain.
func NewApp(cfg config.ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "studyquiz",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.NewRequestID())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
		MaxAge:       300,
	}))
	return app
}

// RegisterRoutes mounts the quiz API and health endpoint.
func RegisterRoutes(app *fiber.App, quiz *QuizHandler, health *HealthHandler) {
	app.Get("/health", health.Health)

	api := app.Group("/api")
	quizzes := api.Group("/quizzes")
	quizzes.Post("/", quiz.CreateQuiz)
	quizzes.Get("/:id", middleware.ValidateQuizID(), quiz.GetQuiz)
	quizzes.Post("/:id/score", middleware.ValidateQuizID(), quiz.SubmitScore)
}
