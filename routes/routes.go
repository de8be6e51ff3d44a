package routes

import (
	"github.com/Abat-Hospital-Project/data-analyzer-backend/controllers"
	"github.com/Abat-Hospital-Project/data-analyzer-backend/middleware"
	"github.com/Abat-Hospital-Project/data-analyzer-backend/utils"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// Setup wires every endpoint onto the app. All dependencies arrive
// constructed; nothing here touches globals.
func Setup(app *fiber.App, auth *controllers.AuthController, users *controllers.UserController, cards *controllers.CardController, issuer *utils.TokenIssuer) {
	// authLimiter: 1 req/sec, burst 5 on the credential endpoints
	authLimiter := middleware.NewIPLimiter(rate.Limit(1), 5).Handler()
	protected := middleware.AuthRequired(issuer)

	api := app.Group("/api")

	user := api.Group("/user")
	user.Post("/register", authLimiter, auth.Register)
	user.Post("/verify-email", authLimiter, auth.VerifyEmail)
	user.Post("/login", authLimiter, auth.Login)
	user.Post("/refresh-token", auth.RefreshToken)
	user.Post("/forgot-password", authLimiter, auth.ForgotPassword)
	user.Post("/reset-password", authLimiter, auth.ResetPassword)

	user.Get("/get/:userId", protected, users.GetUser)
	user.Put("/update/:userId", protected, users.UpdateUser)
	user.Delete("/delete/:userId", protected, users.DeleteUser)

	card := api.Group("/card")
	card.Post("/create", cards.CreateCard)
	card.Get("/get/:cardId", protected, cards.GetCard)
	card.Post("/card-symptom", protected, cards.CardSymptom)
	card.Post("/card-disease", protected, cards.CardDisease)
	card.Post("/card-outcome", protected, cards.CardOutcome)
}
