package controllers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Abat-Hospital-Project/data-analyzer-backend/models"
	"github.com/Abat-Hospital-Project/data-analyzer-backend/services"
	"github.com/Abat-Hospital-Project/data-analyzer-backend/store"
	"github.com/Abat-Hospital-Project/data-analyzer-backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

const refreshCookieName = "refresh_token"

// AuthController orchestrates the account lifecycle:
// register -> verify -> login -> refresh, plus forgot/reset password.
type AuthController struct {
	db       *sql.DB
	users    *store.UserStore
	sessions *store.RefreshTokenStore
	issuer   *utils.TokenIssuer
	mail     *services.Dispatcher
	appURL   string
	codeTTL  time.Duration
	log      *slog.Logger
}

func NewAuthController(db *sql.DB, issuer *utils.TokenIssuer, mail *services.Dispatcher, appURL string, codeTTL time.Duration, log *slog.Logger) *AuthController {
	return &AuthController{
		db:       db,
		users:    store.NewUserStore(db),
		sessions: store.NewRefreshTokenStore(db),
		issuer:   issuer,
		mail:     mail,
		appURL:   appURL,
		codeTTL:  codeTTL,
		log:      log,
	}
}

type RegisterInput struct {
	FirstName          string `json:"first_name" validate:"required"`
	LastName           string `json:"last_name" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	Password           string `json:"password" validate:"required,min=8"`
	ConfirmPassword    string `json:"confirm_password" validate:"required,eqfield=Password"`
	Gender             string `json:"gender" validate:"required"`
	Age                int    `json:"age" validate:"required,min=1"`
	PhoneNumber        string `json:"phone_number" validate:"required"`
	City               string `json:"city" validate:"required"`
	SubCity            string `json:"sub_city" validate:"required"`
	Kebele             string `json:"kebele" validate:"required"`
	MaritalStatus      string `json:"marital_status" validate:"required"`
	DisabilityStatus   string `json:"disability_status" validate:"required"`
	DrugUsageStatus    string `json:"drug_usage_status" validate:"required"`
	MentalHealthStatus string `json:"mental_health_status" validate:"required"`
	CardNumber         string `json:"card_number" validate:"required"`
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		a.log.Error("hash password", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		a.log.Error("generate verification code", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	user := &models.User{
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		Email:              input.Email,
		PasswordHash:       hash,
		Gender:             input.Gender,
		Age:                input.Age,
		PhoneNumber:        input.PhoneNumber,
		City:               input.City,
		SubCity:            input.SubCity,
		Kebele:             input.Kebele,
		MaritalStatus:      input.MaritalStatus,
		DisabilityStatus:   input.DisabilityStatus,
		DrugUsageStatus:    input.DrugUsageStatus,
		MentalHealthStatus: input.MentalHealthStatus,
		CardNumber:         input.CardNumber,
		VerificationCode:   sql.NullString{String: code, Valid: true},
		VerificationCodeSentAt: sql.NullTime{
			Time:  time.Now(),
			Valid: true,
		},
	}

	// Duplicate check and insert share one transaction so a crash
	// between them cannot leave partial state.
	err = store.WithTx(c.Context(), a.db, func(tx *sql.Tx) error {
		id, err := store.NewUserStore(tx).Create(c.Context(), user)
		if err != nil {
			return err
		}
		user.ID = id
		return nil
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "User already exists"})
	}
	if err != nil {
		a.log.Error("create user", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	a.mail.Enqueue(services.VerificationEmail(user.Email, code))

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully. Please check your email for the verification code.",
		"user":    user,
	})
}

type VerifyEmailInput struct {
	Email            string `json:"email" validate:"required,email"`
	VerificationCode string `json:"verification_code" validate:"required,len=6,numeric"`
}

func (a *AuthController) VerifyEmail(c *fiber.Ctx) error {
	var input VerifyEmailInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := a.users.FindByVerification(c.Context(), input.Email, input.VerificationCode)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Verification failed. Invalid code or email."})
	}
	if err != nil {
		a.log.Error("find by verification", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	if !user.VerificationCodeSentAt.Valid ||
		utils.CodeExpired(user.VerificationCodeSentAt.Time, time.Now(), a.codeTTL) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Verification code has expired. Please request a new code."})
	}

	if err := a.users.SetVerified(c.Context(), user.ID); err != nil {
		a.log.Error("set verified", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	token, err := a.issuer.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		a.log.Error("issue access token", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Email verified successfully!",
		"token":   token,
	})
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := a.users.FindByEmail(c.Context(), input.Email)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if err != nil {
		a.log.Error("find by email", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	if !user.IsVerified {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Please verify your email before logging in"})
	}

	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	accessToken, err := a.issuer.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		a.log.Error("issue access token", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	refreshToken, expiresAt, err := a.issuer.IssueRefreshToken(user.ID, user.Email)
	if err != nil {
		a.log.Error("issue refresh token", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	// Opportunistic cleanup; a failure here must not block the login.
	if err := a.sessions.DeleteExpired(c.Context()); err != nil {
		a.log.Warn("purge expired refresh tokens", "error", err)
	}

	session, err := a.sessions.Create(c.Context(), user.ID, refreshToken, expiresAt)
	if err != nil {
		a.log.Error("persist refresh token", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	// The refresh token travels only in a scoped, non-script-readable
	// cookie; the JSON body carries the access token alone.
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		Path:     "/api/user/refresh-token",
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "User login successful",
		"token":   accessToken,
		"user_id": user.ID,
	})
}

func (a *AuthController) RefreshToken(c *fiber.Ctx) error {
	presented := c.Cookies(refreshCookieName)
	if presented == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Refresh token missing"})
	}

	claims, err := a.issuer.Parse(presented, utils.TokenKindRefresh)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired refresh token"})
	}

	session, err := a.sessions.Find(c.Context(), claims.UserID, presented)
	if errors.Is(err, store.ErrTokenNotRecognized) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Refresh token not recognized"})
	}
	if err != nil {
		a.log.Error("look up refresh token", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	accessToken, err := a.issuer.IssueAccessToken(session.UserID, claims.Email)
	if err != nil {
		a.log.Error("issue access token", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"token": accessToken})
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	var input ForgotPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// The response is identical whether or not the account exists, so
	// this endpoint cannot be used to enumerate registered emails.
	user, err := a.users.FindByEmail(c.Context(), input.Email)
	if err == nil {
		resetToken, err := a.issuer.IssueResetToken(user.ID, user.Email)
		if err != nil {
			a.log.Error("issue reset token", "error", err)
		} else {
			a.mail.Enqueue(services.PasswordResetEmail(user.Email, a.appURL, resetToken))
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		a.log.Error("find by email", "error", err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "If that email exists, a password reset link has been sent.",
	})
}

type ResetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	var input ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	claims, err := a.issuer.Parse(input.Token, utils.TokenKindReset)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired reset token"})
	}

	user, err := a.users.FindByID(c.Context(), claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired reset token"})
	}
	if err != nil {
		a.log.Error("find by id", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		a.log.Error("hash password", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	// New hash and session revocation land atomically: after a reset no
	// previously issued refresh token survives.
	err = store.WithTx(c.Context(), a.db, func(tx *sql.Tx) error {
		if err := store.NewUserStore(tx).UpdatePassword(c.Context(), user.ID, hash); err != nil {
			return err
		}
		return store.NewRefreshTokenStore(tx).RevokeAllForUser(c.Context(), user.ID)
	})
	if err != nil {
		a.log.Error("reset password", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	a.mail.Enqueue(services.PasswordChangedEmail(user.Email))

	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Password successfully reset"})
}
