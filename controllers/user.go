package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Abat-Hospital-Project/data-analyzer-backend/store"
	"github.com/gofiber/fiber/v2"
)

// UserController serves the profile endpoints behind the auth middleware.
type UserController struct {
	users *store.UserStore
	log   *slog.Logger
}

func NewUserController(db store.DBTX, log *slog.Logger) *UserController {
	return &UserController{users: store.NewUserStore(db), log: log}
}

func parseUserID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("userId"), 10, 64)
	return uint(id), err
}

func (u *UserController) GetUser(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	user, err := u.users.FindByID(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		u.log.Error("find by id", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"user": user})
}

type UpdateUserInput struct {
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	Gender             *string `json:"gender"`
	Age                *int    `json:"age"`
	PhoneNumber        *string `json:"phone_number"`
	City               *string `json:"city"`
	SubCity            *string `json:"sub_city"`
	Kebele             *string `json:"kebele"`
	MaritalStatus      *string `json:"marital_status"`
	DisabilityStatus   *string `json:"disability_status"`
	DrugUsageStatus    *string `json:"drug_usage_status"`
	MentalHealthStatus *string `json:"mental_health_status"`
	CardNumber         *string `json:"card_number"`
}

// UpdateUser applies a partial profile update. Omitted fields keep
// their stored values.
func (u *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var input UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err = u.users.UpdateProfile(c.Context(), id, store.ProfileUpdate{
		FirstName:          input.FirstName,
		LastName:           input.LastName,
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
	})
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		u.log.Error("update profile", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "User updated successfully"})
}

func (u *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	err = u.users.Delete(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		u.log.Error("delete user", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "User deleted successfully"})
}
