package controllers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Abat-Hospital-Project/data-analyzer-backend/store"
	"github.com/gofiber/fiber/v2"
)

// CardController manages case records and their symptom, disease and
// outcome associations.
type CardController struct {
	db    *sql.DB
	cards *store.CardStore
	log   *slog.Logger
}

func NewCardController(db *sql.DB, log *slog.Logger) *CardController {
	return &CardController{db: db, cards: store.NewCardStore(db), log: log}
}

type CreateCardInput struct {
	CardNumber string `json:"card_number" validate:"required"`
}

func (cc *CardController) CreateCard(c *fiber.Ctx) error {
	var input CreateCardInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	card, err := cc.cards.CreateCard(c.Context(), input.CardNumber)
	if errors.Is(err, store.ErrDuplicateCard) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Card already exists"})
	}
	if err != nil {
		cc.log.Error("create card", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Card created successfully",
		"card":    card,
	})
}

// GetCard returns the card together with everything recorded on it.
func (cc *CardController) GetCard(c *fiber.Ctx) error {
	card, err := cc.cards.FindCard(c.Context(), c.Params("cardId"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Card not found"})
	}
	if err != nil {
		cc.log.Error("find card", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	symptoms, err := cc.cards.CardSymptoms(c.Context(), card.CardNumber)
	if err != nil {
		cc.log.Error("load card symptoms", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}
	diseases, err := cc.cards.CardDiseases(c.Context(), card.CardNumber)
	if err != nil {
		cc.log.Error("load card diseases", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}
	outcomes, err := cc.cards.CardOutcomes(c.Context(), card.CardNumber)
	if err != nil {
		cc.log.Error("load card outcomes", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"card":     card,
		"symptoms": symptoms,
		"diseases": diseases,
		"outcomes": outcomes,
	})
}

type CardSymptomInput struct {
	CardNumber string                `json:"card_number" validate:"required"`
	Symptoms   []store.SymptomReport `json:"symptoms" validate:"required,min=1,dive"`
}

// CardSymptom attaches reported symptoms to a card. All inserts commit
// or roll back together.
func (cc *CardController) CardSymptom(c *fiber.Ctx) error {
	var input CardSymptomInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	reportedAt := time.Now()
	err := store.WithTx(c.Context(), cc.db, func(tx *sql.Tx) error {
		return store.NewCardStore(tx).AttachSymptoms(c.Context(), input.CardNumber, input.Symptoms, reportedAt)
	})
	if err != nil {
		cc.log.Error("attach symptoms", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":  "Symptoms associated with card number successfully",
		"symptoms": input.Symptoms,
	})
}

type CardDiseaseInput struct {
	CardNumber string   `json:"card_number" validate:"required"`
	DiseaseIDs []string `json:"disease_ids" validate:"required,min=1"`
}

// CardDisease attaches diagnosed diseases to a card atomically.
func (cc *CardController) CardDisease(c *fiber.Ctx) error {
	var input CardDiseaseInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	reportedAt := time.Now()
	err := store.WithTx(c.Context(), cc.db, func(tx *sql.Tx) error {
		return store.NewCardStore(tx).AttachDiseases(c.Context(), input.CardNumber, input.DiseaseIDs, reportedAt)
	})
	if err != nil {
		cc.log.Error("attach diseases", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":     "Diseases associated with card number successfully",
		"disease_ids": input.DiseaseIDs,
	})
}

type CardOutcomeInput struct {
	CardNumber string `json:"card_number" validate:"required"`
	OutcomeID  string `json:"outcome_id" validate:"required"`
}

func (cc *CardController) CardOutcome(c *fiber.Ctx) error {
	var input CardOutcomeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := cc.cards.AttachOutcome(c.Context(), input.CardNumber, input.OutcomeID, time.Now())
	if err != nil {
		cc.log.Error("attach outcome", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Server error, try again later"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Outcome associated with card number successfully",
		"outcome": fiber.Map{
			"card_number": input.CardNumber,
			"outcome_id":  input.OutcomeID,
		},
	})
}
