package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abat-Hospital-Project/data-analyzer-backend/models"
	"github.com/google/uuid"
)

// CardStore owns the cards table and its association tables.
type CardStore struct {
	db DBTX
}

func NewCardStore(db DBTX) *CardStore {
	return &CardStore{db: db}
}

// CreateCard registers a new case record keyed by its card number.
func (s *CardStore) CreateCard(ctx context.Context, cardNumber string) (*models.Card, error) {
	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT card_id FROM cards WHERE card_number = ? LIMIT 1`, cardNumber).Scan(&existing)
	if err == nil {
		return nil, ErrDuplicateCard
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	card := &models.Card{ID: uuid.NewString(), CardNumber: cardNumber}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cards (card_id, card_number) VALUES (?, ?)`,
		card.ID, card.CardNumber)
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (s *CardStore) FindCard(ctx context.Context, cardID string) (*models.Card, error) {
	var card models.Card
	err := s.db.QueryRowContext(ctx,
		`SELECT card_id, card_number FROM cards WHERE card_id = ?`, cardID).
		Scan(&card.ID, &card.CardNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// SymptomReport pairs a symptom with the severity observed on a card.
type SymptomReport struct {
	SymptomID string `json:"symptom_id"`
	Severity  int    `json:"severity"`
}

// AttachSymptoms links the reported symptoms to a card. Run it inside a
// transaction so a mid-sequence failure leaves no partial rows.
func (s *CardStore) AttachSymptoms(ctx context.Context, cardNumber string, reports []SymptomReport, reportedAt time.Time) error {
	for _, r := range reports {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO card_symptoms (card_number, symptom_id, severity, reported_at)
			 VALUES (?, ?, ?, ?)`,
			cardNumber, r.SymptomID, r.Severity, reportedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// AttachDiseases links diagnosed diseases to a card; same transaction
// expectations as AttachSymptoms.
func (s *CardStore) AttachDiseases(ctx context.Context, cardNumber string, diseaseIDs []string, reportedAt time.Time) error {
	for _, diseaseID := range diseaseIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO card_diseases (card_number, disease_id, reported_at)
			 VALUES (?, ?, ?)`,
			cardNumber, diseaseID, reportedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// CardSymptoms lists the symptoms recorded against a card.
func (s *CardStore) CardSymptoms(ctx context.Context, cardNumber string) ([]models.Symptom, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sy.symptom_id, sy.name
		 FROM card_symptoms cs
		 JOIN symptoms sy ON sy.symptom_id = cs.symptom_id
		 WHERE cs.card_number = ?`, cardNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	symptoms := []models.Symptom{}
	for rows.Next() {
		var sym models.Symptom
		if err := rows.Scan(&sym.ID, &sym.Name); err != nil {
			return nil, err
		}
		symptoms = append(symptoms, sym)
	}
	return symptoms, rows.Err()
}

// CardDiseases lists the diseases diagnosed on a card.
func (s *CardStore) CardDiseases(ctx context.Context, cardNumber string) ([]models.Disease, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.disease_id, d.name
		 FROM card_diseases cd
		 JOIN diseases d ON d.disease_id = cd.disease_id
		 WHERE cd.card_number = ?`, cardNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	diseases := []models.Disease{}
	for rows.Next() {
		var dis models.Disease
		if err := rows.Scan(&dis.ID, &dis.Name); err != nil {
			return nil, err
		}
		diseases = append(diseases, dis)
	}
	return diseases, rows.Err()
}

// CardOutcomes lists the outcomes recorded against a card.
func (s *CardStore) CardOutcomes(ctx context.Context, cardNumber string) ([]models.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT o.outcome_id, o.name
		 FROM card_outcomes co
		 JOIN outcomes o ON o.outcome_id = co.outcome_id
		 WHERE co.card_number = ?`, cardNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outcomes := []models.Outcome{}
	for rows.Next() {
		var out models.Outcome
		if err := rows.Scan(&out.ID, &out.Name); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, rows.Err()
}

// AttachOutcome records the case outcome for a card.
func (s *CardStore) AttachOutcome(ctx context.Context, cardNumber, outcomeID string, reportedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO card_outcomes (card_number, outcome_id, reported_at)
		 VALUES (?, ?, ?)`,
		cardNumber, outcomeID, reportedAt)
	return err
}
