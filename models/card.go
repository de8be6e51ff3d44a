package models

type Card struct {
	ID         string `json:"card_id"`
	CardNumber string `json:"card_number"`
}

type Symptom struct {
	ID   string `json:"symptom_id"`
	Name string `json:"name"`
}

type Disease struct {
	ID   string `json:"disease_id"`
	Name string `json:"name"`
}

type Outcome struct {
	ID   string `json:"outcome_id"`
	Name string `json:"name"`
}
