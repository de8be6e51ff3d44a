package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID                 uint   `json:"id"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Email              string `json:"email"`
	PasswordHash       string `json:"-"`
	Gender             string `json:"gender"`
	Age                int    `json:"age"`
	PhoneNumber        string `json:"phone_number"`
	City               string `json:"city"`
	SubCity            string `json:"sub_city"`
	Kebele             string `json:"kebele"`
	MaritalStatus      string `json:"marital_status"`
	DisabilityStatus   string `json:"disability_status"`
	DrugUsageStatus    string `json:"drug_usage_status"`
	MentalHealthStatus string `json:"mental_health_status"`
	CardNumber         string `json:"card_number"`
	IsVerified         bool   `json:"is_verified"`

	// Both null or both set; cleared together when the account verifies.
	VerificationCode       sql.NullString `json:"-"`
	VerificationCodeSentAt sql.NullTime   `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
