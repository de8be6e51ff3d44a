package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abat-Hospital-Project/data-analyzer-backend/models"
)

const userColumns = `id, first_name, last_name, email, password, gender, age,
	phone_number, city, sub_city, kebele, marital_status, disability_status,
	drug_usage_status, mental_health_status, card_number, is_verified,
	verification_code, verification_code_sent_at`

// UserStore is the credential store: it owns the users table.
type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Gender, &u.Age, &u.PhoneNumber, &u.City, &u.SubCity, &u.Kebele,
		&u.MaritalStatus, &u.DisabilityStatus, &u.DrugUsageStatus,
		&u.MentalHealthStatus, &u.CardNumber, &u.IsVerified,
		&u.VerificationCode, &u.VerificationCodeSentAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
	return scanUser(row)
}

func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
	return scanUser(row)
}

// FindByVerification looks up a user by the exact (email, code) pair, as
// presented during email verification.
func (s *UserStore) FindByVerification(ctx context.Context, email, code string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE email = ? AND verification_code = ? LIMIT 1`, email, code)
	return scanUser(row)
}

// Create inserts a new, unverified user. The caller sets PasswordHash
// and the verification code fields beforehand. Fails with
// ErrDuplicateEmail when the email is already registered.
func (s *UserStore) Create(ctx context.Context, u *models.User) (uint, error) {
	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT email FROM users WHERE email = ? LIMIT 1`, u.Email).Scan(&existing)
	if err == nil {
		return 0, ErrDuplicateEmail
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users
			(first_name, last_name, email, password, gender, age, phone_number,
			 city, sub_city, kebele, marital_status, disability_status,
			 drug_usage_status, mental_health_status, card_number,
			 is_verified, verification_code, verification_code_sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Gender, u.Age,
		u.PhoneNumber, u.City, u.SubCity, u.Kebele, u.MaritalStatus,
		u.DisabilityStatus, u.DrugUsageStatus, u.MentalHealthStatus,
		u.CardNumber, u.VerificationCode, u.VerificationCodeSentAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// SetVerified marks the account verified and consumes the one-time code
// in the same statement, so the code cannot be reused.
func (s *UserStore) SetVerified(ctx context.Context, id uint) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET is_verified = 1, verification_code = NULL,
		     verification_code_sent_at = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, id)
	return err
}

func (s *UserStore) UpdatePassword(ctx context.Context, id uint, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hash, id)
	return err
}

// ProfileUpdate carries optional profile fields. Nil fields keep their
// stored value; an omitted field never nulls a column.
type ProfileUpdate struct {
	FirstName          *string
	LastName           *string
	Gender             *string
	Age                *int
	PhoneNumber        *string
	City               *string
	SubCity            *string
	Kebele             *string
	MaritalStatus      *string
	DisabilityStatus   *string
	DrugUsageStatus    *string
	MentalHealthStatus *string
	CardNumber         *string
}

func (s *UserStore) UpdateProfile(ctx context.Context, id uint, p ProfileUpdate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET
			first_name = COALESCE(?, first_name),
			last_name = COALESCE(?, last_name),
			gender = COALESCE(?, gender),
			age = COALESCE(?, age),
			phone_number = COALESCE(?, phone_number),
			city = COALESCE(?, city),
			sub_city = COALESCE(?, sub_city),
			kebele = COALESCE(?, kebele),
			marital_status = COALESCE(?, marital_status),
			disability_status = COALESCE(?, disability_status),
			drug_usage_status = COALESCE(?, drug_usage_status),
			mental_health_status = COALESCE(?, mental_health_status),
			card_number = COALESCE(?, card_number),
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.FirstName, p.LastName, p.Gender, p.Age, p.PhoneNumber, p.City,
		p.SubCity, p.Kebele, p.MaritalStatus, p.DisabilityStatus,
		p.DrugUsageStatus, p.MentalHealthStatus, p.CardNumber, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id uint) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
