package controllers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Abat-Hospital-Project/data-analyzer-backend/services"
	"github.com/Abat-Hospital-Project/data-analyzer-backend/utils"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []services.Message
}

func (r *recordingSender) Send(msg services.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

type authFixture struct {
	app    *fiber.App
	mock   sqlmock.Sqlmock
	issuer *utils.TokenIssuer
	sender *recordingSender
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := utils.NewTokenIssuer("test-secret", time.Hour, 7*24*time.Hour, time.Hour)
	sender := &recordingSender{}
	mail := services.NewDispatcher(sender, logger)
	t.Cleanup(mail.Close)

	auth := NewAuthController(db, issuer, mail, "http://localhost:3000", time.Hour, logger)

	app := fiber.New()
	app.Post("/register", auth.Register)
	app.Post("/verify-email", auth.VerifyEmail)
	app.Post("/login", auth.Login)
	app.Post("/refresh-token", auth.RefreshToken)
	app.Post("/forgot-password", auth.ForgotPassword)
	app.Post("/reset-password", auth.ResetPassword)

	return &authFixture{app: app, mock: mock, issuer: issuer, sender: sender}
}

func (f *authFixture) post(t *testing.T, path string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

var userCols = []string{
	"id", "first_name", "last_name", "email", "password", "gender", "age",
	"phone_number", "city", "sub_city", "kebele", "marital_status",
	"disability_status", "drug_usage_status", "mental_health_status",
	"card_number", "is_verified", "verification_code", "verification_code_sent_at",
}

func userRow(id uint, email, hash string, verified bool, code any, sentAt any) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow(
		id, "Abebe", "Kebede", email, hash, "male", 30,
		"0911000000", "Addis Ababa", "Bole", "05", "single",
		"none", "none", "stable", "CARD-001", verified, code, sentAt,
	)
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"first_name": "Abebe", "last_name": "Kebede",
		"email": email, "password": "P@ssw0rd1", "confirm_password": "P@ssw0rd1",
		"gender": "male", "age": 30, "phone_number": "0911000000",
		"city": "Addis Ababa", "sub_city": "Bole", "kebele": "05",
		"marital_status": "single", "disability_status": "none",
		"drug_usage_status": "none", "mental_health_status": "stable",
		"card_number": "CARD-001",
	}
}

func TestRegister_Success(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT email FROM users WHERE email = (.+) LIMIT 1").
		WithArgs("a@x.com").
		WillReturnError(sql.ErrNoRows)
	f.mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()

	resp := f.post(t, "/register", registerBody("a@x.com"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT email FROM users WHERE email = (.+) LIMIT 1").
		WithArgs("taken@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("taken@x.com"))
	f.mock.ExpectRollback()

	resp := f.post(t, "/register", registerBody("taken@x.com"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already exists", decodeBody(t, resp)["error"])
}

func TestRegister_PasswordMismatch(t *testing.T) {
	f := newAuthFixture(t)

	body := registerBody("a@x.com")
	body["confirm_password"] = "different1"

	resp := f.post(t, "/register", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyEmail_Success(t *testing.T) {
	f := newAuthFixture(t)

	sentAt := time.Now().Add(-59 * time.Minute)
	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+) AND verification_code = (.+) LIMIT 1").
		WithArgs("a@x.com", "123456").
		WillReturnRows(userRow(1, "a@x.com", "$2a$12$hash", false, "123456", sentAt))
	f.mock.ExpectExec("UPDATE users SET is_verified = 1").
		WithArgs(uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := f.post(t, "/verify-email", map[string]any{
		"email": "a@x.com", "verification_code": "123456",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token := decodeBody(t, resp)["token"].(string)
	claims, err := f.issuer.Parse(token, utils.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	f := newAuthFixture(t)

	sentAt := time.Now().Add(-61 * time.Minute)
	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+) AND verification_code = (.+) LIMIT 1").
		WithArgs("b@x.com", "654321").
		WillReturnRows(userRow(2, "b@x.com", "$2a$12$hash", false, "654321", sentAt))

	resp := f.post(t, "/verify-email", map[string]any{
		"email": "b@x.com", "verification_code": "654321",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp)["error"], "expired")
}

func TestVerifyEmail_InvalidCode(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+) AND verification_code = (.+) LIMIT 1").
		WithArgs("a@x.com", "000000").
		WillReturnError(sql.ErrNoRows)

	resp := f.post(t, "/verify-email", map[string]any{
		"email": "a@x.com", "verification_code": "000000",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)

	hash, err := utils.HashPassword("P@ssw0rd1")
	require.NoError(t, err)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+) LIMIT 1").
		WithArgs("a@x.com").
		WillReturnRows(userRow(1, "a@x.com", hash, true, nil, nil))
	f.mock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at <= (.+)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp := f.post(t, "/login", map[string]any{
		"email": "a@x.com", "password": "P@ssw0rd1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["token"])

	// The refresh token rides only in a scoped HttpOnly cookie.
	var refreshCookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "refresh_token" {
			refreshCookie = ck
		}
	}
	require.NotNil(t, refreshCookie)
	assert.True(t, refreshCookie.HttpOnly)
	assert.True(t, refreshCookie.Secure)
	assert.Equal(t, "/api/user/refresh-token", refreshCookie.Path)
	assert.NotEqual(t, body["token"], refreshCookie.Value)
}

func TestLogin_NotVerified(t *testing.T) {
	f := newAuthFixture(t)

	hash, err := utils.HashPassword("P@ssw0rd1")
	require.NoError(t, err)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+) LIMIT 1").
		WithArgs("a@x.com").
		WillReturnRows(userRow(1, "a@x.com", hash, false, "123456", time.Now()))

	// Correct credentials still fail before verification.
	resp := f.post(t, "/login", map[string]any{
		"email": "a@x.com", "password": "P@ssw0rd1",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	hash, err := utils.HashPassword("P@ssw0rd1")
	require.NoError(t, err)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+) LIMIT 1").
		WithArgs("a@x.com").
		WillReturnRows(userRow(1, "a@x.com", hash, true, nil, nil))

	resp := f.post(t, "/login", map[string]any{
		"email": "a@x.com", "password": "P@ssw0rd2",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+) LIMIT 1").
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	resp := f.post(t, "/login", map[string]any{
		"email": "nobody@x.com", "password": "P@ssw0rd1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshToken_Success(t *testing.T) {
	f := newAuthFixture(t)

	refresh, _, err := f.issuer.IssueRefreshToken(1, "a@x.com")
	require.NoError(t, err)

	f.mock.ExpectQuery("SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens").
		WithArgs(uint(1), refresh, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
			AddRow(10, 1, refresh, time.Now().Add(6*24*time.Hour), time.Now().Add(-time.Hour)))

	resp := f.post(t, "/refresh-token", nil,
		&http.Cookie{Name: "refresh_token", Value: refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token := decodeBody(t, resp)["token"].(string)
	claims, err := f.issuer.Parse(token, utils.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.NotEqual(t, refresh, token)
}

func TestRefreshToken_MissingCookie(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.post(t, "/refresh-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Refresh token missing", decodeBody(t, resp)["error"])
}

func TestRefreshToken_Tampered(t *testing.T) {
	f := newAuthFixture(t)

	refresh, _, err := f.issuer.IssueRefreshToken(1, "a@x.com")
	require.NoError(t, err)

	tampered := []byte(refresh)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	resp := f.post(t, "/refresh-token", nil,
		&http.Cookie{Name: "refresh_token", Value: string(tampered)})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or expired refresh token", decodeBody(t, resp)["error"])
}

func TestRefreshToken_NotRecognized(t *testing.T) {
	f := newAuthFixture(t)

	// Validly signed, but no persisted session record.
	refresh, _, err := f.issuer.IssueRefreshToken(1, "a@x.com")
	require.NoError(t, err)

	f.mock.ExpectQuery("SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens").
		WithArgs(uint(1), refresh, sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	resp := f.post(t, "/refresh-token", nil,
		&http.Cookie{Name: "refresh_token", Value: refresh})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Refresh token not recognized", decodeBody(t, resp)["error"])
}

func TestForgotPassword_UniformResponse(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+) LIMIT 1").
		WithArgs("known@x.com").
		WillReturnRows(userRow(1, "known@x.com", "$2a$12$hash", true, nil, nil))
	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+) LIMIT 1").
		WithArgs("unknown@x.com").
		WillReturnError(sql.ErrNoRows)

	respKnown := f.post(t, "/forgot-password", map[string]any{"email": "known@x.com"})
	respUnknown := f.post(t, "/forgot-password", map[string]any{"email": "unknown@x.com"})

	// Identical status and body whether or not the account exists.
	require.Equal(t, http.StatusOK, respKnown.StatusCode)
	require.Equal(t, http.StatusOK, respUnknown.StatusCode)
	assert.Equal(t, decodeBody(t, respKnown), decodeBody(t, respUnknown))
}

func TestResetPassword_Success(t *testing.T) {
	f := newAuthFixture(t)

	reset, err := f.issuer.IssueResetToken(1, "a@x.com")
	require.NoError(t, err)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE id = (.+) LIMIT 1").
		WithArgs(uint(1)).
		WillReturnRows(userRow(1, "a@x.com", "$2a$12$old", true, nil, nil))
	f.mock.ExpectBegin()
	f.mock.ExpectExec("UPDATE users SET password = (.+)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("DELETE FROM refresh_tokens WHERE user_id = (.+)").
		WithArgs(uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	f.mock.ExpectCommit()

	resp := f.post(t, "/reset-password", map[string]any{
		"token": reset, "new_password": "N3wP@ssword", "confirm_password": "N3wP@ssword",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestResetPassword_AccessTokenRejected(t *testing.T) {
	f := newAuthFixture(t)

	// An access token must not pass where a reset token is expected.
	access, err := f.issuer.IssueAccessToken(1, "a@x.com")
	require.NoError(t, err)

	resp := f.post(t, "/reset-password", map[string]any{
		"token": access, "new_password": "N3wP@ssword", "confirm_password": "N3wP@ssword",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResetPassword_UserGone(t *testing.T) {
	f := newAuthFixture(t)

	reset, err := f.issuer.IssueResetToken(9, "gone@x.com")
	require.NoError(t, err)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE id = (.+) LIMIT 1").
		WithArgs(uint(9)).
		WillReturnError(sql.ErrNoRows)

	resp := f.post(t, "/reset-password", map[string]any{
		"token": reset, "new_password": "N3wP@ssword", "confirm_password": "N3wP@ssword",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
