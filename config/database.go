package config

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// OpenDB opens the SQLite database, verifies the connection and makes
// sure the schema exists. The returned handle is the process-wide pool;
// callers pass it down explicitly.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, err
	}
	return db, nil
}

func createTables(db *sql.DB) error {
	// Raw SQL schema, mirrored by the store packages.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			gender VARCHAR(20) NOT NULL,
			age INTEGER NOT NULL,
			phone_number VARCHAR(30) NOT NULL,
			city VARCHAR(100) NOT NULL,
			sub_city VARCHAR(100) NOT NULL,
			kebele VARCHAR(100) NOT NULL,
			marital_status VARCHAR(50) NOT NULL,
			disability_status VARCHAR(50) NOT NULL,
			drug_usage_status VARCHAR(50) NOT NULL,
			mental_health_status VARCHAR(50) NOT NULL,
			card_number VARCHAR(50) NOT NULL,
			is_verified BOOLEAN DEFAULT FALSE,
			verification_code VARCHAR(6) NULL,
			verification_code_sent_at DATETIME NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			token VARCHAR(512) NOT NULL UNIQUE,
			expires_at DATETIME NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,

		`CREATE TABLE IF NOT EXISTS cards (
			card_id VARCHAR(36) PRIMARY KEY,
			card_number VARCHAR(50) NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS symptoms (
			symptom_id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS diseases (
			disease_id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS outcomes (
			outcome_id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS card_symptoms (
			card_number VARCHAR(50) NOT NULL,
			symptom_id VARCHAR(36) NOT NULL,
			severity INTEGER NOT NULL,
			reported_at DATETIME NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS card_diseases (
			card_number VARCHAR(50) NOT NULL,
			disease_id VARCHAR(36) NOT NULL,
			reported_at DATETIME NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS card_outcomes (
			card_number VARCHAR(50) NOT NULL,
			outcome_id VARCHAR(36) NOT NULL,
			reported_at DATETIME NOT NULL
		);`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}
