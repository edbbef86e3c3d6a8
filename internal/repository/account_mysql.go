package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"huanghe-analytics-api/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// MySQLAccountRepository implements AccountRepository using MySQL.
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQL account repository.
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{db: db}
}

// ValidateCredentials checks a username/password pair for token generation.
// Returns account details if valid, error otherwise.
func (r *MySQLAccountRepository) ValidateCredentials(ctx context.Context, username, password string) (*model.AccountValidation, error) {
	log.Printf("[AccountRepository] Validating credentials for username=%s", username)

	query := `
		SELECT id, username, password_hash, role, status
		FROM accounts
		WHERE username = ?
		LIMIT 1`

	var (
		validation   model.AccountValidation
		passwordHash string
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&validation.AccountID,
		&validation.Username,
		&passwordHash,
		&validation.Role,
		&validation.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid username or password")
		}
		return nil, fmt.Errorf("failed to validate credentials: %w", err)
	}

	if err := verifyPassword(passwordHash, password); err != nil {
		return nil, fmt.Errorf("invalid username or password")
	}

	if validation.Status != "active" {
		return nil, fmt.Errorf("account is %s", validation.Status)
	}

	log.Printf("[AccountRepository] Credentials valid: account_id=%d role=%s",
		validation.AccountID, validation.Role)
	return &validation, nil
}

// verifyPassword checks a plaintext password against the stored bcrypt hash.
func verifyPassword(passwordHash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
}

// HashPassword produces a bcrypt hash for storage in accounts.password_hash.
// Used by account provisioning tooling.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Ensure MySQLAccountRepository implements AccountRepository
var _ AccountRepository = (*MySQLAccountRepository)(nil)
