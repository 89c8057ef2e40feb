package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"report-logger/common"
	"report-logger/models"

	"github.com/apex/log"
	"golang.org/x/crypto/bcrypt"
)

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Authenticate checks a name and password against the stored bcrypt hash.
func (s *Service) Authenticate(ctx context.Context, name, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}

	var (
		u    models.User
		hash string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, pass FROM users WHERE name = ?`, name).
		Scan(&u.ID, &u.Name, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Infof("Login attempt for unknown user %q", name)
			return nil, models.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to read user %q: %w", name, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		log.Infof("Password mismatch for user %d", u.ID)
		return nil, models.ErrUnauthorized
	}
	return &u, nil
}

// UpsertUser creates a user or replaces its password.
func (s *Service) UpsertUser(ctx context.Context, name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return models.NewValidationError("Username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, pass) VALUES (?, ?) ON DUPLICATE KEY UPDATE pass = VALUES(pass)`,
		name, string(hash))
	common.LogResult("UpsertUser", result, err, false)
	if err != nil {
		return fmt.Errorf("failed to store user %q: %w", name, err)
	}
	return nil
}
