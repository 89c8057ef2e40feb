package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"report-logger/common"
	"report-logger/models"
)

func (s *Service) ListMessages(ctx context.Context) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, created_at, updated_at FROM messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Title, &m.Content, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Service) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	var m models.Message
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at, updated_at FROM messages WHERE id = ?`, id).
		Scan(&m.ID, &m.Title, &m.Content, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read message %d: %w", id, err)
	}
	return &m, nil
}

func validateMessage(req models.MessageRequest) (models.MessageRequest, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		return req, models.NewValidationError("Title and content are required")
	}
	return req, nil
}

func (s *Service) CreateMessage(ctx context.Context, req models.MessageRequest) (*models.Message, error) {
	req, err := validateMessage(req)
	if err != nil {
		return nil, err
	}
	now := dbTime(s.now())
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (title, content, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		req.Title, req.Content, now, now)
	common.LogResult("CreateMessage", result, err, true)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new message id: %w", err)
	}
	return s.GetMessage(ctx, id)
}

func (s *Service) UpdateMessage(ctx context.Context, id int64, req models.MessageRequest) (*models.Message, error) {
	req, err := validateMessage(req)
	if err != nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE messages SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		req.Title, req.Content, dbTime(s.now()), id)
	if err := expectOneRow(result, err, "message", id); err != nil {
		return nil, err
	}
	return s.GetMessage(ctx, id)
}

func (s *Service) DeleteMessage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	return expectOneRow(result, err, "message", id)
}
