package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"report-logger/common"
	"report-logger/models"
)

// Lookup table names. Issues and solutions share one shape.
const (
	tableIssues    = "issues"
	tableSolutions = "solutions"
)

// ListCategories returns all categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Service) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name is required")
	}
	result, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	common.LogResult("CreateCategory", result, err, true)
	if err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new category id: %w", err)
	}
	return &models.Category{ID: id, Name: name}, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name is required")
	}
	result, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err := expectOneRow(result, err, "category", id); err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: name}, nil
}

// ListIssues returns all issues ordered by description.
func (s *Service) ListIssues(ctx context.Context) ([]models.Issue, error) {
	entries, err := s.listLookup(ctx, tableIssues)
	if err != nil {
		return nil, err
	}
	issues := make([]models.Issue, len(entries))
	for i, e := range entries {
		issues[i] = models.Issue{ID: e.id, Description: e.description, CategoryID: e.categoryID}
	}
	return issues, nil
}

func (s *Service) CreateIssue(ctx context.Context, req models.IssueRequest) (*models.Issue, error) {
	id, desc, err := s.insertLookup(ctx, tableIssues, req.Description, req.CategoryID)
	if err != nil {
		return nil, err
	}
	return &models.Issue{ID: id, Description: desc, CategoryID: req.CategoryID}, nil
}

func (s *Service) UpdateIssue(ctx context.Context, id int64, req models.IssueRequest) (*models.Issue, error) {
	desc, err := s.updateLookup(ctx, tableIssues, id, req.Description, req.CategoryID)
	if err != nil {
		return nil, err
	}
	return &models.Issue{ID: id, Description: desc, CategoryID: req.CategoryID}, nil
}

// DeleteIssue removes an issue that no report references.
func (s *Service) DeleteIssue(ctx context.Context, id int64) error {
	var refs int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE issue_id = ?`, id).Scan(&refs); err != nil {
		return fmt.Errorf("failed to count reports for issue %d: %w", id, err)
	}
	if refs > 0 {
		return models.NewValidationError("issue %d is used by %d report(s) and cannot be deleted", id, refs)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	return expectOneRow(result, mapWriteError(err), "issue", id)
}

// IssuesByCategory returns the descriptions of a category's issues.
func (s *Service) IssuesByCategory(ctx context.Context, categoryID int64) ([]string, error) {
	return s.descriptionsByCategory(ctx, tableIssues, categoryID)
}

func (s *Service) IssuesWithCategories(ctx context.Context) ([]models.IssueWithCategory, error) {
	entries, err := s.listLookupWithCategories(ctx, tableIssues)
	if err != nil {
		return nil, err
	}
	issues := make([]models.IssueWithCategory, len(entries))
	for i, e := range entries {
		issues[i] = models.IssueWithCategory{
			Issue:        models.Issue{ID: e.id, Description: e.description, CategoryID: e.categoryID},
			CategoryName: e.categoryName,
		}
	}
	return issues, nil
}

// ListSolutions returns all solutions ordered by description.
func (s *Service) ListSolutions(ctx context.Context) ([]models.Solution, error) {
	entries, err := s.listLookup(ctx, tableSolutions)
	if err != nil {
		return nil, err
	}
	solutions := make([]models.Solution, len(entries))
	for i, e := range entries {
		solutions[i] = models.Solution{ID: e.id, Description: e.description, CategoryID: e.categoryID}
	}
	return solutions, nil
}

func (s *Service) CreateSolution(ctx context.Context, req models.SolutionRequest) (*models.Solution, error) {
	id, desc, err := s.insertLookup(ctx, tableSolutions, req.Description, req.CategoryID)
	if err != nil {
		return nil, err
	}
	return &models.Solution{ID: id, Description: desc, CategoryID: req.CategoryID}, nil
}

func (s *Service) UpdateSolution(ctx context.Context, id int64, req models.SolutionRequest) (*models.Solution, error) {
	desc, err := s.updateLookup(ctx, tableSolutions, id, req.Description, req.CategoryID)
	if err != nil {
		return nil, err
	}
	return &models.Solution{ID: id, Description: desc, CategoryID: req.CategoryID}, nil
}

// SolutionsByCategory returns the descriptions of a category's solutions.
func (s *Service) SolutionsByCategory(ctx context.Context, categoryID int64) ([]string, error) {
	return s.descriptionsByCategory(ctx, tableSolutions, categoryID)
}

func (s *Service) SolutionsWithCategories(ctx context.Context) ([]models.SolutionWithCategory, error) {
	entries, err := s.listLookupWithCategories(ctx, tableSolutions)
	if err != nil {
		return nil, err
	}
	solutions := make([]models.SolutionWithCategory, len(entries))
	for i, e := range entries {
		solutions[i] = models.SolutionWithCategory{
			Solution:     models.Solution{ID: e.id, Description: e.description, CategoryID: e.categoryID},
			CategoryName: e.categoryName,
		}
	}
	return solutions, nil
}

type lookupEntry struct {
	id           int64
	description  string
	categoryID   int64
	categoryName string
}

// table is always one of the lookup table constants, never client input.
func (s *Service) listLookup(ctx context.Context, table string) ([]lookupEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, description, category_id FROM %s ORDER BY description", table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	entries := []lookupEntry{}
	for rows.Next() {
		var e lookupEntry
		if err := rows.Scan(&e.id, &e.description, &e.categoryID); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Service) listLookupWithCategories(ctx context.Context, table string) ([]lookupEntry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT t.id, t.description, t.category_id, c.name
		FROM %s AS t
		JOIN categories AS c ON t.category_id = c.id
		ORDER BY c.name, t.description`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s with categories: %w", table, err)
	}
	defer rows.Close()

	entries := []lookupEntry{}
	for rows.Next() {
		var e lookupEntry
		if err := rows.Scan(&e.id, &e.description, &e.categoryID, &e.categoryName); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Service) descriptionsByCategory(ctx context.Context, table string, categoryID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT description FROM %s WHERE category_id = ? ORDER BY description", table), categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s for category %d: %w", table, categoryID, err)
	}
	defer rows.Close()

	descriptions := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		descriptions = append(descriptions, d)
	}
	return descriptions, rows.Err()
}

func validateLookup(description string, categoryID int64) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" || categoryID <= 0 {
		return "", models.NewValidationError("description and category_id are required")
	}
	return description, nil
}

func (s *Service) insertLookup(ctx context.Context, table, description string, categoryID int64) (int64, string, error) {
	description, err := validateLookup(description, categoryID)
	if err != nil {
		return 0, "", err
	}
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (description, category_id) VALUES (?, ?)", table), description, categoryID)
	common.LogResult("insert "+table, result, err, true)
	if err != nil {
		return 0, "", mapWriteError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, "", fmt.Errorf("failed to read new %s id: %w", table, err)
	}
	return id, description, nil
}

func (s *Service) updateLookup(ctx context.Context, table string, id int64, description string, categoryID int64) (string, error) {
	description, err := validateLookup(description, categoryID)
	if err != nil {
		return "", err
	}
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET description = ?, category_id = ? WHERE id = ?", table), description, categoryID, id)
	if err := expectOneRow(result, mapWriteError(err), strings.TrimSuffix(table, "s"), id); err != nil {
		return "", err
	}
	return description, nil
}

// expectOneRow turns an exec outcome into NotFound when no row matched.
func expectOneRow(result sql.Result, err error, what string, id int64) error {
	if err != nil {
		if models.IsValidation(err) {
			return err
		}
		return fmt.Errorf("failed to write %s %d: %w", what, id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to write %s %d: %w", what, id, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	return nil
}
