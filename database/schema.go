package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/apex/log"
)

// Schema contains the database schema
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id INT AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(128) NOT NULL,
    pass VARCHAR(255) NOT NULL,
    UNIQUE KEY unique_user_name (name)
)`,
	`CREATE TABLE IF NOT EXISTS messages (
    id INT AUTO_INCREMENT PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    content TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    INDEX idx_messages_created (created_at)
)`,
	`CREATE TABLE IF NOT EXISTS categories (
    id INT AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(255) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS issues (
    id INT AUTO_INCREMENT PRIMARY KEY,
    description VARCHAR(512) NOT NULL,
    category_id INT NOT NULL,
    FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE RESTRICT,
    INDEX idx_issues_category (category_id)
)`,
	`CREATE TABLE IF NOT EXISTS solutions (
    id INT AUTO_INCREMENT PRIMARY KEY,
    description VARCHAR(512) NOT NULL,
    category_id INT NOT NULL,
    FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE RESTRICT,
    INDEX idx_solutions_category (category_id)
)`,
	`CREATE TABLE IF NOT EXISTS reports (
    id INT AUTO_INCREMENT PRIMARY KEY,
    category_id INT NOT NULL,
    issue_id INT NOT NULL,
    solution_id INT NOT NULL,
    datetime DATETIME NOT NULL,
    notes TEXT,
    status ENUM('in_progress', 'done', 'escalate') NOT NULL DEFAULT 'in_progress',
    priority ENUM('pendant', 'high', 'low') NOT NULL DEFAULT 'pendant',
    escalate_name VARCHAR(255),
    pic_name1 VARCHAR(512),
    pic_name2 VARCHAR(512),
    pic_name3 VARCHAR(512),
    FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE RESTRICT,
    FOREIGN KEY (issue_id) REFERENCES issues(id) ON DELETE RESTRICT,
    FOREIGN KEY (solution_id) REFERENCES solutions(id) ON DELETE RESTRICT,
    INDEX idx_reports_datetime (datetime)
)`,
}

// InitializeSchema creates all tables that do not exist yet and runs migrations.
func InitializeSchema(ctx context.Context, db *sql.DB) error {
	log.Info("Initializing database schema...")
	for _, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", tableName(stmt), err)
		}
	}
	if err := RunMigrations(ctx, db); err != nil {
		return err
	}
	log.Info("Database schema initialized")
	return nil
}

// RunMigrations brings tables created by older versions up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := runMigration001(ctx, db); err != nil {
		return fmt.Errorf("migration 001 failed: %w", err)
	}
	return nil
}

// runMigration001 adds the status, priority, escalation and picture columns to
// report tables from before they were introduced.
func runMigration001(ctx context.Context, db *sql.DB) error {
	columns := []struct {
		name string
		ddl  string
	}{
		{"status", "ENUM('in_progress', 'done', 'escalate') NOT NULL DEFAULT 'in_progress'"},
		{"priority", "ENUM('pendant', 'high', 'low') NOT NULL DEFAULT 'pendant'"},
		{"escalate_name", "VARCHAR(255)"},
		{"pic_name1", "VARCHAR(512)"},
		{"pic_name2", "VARCHAR(512)"},
		{"pic_name3", "VARCHAR(512)"},
	}

	for _, col := range columns {
		var count int
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM information_schema.COLUMNS
			WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = 'reports' AND COLUMN_NAME = ?`,
			col.name).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to inspect column %s: %w", col.name, err)
		}
		if count > 0 {
			continue
		}
		log.Infof("Migration 001: adding reports.%s", col.name)
		if _, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE reports ADD COLUMN %s %s", col.name, col.ddl)); err != nil {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
	}
	return nil
}

func tableName(stmt string) string {
	fields := strings.Fields(stmt)
	for i, f := range fields {
		if strings.EqualFold(f, "EXISTS") && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return "?"
}
