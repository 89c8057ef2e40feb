package database

import (
	"context"
	"database/sql"
	"errors"
	"mime/multipart"
	"time"

	"report-logger/models"

	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers for foreign key violations.
const (
	errNoReferencedRow = 1452
	errRowIsReferenced = 1451
)

// ImageStore persists report pictures. Validate must not touch the filesystem
// so that rejected uploads leave no trace.
type ImageStore interface {
	Validate(file *multipart.FileHeader) error
	SaveReportImage(reportID int64, slot string, file *multipart.FileHeader, now time.Time) (string, error)
	Remove(path string)
}

// Service handles all report logger database operations
type Service struct {
	db     *sql.DB
	images ImageStore
	now    func() time.Time
}

// NewService creates a new service instance
func NewService(db *sql.DB, images ImageStore) *Service {
	return &Service{
		db:     db,
		images: images,
		now:    time.Now,
	}
}

// Ping checks that the pool can reach the database.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapWriteError turns foreign key violations into validation errors.
func mapWriteError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errNoReferencedRow:
			return models.NewValidationError("referenced category, issue or solution does not exist")
		case errRowIsReferenced:
			return models.NewValidationError("row is still referenced by other records")
		}
	}
	return err
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func stringOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// dbTime drops sub-second precision to match DATETIME columns.
func dbTime(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
