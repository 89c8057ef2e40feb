package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"report-logger/common"
	"report-logger/models"

	"github.com/apex/log"
)

const reportSelect = `SELECT
	r.id, r.category_id, r.issue_id, r.solution_id, r.datetime, r.notes,
	r.status, r.priority, r.escalate_name, r.pic_name1, r.pic_name2, r.pic_name3,
	c.name, i.description, s.description
	FROM reports AS r
	JOIN categories AS c ON r.category_id = c.id
	JOIN issues AS i ON r.issue_id = i.id
	JOIN solutions AS s ON r.solution_id = s.id`

const reportOrder = " ORDER BY r.datetime DESC, r.id DESC"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		r                models.Report
		notes, escalate  sql.NullString
		pic1, pic2, pic3 sql.NullString
	)
	if err := row.Scan(&r.ID, &r.CategoryID, &r.IssueID, &r.SolutionID, &r.Datetime, &notes,
		&r.Status, &r.Priority, &escalate, &pic1, &pic2, &pic3,
		&r.CategoryName, &r.IssueDescription, &r.SolutionDescription); err != nil {
		return nil, err
	}
	r.Notes = nullString(notes)
	r.EscalateName = nullString(escalate)
	r.PicName1 = nullString(pic1)
	r.PicName2 = nullString(pic2)
	r.PicName3 = nullString(pic3)
	return &r, nil
}

func (s *Service) queryReports(ctx context.Context, query string, args ...interface{}) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

// ListReports returns the joined reports matching f, most recent first.
func (s *Service) ListReports(ctx context.Context, f models.ReportFilter) ([]models.Report, error) {
	where, args := BuildReportWhere(f)
	return s.queryReports(ctx, reportSelect+where+reportOrder, args...)
}

// GetReport returns one joined report.
func (s *Service) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx, reportSelect+" WHERE r.id = ?", id)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read report %d: %w", id, err)
	}
	return r, nil
}

// GetReportsByIDs returns exactly the listed reports, most recent first.
// Unknown ids are skipped.
func (s *Service) GetReportsByIDs(ctx context.Context, ids []int64) ([]models.Report, error) {
	if len(ids) == 0 {
		return []models.Report{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.queryReports(ctx, reportSelect+" WHERE r.id IN ("+placeholders+")"+reportOrder, args...)
}

// validateImages runs the upload checks for every slot before anything is written.
func (s *Service) validateImages(files map[string]*multipart.FileHeader) error {
	for slot, fh := range files {
		if !models.IsPictureSlot(slot) {
			return models.NewValidationError("unknown picture slot %q", slot)
		}
		if fh == nil {
			continue
		}
		if err := s.images.Validate(fh); err != nil {
			return err
		}
	}
	return nil
}

// attachImages stores every supplied picture for reportID and returns the new
// path per slot plus the paths written, for cleanup on failure.
func (s *Service) attachImages(reportID int64, files map[string]*multipart.FileHeader, now time.Time) (map[string]string, []string, error) {
	paths := map[string]string{}
	var written []string
	for _, slot := range models.PictureSlots {
		fh := files[slot]
		if fh == nil {
			continue
		}
		path, err := s.images.SaveReportImage(reportID, slot, fh, now)
		if err != nil {
			return nil, written, fmt.Errorf("failed to store %s for report %d: %w", slot, reportID, err)
		}
		paths[slot] = path
		written = append(written, path)
	}
	return paths, written, nil
}

func (s *Service) removeAll(paths []string) {
	for _, p := range paths {
		s.images.Remove(p)
	}
}

// CreateReport inserts a report and its pictures in one transaction. The
// picture names embed the new id, so they are stored after the insert.
func (s *Service) CreateReport(ctx context.Context, req models.ReportRequest, files map[string]*multipart.FileHeader) (*models.Report, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateImages(files); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := dbTime(s.now())
	result, err := tx.ExecContext(ctx, `INSERT INTO reports
		(category_id, issue_id, solution_id, datetime, notes, status, priority, escalate_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		*req.CategoryID, *req.IssueID, *req.SolutionID, now,
		stringOrNil(req.Notes), req.Status, req.Priority, stringOrNil(req.EscalateName))
	common.LogResult("CreateReport", result, err, true)
	if err != nil {
		return nil, mapWriteError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new report id: %w", err)
	}

	var written []string
	if len(files) > 0 {
		var paths map[string]string
		paths, written, err = s.attachImages(id, files, now)
		if err != nil {
			s.removeAll(written)
			return nil, err
		}
		result, err = tx.ExecContext(ctx,
			`UPDATE reports SET pic_name1 = ?, pic_name2 = ?, pic_name3 = ? WHERE id = ?`,
			pathOrNil(paths, "pic_name1"), pathOrNil(paths, "pic_name2"), pathOrNil(paths, "pic_name3"), id)
		common.LogResult("CreateReport pictures", result, err, true)
		if err != nil {
			s.removeAll(written)
			return nil, fmt.Errorf("failed to store picture paths: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.removeAll(written)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Infof("Report %d created with %d picture(s)", id, len(written))
	return s.GetReport(ctx, id)
}

// UpdateReport rewrites a report's fields. Slots with a new upload get the new
// picture; the others keep their stored path.
func (s *Service) UpdateReport(ctx context.Context, id int64, req models.ReportRequest, files map[string]*multipart.FileHeader) (*models.Report, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateImages(files); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current models.Report
	err = tx.QueryRowContext(ctx,
		`SELECT pic_name1, pic_name2, pic_name3 FROM reports WHERE id = ? FOR UPDATE`, id).
		Scan(&current.PicName1, &current.PicName2, &current.PicName3)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read report %d: %w", id, err)
	}

	// A same-day re-upload overwrites the stored file in place; that file
	// must survive a failed update.
	stored := map[string]bool{}
	for _, slot := range models.PictureSlots {
		if p := current.Picture(slot); p != nil {
			stored[*p] = true
		}
	}
	cleanup := func(written []string) {
		for _, p := range written {
			if !stored[p] {
				s.images.Remove(p)
			}
		}
	}

	paths, written, err := s.attachImages(id, files, dbTime(s.now()))
	if err != nil {
		cleanup(written)
		return nil, err
	}

	merged := current
	var replaced []string
	for _, slot := range models.PictureSlots {
		p, ok := paths[slot]
		if !ok {
			continue
		}
		if old := current.Picture(slot); old != nil && *old != p {
			replaced = append(replaced, *old)
		}
		merged.SetPicture(slot, &p)
	}

	result, err := tx.ExecContext(ctx, `UPDATE reports SET
		category_id = ?, issue_id = ?, solution_id = ?, notes = ?, status = ?, priority = ?,
		escalate_name = ?, pic_name1 = ?, pic_name2 = ?, pic_name3 = ?
		WHERE id = ?`,
		*req.CategoryID, *req.IssueID, *req.SolutionID, stringOrNil(req.Notes), req.Status, req.Priority,
		stringOrNil(req.EscalateName), stringOrNil(merged.PicName1), stringOrNil(merged.PicName2), stringOrNil(merged.PicName3), id)
	common.LogResult("UpdateReport", result, err, true)
	if err != nil {
		cleanup(written)
		return nil, mapWriteError(err)
	}

	if err := tx.Commit(); err != nil {
		cleanup(written)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.removeAll(replaced)
	return s.GetReport(ctx, id)
}

// DeletePicture clears one picture slot. expectedPath must equal the stored
// value, so a client working from a stale copy cannot clear a newer picture.
func (s *Service) DeletePicture(ctx context.Context, id int64, slot, expectedPath string) (*models.Report, error) {
	if !models.IsPictureSlot(slot) {
		return nil, models.NewValidationError("unknown picture slot %q", slot)
	}

	var current sql.NullString
	// slot is one of the fixed column names checked above.
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM reports WHERE id = ?", slot), id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read report %d: %w", id, err)
	}
	if !current.Valid || current.String != expectedPath {
		return nil, models.NewValidationError("picture path does not match the stored %s", slot)
	}

	// The path is compared again so an update landing after the read keeps
	// its picture.
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE reports SET %[1]s = NULL WHERE id = ? AND %[1]s = ?", slot), id, expectedPath)
	common.LogResult("DeletePicture", result, err, true)
	if err != nil {
		return nil, fmt.Errorf("failed to clear %s of report %d: %w", slot, id, err)
	}
	cleared, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to clear %s of report %d: %w", slot, id, err)
	}
	if cleared == 0 {
		return nil, models.NewValidationError("picture path does not match the stored %s", slot)
	}

	s.images.Remove(current.String)
	return s.GetReport(ctx, id)
}

// DeleteReport removes a report and, best-effort, its picture files.
func (s *Service) DeleteReport(ctx context.Context, id int64) error {
	var pics [3]sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT pic_name1, pic_name2, pic_name3 FROM reports WHERE id = ?`, id).
		Scan(&pics[0], &pics[1], &pics[2])
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("report %d: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("failed to read report %d: %w", id, err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete report %d: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("report %d: %w", id, models.ErrNotFound)
	}

	for _, p := range pics {
		if p.Valid {
			s.images.Remove(p.String)
		}
	}
	return nil
}

func pathOrNil(paths map[string]string, slot string) interface{} {
	if p, ok := paths[slot]; ok {
		return p
	}
	return nil
}
