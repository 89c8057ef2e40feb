package database

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"report-logger/models"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// ParseReportFilter reads dateFrom, dateTo, categories, issues and solutions
// from query. Id filters that are not positive integers are ignored; a date
// that cannot be parsed is a validation error.
func ParseReportFilter(query url.Values) (models.ReportFilter, error) {
	var f models.ReportFilter

	from, err := parseFilterDate("dateFrom", query.Get("dateFrom"))
	if err != nil {
		return f, err
	}
	to, err := parseFilterDate("dateTo", query.Get("dateTo"))
	if err != nil {
		return f, err
	}
	f.DateFrom = from
	f.DateTo = to
	f.CategoryID = parseFilterID(query.Get("categories"))
	f.IssueID = parseFilterID(query.Get("issues"))
	f.SolutionID = parseFilterID(query.Get("solutions"))
	return f, nil
}

// parseFilterDate accepts YYYY-MM-DD or an RFC3339 timestamp, keeping only the date.
func parseFilterDate(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if len(value) > len(dateLayout) {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			value = ts.Format(dateLayout)
		}
	}
	d, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return nil, models.NewValidationError("invalid %s %q, expected YYYY-MM-DD", name, value)
	}
	return &d, nil
}

func parseFilterID(value string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// BuildReportWhere returns the WHERE clause (with a leading space, or empty)
// and its arguments for f. All predicates are AND-combined; date bounds are
// inclusive and cover whole days.
func BuildReportWhere(f models.ReportFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if f.DateFrom != nil {
		y, m, d := f.DateFrom.Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, f.DateFrom.Location())
		conds = append(conds, "r.datetime >= ?")
		args = append(args, start.Format(dateTimeLayout))
	}
	if f.DateTo != nil {
		y, m, d := f.DateTo.Date()
		end := time.Date(y, m, d, 23, 59, 59, 0, f.DateTo.Location())
		conds = append(conds, "r.datetime <= ?")
		args = append(args, end.Format(dateTimeLayout))
	}
	if f.CategoryID != nil {
		conds = append(conds, "r.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.IssueID != nil {
		conds = append(conds, "r.issue_id = ?")
		args = append(args, *f.IssueID)
	}
	if f.SolutionID != nil {
		conds = append(conds, "r.solution_id = ?")
		args = append(args, *f.SolutionID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
