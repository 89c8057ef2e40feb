package models

import "strings"

// Normalize fills defaults for status and priority and drops the escalation
// target unless the report is escalated.
func (r *ReportRequest) Normalize() {
	r.Status = strings.TrimSpace(r.Status)
	r.Priority = strings.TrimSpace(r.Priority)
	if r.Status == "" {
		r.Status = StatusInProgress
	}
	if r.Priority == "" {
		r.Priority = PriorityPendant
	}
	if r.Notes != nil && strings.TrimSpace(*r.Notes) == "" {
		r.Notes = nil
	}
	if r.EscalateName != nil {
		name := strings.TrimSpace(*r.EscalateName)
		if name == "" || r.Status != StatusEscalate {
			r.EscalateName = nil
		} else {
			r.EscalateName = &name
		}
	}
}

// Validate checks the required references and enum values. Call Normalize first.
func (r *ReportRequest) Validate() error {
	if r.CategoryID == nil || r.IssueID == nil || r.SolutionID == nil ||
		*r.CategoryID <= 0 || *r.IssueID <= 0 || *r.SolutionID <= 0 {
		return NewValidationError("category_id, issue_id and solution_id are required")
	}
	switch r.Status {
	case StatusInProgress, StatusDone, StatusEscalate:
	default:
		return NewValidationError("invalid status %q", r.Status)
	}
	switch r.Priority {
	case PriorityPendant, PriorityHigh, PriorityLow:
	default:
		return NewValidationError("invalid priority %q", r.Priority)
	}
	if r.Notes != nil && len([]rune(*r.Notes)) > MaxNotesLength {
		return NewValidationError("notes must be at most %d characters", MaxNotesLength)
	}
	return nil
}
