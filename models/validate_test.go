package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrInt(v int64) *int64   { return &v }
func ptrStr(v string) *string { return &v }

func TestReportRequestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		req     ReportRequest
		wantErr bool
	}{
		{
			name: "All required ids with defaults",
			req:  ReportRequest{CategoryID: ptrInt(1), IssueID: ptrInt(2), SolutionID: ptrInt(3)},
		},
		{
			name:    "Missing category",
			req:     ReportRequest{IssueID: ptrInt(2), SolutionID: ptrInt(3)},
			wantErr: true,
		},
		{
			name:    "Missing issue",
			req:     ReportRequest{CategoryID: ptrInt(1), SolutionID: ptrInt(3)},
			wantErr: true,
		},
		{
			name:    "Missing solution",
			req:     ReportRequest{CategoryID: ptrInt(1), IssueID: ptrInt(2)},
			wantErr: true,
		},
		{
			name:    "Zero id",
			req:     ReportRequest{CategoryID: ptrInt(0), IssueID: ptrInt(2), SolutionID: ptrInt(3)},
			wantErr: true,
		},
		{
			name:    "Unknown status",
			req:     ReportRequest{CategoryID: ptrInt(1), IssueID: ptrInt(2), SolutionID: ptrInt(3), Status: "closed"},
			wantErr: true,
		},
		{
			name:    "Unknown priority",
			req:     ReportRequest{CategoryID: ptrInt(1), IssueID: ptrInt(2), SolutionID: ptrInt(3), Priority: "urgent"},
			wantErr: true,
		},
		{
			name: "Notes too long",
			req: ReportRequest{CategoryID: ptrInt(1), IssueID: ptrInt(2), SolutionID: ptrInt(3),
				Notes: ptrStr(strings.Repeat("x", MaxNotesLength+1))},
			wantErr: true,
		},
		{
			name: "Notes at the limit",
			req: ReportRequest{CategoryID: ptrInt(1), IssueID: ptrInt(2), SolutionID: ptrInt(3),
				Notes: ptrStr(strings.Repeat("é", MaxNotesLength))},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Normalize()
			err := tc.req.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReportRequestNormalize(t *testing.T) {
	req := ReportRequest{EscalateName: ptrStr("  Alice ")}
	req.Normalize()
	assert.Equal(t, StatusInProgress, req.Status)
	assert.Equal(t, PriorityPendant, req.Priority)
	assert.Nil(t, req.EscalateName, "escalation target is dropped unless escalated")

	req = ReportRequest{Status: StatusEscalate, EscalateName: ptrStr("  Alice "), Notes: ptrStr("   ")}
	req.Normalize()
	require.NotNil(t, req.EscalateName)
	assert.Equal(t, "Alice", *req.EscalateName)
	assert.Nil(t, req.Notes)
}

func TestPictureSlots(t *testing.T) {
	assert.True(t, IsPictureSlot("pic_name2"))
	assert.False(t, IsPictureSlot("pic_name4"))

	r := &Report{}
	r.SetPicture("pic_name3", ptrStr("/uploads/a.jpg"))
	require.NotNil(t, r.Picture("pic_name3"))
	assert.Equal(t, "/uploads/a.jpg", *r.Picture("pic_name3"))
	assert.Nil(t, r.Picture("pic_name1"))
}

func TestValidationErrorWrapping(t *testing.T) {
	err := NewValidationError("bad %s", "input")
	wrapped := errors.Join(errors.New("context"), err)
	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, "bad input", err.Error())
	assert.False(t, IsValidation(ErrNotFound))
}
