package models

import "time"

// Report status values.
const (
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusEscalate   = "escalate"
)

// Report priority values.
const (
	PriorityPendant = "pendant"
	PriorityHigh    = "high"
	PriorityLow     = "low"
)

// MaxNotesLength is the longest notes text a report accepts.
const MaxNotesLength = 1000

// PictureSlots lists the report image columns in order.
var PictureSlots = []string{"pic_name1", "pic_name2", "pic_name3"}

// IsPictureSlot reports whether slot names one of the report image columns.
func IsPictureSlot(slot string) bool {
	for _, s := range PictureSlots {
		if s == slot {
			return true
		}
	}
	return false
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Issue struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	CategoryID  int64  `json:"category_id"`
}

type IssueWithCategory struct {
	Issue
	CategoryName string `json:"category_name"`
}

// Solution keeps the "desc" wire name used by existing clients.
type Solution struct {
	ID          int64  `json:"id"`
	Description string `json:"desc"`
	CategoryID  int64  `json:"category_id"`
}

type SolutionWithCategory struct {
	Solution
	CategoryName string `json:"category_name"`
}

// Report is a report row joined with its lookup labels.
type Report struct {
	ID                  int64     `json:"id"`
	CategoryID          int64     `json:"category_id"`
	IssueID             int64     `json:"issue_id"`
	SolutionID          int64     `json:"solution_id"`
	Datetime            time.Time `json:"datetime"`
	Notes               *string   `json:"notes"`
	Status              string    `json:"status"`
	Priority            string    `json:"priority"`
	EscalateName        *string   `json:"escalate_name"`
	PicName1            *string   `json:"pic_name1"`
	PicName2            *string   `json:"pic_name2"`
	PicName3            *string   `json:"pic_name3"`
	CategoryName        string    `json:"category_name"`
	IssueDescription    string    `json:"issue_description"`
	SolutionDescription string    `json:"solution_description"`
}

// Picture returns the stored path of slot, or nil.
func (r *Report) Picture(slot string) *string {
	switch slot {
	case "pic_name1":
		return r.PicName1
	case "pic_name2":
		return r.PicName2
	case "pic_name3":
		return r.PicName3
	}
	return nil
}

// SetPicture stores path into slot.
func (r *Report) SetPicture(slot string, path *string) {
	switch slot {
	case "pic_name1":
		r.PicName1 = path
	case "pic_name2":
		r.PicName2 = path
	case "pic_name3":
		r.PicName3 = path
	}
}

// ReportRequest carries the writable report fields for create and update.
// Ids are pointers so a missing field can be told apart from zero.
type ReportRequest struct {
	CategoryID   *int64  `json:"category_id" form:"category_id"`
	IssueID      *int64  `json:"issue_id" form:"issue_id"`
	SolutionID   *int64  `json:"solution_id" form:"solution_id"`
	Notes        *string `json:"notes" form:"notes"`
	Status       string  `json:"status" form:"status"`
	Priority     string  `json:"priority" form:"priority"`
	EscalateName *string `json:"escalate_name" form:"escalate_name"`
}

// ReportFilter holds the optional report list filters. Nil means unset.
type ReportFilter struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	CategoryID *int64
	IssueID    *int64
	SolutionID *int64
}

type Message struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessageRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}

type IssueRequest struct {
	Description string `json:"description"`
	CategoryID  int64  `json:"category_id"`
}

type SolutionRequest struct {
	Description string `json:"desc"`
	CategoryID  int64  `json:"category_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type ExportRequest struct {
	ReportIDs []int64 `json:"reportIds"`
}

// StoredFile describes one file in the upload directory.
type StoredFile struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	HumanSize  string    `json:"human_size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type FileSizesResponse struct {
	Files      []StoredFile `json:"files"`
	Total      int64        `json:"total"`
	TotalHuman string       `json:"total_human"`
}

type UploadResponse struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ReportEvent is published on report lifecycle changes.
type ReportEvent struct {
	Type     string    `json:"type"`
	ReportID int64     `json:"report_id"`
	At       time.Time `json:"at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
