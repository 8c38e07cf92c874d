package model

import "time"

// IssueStatus is the stored lifecycle state of a loan.
type IssueStatus string

const (
	IssueStatusIssued   IssueStatus = "issued"
	IssueStatusReturned IssueStatus = "returned"
)

// Issue is a record of a book loaned to a student.
type Issue struct {
	ID         int64       `json:"id"`
	BookID     int         `json:"bookId"`
	StudentID  int64       `json:"studentId"`
	IssueDate  time.Time   `json:"issueDate"`
	DueDate    time.Time   `json:"dueDate"`
	ReturnDate *time.Time  `json:"returnDate"`
	Status     IssueStatus `json:"status"`
	Fine       int64       `json:"fine"`
	IssuedBy   *int64      `json:"issuedBy,omitempty"`

	// Populated on read paths.
	Book    *Book        `json:"book,omitempty"`
	Student *UserProfile `json:"student,omitempty"`
}

// CreateIssueRequest is the body of POST /api/issues. StudentID accepts
// either the internal user id or the external student id.
type CreateIssueRequest struct {
	BookID    int       `json:"bookId" binding:"required,gt=0,lte=2147483647"`
	StudentID string    `json:"studentId" binding:"required,notblank"`
	DueDate   time.Time `json:"dueDate" binding:"required"`
}

// SentReminder describes a delivered reminder.
type SentReminder struct {
	IssueID int64  `json:"issueId"`
	Student string `json:"student"`
	Book    string `json:"book"`
	Phone   string `json:"phone"`
}

// FailedReminder describes a reminder that could not be delivered.
type FailedReminder struct {
	IssueID int64  `json:"issueId"`
	Student string `json:"student"`
	Book    string `json:"book"`
	Reason  string `json:"reason"`
}

// ReminderReport aggregates one dispatch run.
type ReminderReport struct {
	Message         string           `json:"message,omitempty"`
	RemindersSent   []SentReminder   `json:"remindersSent"`
	FailedReminders []FailedReminder `json:"failedReminders"`
	TotalSent       int              `json:"totalSent"`
	TotalFailed     int              `json:"totalFailed"`
}
