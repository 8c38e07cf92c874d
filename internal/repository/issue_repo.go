package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library_management/internal/model"

	"github.com/jackc/pgx/v5"
)

// IssueRepository defines operations on the loan ledger
type IssueRepository interface {
	Create(ctx context.Context, issue *model.Issue) error
	FindByID(ctx context.Context, id int64) (*model.Issue, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*model.Issue, error)
	MarkReturned(ctx context.Context, id int64, returnDate time.Time, fine int64) (bool, error)
	FindAll(ctx context.Context) ([]model.Issue, error)
	FindByStudent(ctx context.Context, studentID int64) ([]model.Issue, error)
	FindOverdue(ctx context.Context, asOf time.Time) ([]model.Issue, error)
}

const issueColumns = `id, book_id, student_id, issue_date, due_date, return_date, status, fine, issued_by`

// issueDetailSelect joins the book and the student's public profile.
const issueDetailSelect = `SELECT
        i.id, i.book_id, i.student_id, i.issue_date, i.due_date, i.return_date, i.status, i.fine, i.issued_by,
        b.id, b.title, b.author, b.subject, b.semester, b.publication_year, b.image_url, b.available, b.added_by, b.created_at, b.updated_at,
        u.id, u.name, u.email, u.role, u.student_id, u.phone
    FROM issues i
    JOIN books b ON b.id = i.book_id
    JOIN users u ON u.id = i.student_id`

type issueRepository struct {
	db Querier
}

// NewIssueRepository creates a new IssueRepository
func NewIssueRepository(db Querier) IssueRepository {
	return &issueRepository{db: db}
}

func scanIssue(row pgx.Row) (*model.Issue, error) {
	i := &model.Issue{}
	var status string
	err := row.Scan(
		&i.ID, &i.BookID, &i.StudentID, &i.IssueDate, &i.DueDate,
		&i.ReturnDate, &status, &i.Fine, &i.IssuedBy,
	)
	if err != nil {
		return nil, err
	}
	i.Status = model.IssueStatus(status)
	return i, nil
}

func scanIssueDetail(row pgx.Row) (*model.Issue, error) {
	i := &model.Issue{}
	b := &model.Book{}
	s := &model.UserProfile{}
	var status, role string
	err := row.Scan(
		&i.ID, &i.BookID, &i.StudentID, &i.IssueDate, &i.DueDate, &i.ReturnDate, &status, &i.Fine, &i.IssuedBy,
		&b.ID, &b.Title, &b.Author, &b.Subject, &b.Semester, &b.PublicationYear, &b.ImageURL, &b.Available, &b.AddedBy, &b.CreatedAt, &b.UpdatedAt,
		&s.ID, &s.Name, &s.Email, &role, &s.StudentID, &s.Phone,
	)
	if err != nil {
		return nil, err
	}
	i.Status = model.IssueStatus(status)
	s.Role = model.Role(role)
	i.Book = b
	i.Student = s
	return i, nil
}

func collectIssueDetails(rows pgx.Rows) ([]model.Issue, error) {
	defer rows.Close()

	issues := []model.Issue{}
	for rows.Next() {
		i, err := scanIssueDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue row: %w", err)
		}
		issues = append(issues, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issue rows: %w", err)
	}
	return issues, nil
}

// Create records a new loan
func (r *issueRepository) Create(ctx context.Context, i *model.Issue) error {
	sql := `INSERT INTO issues (book_id, student_id, issue_date, due_date, status, fine, issued_by)
            VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRow(ctx, sql, i.BookID, i.StudentID, i.IssueDate, i.DueDate, string(i.Status), i.Fine, i.IssuedBy).Scan(&i.ID)
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", mapPgError(err))
	}
	return nil
}

// FindByID retrieves an issue by its ID
func (r *issueRepository) FindByID(ctx context.Context, id int64) (*model.Issue, error) {
	return r.findOne(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1`, id)
}

// FindByIDForUpdate retrieves an issue and locks its row for the surrounding
// transaction.
func (r *issueRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.Issue, error) {
	return r.findOne(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1 FOR UPDATE`, id)
}

func (r *issueRepository) findOne(ctx context.Context, sql string, id int64) (*model.Issue, error) {
	i, err := scanIssue(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find issue by ID: %w", err)
	}
	return i, nil
}

// MarkReturned closes an open loan. It reports false if the issue is missing
// or was already returned.
func (r *issueRepository) MarkReturned(ctx context.Context, id int64, returnDate time.Time, fine int64) (bool, error) {
	sql := `UPDATE issues SET status = 'returned', return_date = $2, fine = $3
            WHERE id = $1 AND status = 'issued'`
	cmdTag, err := r.db.Exec(ctx, sql, id, returnDate, fine)
	if err != nil {
		return false, fmt.Errorf("failed to mark issue returned: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// FindAll lists every loan, newest first
func (r *issueRepository) FindAll(ctx context.Context) ([]model.Issue, error) {
	rows, err := r.db.Query(ctx, issueDetailSelect+` ORDER BY i.issue_date DESC, i.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	return collectIssueDetails(rows)
}

// FindByStudent lists one student's loans, newest first
func (r *issueRepository) FindByStudent(ctx context.Context, studentID int64) ([]model.Issue, error) {
	rows, err := r.db.Query(ctx, issueDetailSelect+` WHERE i.student_id = $1 ORDER BY i.issue_date DESC, i.id DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues by student: %w", err)
	}
	return collectIssueDetails(rows)
}

// FindOverdue lists open loans whose due date is strictly before asOf
func (r *issueRepository) FindOverdue(ctx context.Context, asOf time.Time) ([]model.Issue, error) {
	rows, err := r.db.Query(ctx, issueDetailSelect+` WHERE i.status = 'issued' AND i.due_date < $1 ORDER BY i.due_date, i.id`, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue issues: %w", err)
	}
	return collectIssueDetails(rows)
}
