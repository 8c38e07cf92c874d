package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"library_management/internal/model"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issueDetailCols = []string{
	"id", "book_id", "student_id", "issue_date", "due_date", "return_date", "status", "fine", "issued_by",
	"b_id", "title", "author", "subject", "semester", "publication_year", "image_url", "available", "added_by", "created_at", "updated_at",
	"u_id", "name", "email", "role", "u_student_id", "phone",
}

func TestIssueRepository_FindOverdue(t *testing.T) {
	mock := newMock(t)
	repo := NewIssueRepository(mock)

	asOf := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	due := asOf.Add(-72 * time.Hour)
	issued := due.Add(-7 * 24 * time.Hour)
	phone := "+15551234567"
	adminID := int64(1)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE i.status = 'issued' AND i.due_date < $1`)).
		WithArgs(asOf).
		WillReturnRows(pgxmock.NewRows(issueDetailCols).AddRow(
			int64(11), 3, int64(5), issued, due, (*time.Time)(nil), "issued", int64(0), &adminID,
			3, "Operating System Concepts", "Abraham Silberschatz", "Operating Systems", 4, 2012, (*string)(nil), false, (*int64)(nil), issued, issued,
			int64(5), "Asha", "asha@example.com", "user", (*string)(nil), &phone,
		))

	issues, err := repo.FindOverdue(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	got := issues[0]
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, model.IssueStatusIssued, got.Status)
	require.NotNil(t, got.Book)
	assert.Equal(t, "Operating System Concepts", got.Book.Title)
	require.NotNil(t, got.Student)
	assert.Equal(t, model.RoleUser, got.Student.Role)
	assert.Equal(t, phone, *got.Student.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueRepository_MarkReturned(t *testing.T) {
	mock := newMock(t)
	repo := NewIssueRepository(mock)
	returned := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE issues SET status = 'returned', return_date = $2, fine = $3`)).
		WithArgs(int64(8), returned, int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND status = 'issued'`)).
		WithArgs(int64(8), returned, int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.MarkReturned(context.Background(), 8, returned, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkReturned(context.Background(), 8, returned, 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewIssueRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO issues`)).
		WithArgs(1, int64(5), now, now.Add(7*24*time.Hour), "issued", int64(0), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	issue := &model.Issue{
		BookID: 1, StudentID: 5, IssueDate: now, DueDate: now.Add(7 * 24 * time.Hour),
		Status: model.IssueStatusIssued,
	}
	require.NoError(t, repo.Create(context.Background(), issue))
	assert.Equal(t, int64(42), issue.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_Commit(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET available = $2`)).
		WithArgs(1, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(repos Repositories) error {
		_, err := repos.Books.SetAvailable(context.Background(), 1, false)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_RollbackOnError(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)
	boom := errors.New("insert failed")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET available = $2`)).
		WithArgs(1, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(repos Repositories) error {
		if _, err := repos.Books.SetAvailable(context.Background(), 1, false); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_RollbackOnPanic(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET available = $2`)).
		WithArgs(1, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "handler bug", func() {
		_ = store.WithTx(context.Background(), func(repos Repositories) error {
			_, _ = repos.Books.SetAvailable(context.Background(), 1, false)
			panic("handler bug")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
