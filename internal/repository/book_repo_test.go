package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"library_management/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookCols = []string{"id", "title", "author", "subject", "semester", "publication_year", "image_url", "available", "added_by", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestBookRepository_FindByID(t *testing.T) {
	mock := newMock(t)
	repo := NewBookRepository(mock)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM books WHERE id = $1`)).
		WithArgs(7).
		WillReturnRows(pgxmock.NewRows(bookCols).
			AddRow(7, "Java: The Complete Reference", "Herbert Schildt", "Programming", 2, 2018, (*string)(nil), true, (*int64)(nil), now, now))

	book, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, 7, book.ID)
	assert.Equal(t, "Programming", book.Subject)
	assert.True(t, book.Available)
	assert.Nil(t, book.ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_FindByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewBookRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM books WHERE id = $1`)).
		WithArgs(99).
		WillReturnError(pgx.ErrNoRows)

	book, err := repo.FindByID(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, book)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Search(t *testing.T) {
	mock := newMock(t)
	repo := NewBookRepository(mock)
	now := time.Now()

	subject := "programming"
	title := "100%_done"
	semester := 2

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE title ILIKE $1 AND subject ILIKE $2 AND semester = $3 ORDER BY id`)).
		WithArgs(`%100\%\_done%`, "%programming%", 2).
		WillReturnRows(pgxmock.NewRows(bookCols).
			AddRow(16, "Python Crash Course", "Eric Matthes", "Programming", 2, 2019, (*string)(nil), true, (*int64)(nil), now, now))

	books, err := repo.Search(context.Background(), model.BookFilters{
		Title:    &title,
		Subject:  &subject,
		Semester: &semester,
	})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 16, books[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Search_NoFilters(t *testing.T) {
	mock := newMock(t)
	repo := NewBookRepository(mock)

	mock.ExpectQuery(`FROM books ORDER BY id$`).
		WillReturnRows(pgxmock.NewRows(bookCols))

	books, err := repo.Search(context.Background(), model.BookFilters{})
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.NotNil(t, books)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Create_Duplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewBookRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO books`)).
		WithArgs(1, "Clean Code", "Robert C. Martin", "Software Engineering", 5, 2008, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "books_pkey"})

	err := repo.Create(context.Background(), &model.Book{
		ID: 1, Title: "Clean Code", Author: "Robert C. Martin", Subject: "Software Engineering",
		Semester: 5, PublicationYear: 2008,
	})
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_SetAvailable(t *testing.T) {
	mock := newMock(t)
	repo := NewBookRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET available = $2 WHERE id = $1 AND available <> $2`)).
		WithArgs(3, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET available = $2`)).
		WithArgs(3, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	changed, err := repo.SetAvailable(context.Background(), 3, false)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.SetAvailable(context.Background(), 3, false)
	require.NoError(t, err)
	assert.False(t, changed, "second flip to the same state must not report a change")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Delete_Referenced(t *testing.T) {
	mock := newMock(t)
	repo := NewBookRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs(4).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "issues_book_id_fkey"})

	_, err := repo.Delete(context.Background(), 4)
	assert.ErrorIs(t, err, ErrReferenced)
	assert.NoError(t, mock.ExpectationsWereMet())
}
