package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"library_management/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "name", "email", "password_hash", "role", "student_id", "phone", "created_at", "updated_at"}

func TestUserRepository_FindByIdentifier(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()
	studentID := "CS-2021-042"

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE student_id = $1`)).
		WithArgs(studentID).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(5), "Asha", "asha@example.com", "hash", "user", &studentID, (*string)(nil), now, now))

	user, err := repo.FindByIdentifier(context.Background(), studentID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, studentID, *user.StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByIdentifier_NumericPrefersInternalID(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 OR student_id = $2`)).
		WithArgs(int64(7), "7").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(7), "Ravi", "ravi@example.com", "hash", "user", (*string)(nil), (*string)(nil), now, now))

	user, err := repo.FindByIdentifier(context.Background(), "7")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)

	// Leading zeros are not a canonical id, so only student ids are searched.
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE student_id = $1`)).
		WithArgs("007").
		WillReturnError(pgx.ErrNoRows)

	user, err = repo.FindByIdentifier(context.Background(), "007")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("missing@example.com").
		WillReturnError(pgx.ErrNoRows)

	user, err := repo.FindByEmail(context.Background(), "missing@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByRole(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE role = $1 ORDER BY id`)).
		WithArgs("user").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(2), "Ravi", "ravi@example.com", "hash", "user", (*string)(nil), (*string)(nil), now, now).
			AddRow(int64(3), "Meera", "meera@example.com", "hash", "user", (*string)(nil), (*string)(nil), now, now))

	users, err := repo.FindByRole(context.Background(), model.RoleUser)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
