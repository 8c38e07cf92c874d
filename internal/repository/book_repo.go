package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"library_management/internal/model"

	"github.com/jackc/pgx/v5"
)

// BookRepository defines operations for catalog data
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	Upsert(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id int) (*model.Book, error)
	FindByIDForUpdate(ctx context.Context, id int) (*model.Book, error)
	FindAll(ctx context.Context) ([]model.Book, error)
	Search(ctx context.Context, filters model.BookFilters) ([]model.Book, error)
	Update(ctx context.Context, book *model.Book) error
	SetAvailable(ctx context.Context, id int, available bool) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
}

const bookColumns = `id, title, author, subject, semester, publication_year, image_url, available, added_by, created_at, updated_at`

type bookRepository struct {
	db Querier
}

// NewBookRepository creates a new BookRepository
func NewBookRepository(db Querier) BookRepository {
	return &bookRepository{db: db}
}

func scanBook(row pgx.Row) (*model.Book, error) {
	b := &model.Book{}
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Subject, &b.Semester, &b.PublicationYear,
		&b.ImageURL, &b.Available, &b.AddedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func collectBooks(rows pgx.Rows) ([]model.Book, error) {
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book rows: %w", err)
	}
	return books, nil
}

// Create inserts a new book into the catalog
func (r *bookRepository) Create(ctx context.Context, b *model.Book) error {
	sql := `INSERT INTO books (id, title, author, subject, semester, publication_year, image_url, available, added_by)
            VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8) RETURNING available, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, b.ID, b.Title, b.Author, b.Subject, b.Semester, b.PublicationYear, b.ImageURL, b.AddedBy).
		Scan(&b.Available, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", mapPgError(err))
	}
	return nil
}

// Upsert inserts a book or refreshes its descriptive fields, leaving
// availability untouched.
func (r *bookRepository) Upsert(ctx context.Context, b *model.Book) error {
	sql := `INSERT INTO books (id, title, author, subject, semester, publication_year, image_url, available, added_by)
            VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
            ON CONFLICT (id) DO UPDATE SET
                title = EXCLUDED.title,
                author = EXCLUDED.author,
                subject = EXCLUDED.subject,
                semester = EXCLUDED.semester,
                publication_year = EXCLUDED.publication_year,
                image_url = EXCLUDED.image_url
            RETURNING available, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, b.ID, b.Title, b.Author, b.Subject, b.Semester, b.PublicationYear, b.ImageURL, b.AddedBy).
		Scan(&b.Available, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert book %d: %w", b.ID, mapPgError(err))
	}
	return nil
}

// FindByID retrieves a book by its catalog id
func (r *bookRepository) FindByID(ctx context.Context, id int) (*model.Book, error) {
	return r.findOne(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
}

// FindByIDForUpdate retrieves a book and locks its row until the surrounding
// transaction ends.
func (r *bookRepository) FindByIDForUpdate(ctx context.Context, id int) (*model.Book, error) {
	return r.findOne(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, id)
}

func (r *bookRepository) findOne(ctx context.Context, sql string, id int) (*model.Book, error) {
	b, err := scanBook(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find book by ID: %w", err)
	}
	return b, nil
}

// FindAll lists the catalog ordered by catalog id
func (r *bookRepository) FindAll(ctx context.Context) ([]model.Book, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	return collectBooks(rows)
}

// Search filters the catalog. Text filters are case-insensitive substring
// matches; semester is exact.
func (r *bookRepository) Search(ctx context.Context, filters model.BookFilters) ([]model.Book, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + bookColumns + ` FROM books`)

	args := []interface{}{}
	argCount := 1
	var conditions []string

	if filters.Title != nil && *filters.Title != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argCount))
		args = append(args, containsPattern(*filters.Title))
		argCount++
	}
	if filters.Author != nil && *filters.Author != "" {
		conditions = append(conditions, fmt.Sprintf("author ILIKE $%d", argCount))
		args = append(args, containsPattern(*filters.Author))
		argCount++
	}
	if filters.Subject != nil && *filters.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject ILIKE $%d", argCount))
		args = append(args, containsPattern(*filters.Subject))
		argCount++
	}
	if filters.Semester != nil {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", argCount))
		args = append(args, *filters.Semester)
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY id")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	return collectBooks(rows)
}

// Update writes the descriptive fields of a book
func (r *bookRepository) Update(ctx context.Context, b *model.Book) error {
	sql := `UPDATE books
            SET title = $1, author = $2, subject = $3, semester = $4, publication_year = $5, image_url = $6
            WHERE id = $7 RETURNING available, updated_at`
	err := r.db.QueryRow(ctx, sql, b.Title, b.Author, b.Subject, b.Semester, b.PublicationYear, b.ImageURL, b.ID).
		Scan(&b.Available, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("book %d not found for update", b.ID)
		}
		return fmt.Errorf("failed to update book: %w", err)
	}
	return nil
}

// SetAvailable flips the availability flag. It reports false when the book
// is missing or already in the requested state, so concurrent flips cannot
// both succeed.
func (r *bookRepository) SetAvailable(ctx context.Context, id int, available bool) (bool, error) {
	sql := `UPDATE books SET available = $2 WHERE id = $1 AND available <> $2`
	cmdTag, err := r.db.Exec(ctx, sql, id, available)
	if err != nil {
		return false, fmt.Errorf("failed to update book availability: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// Delete removes a book from the catalog, reporting whether a row existed
func (r *bookRepository) Delete(ctx context.Context, id int) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete book: %w", mapPgError(err))
	}
	return cmdTag.RowsAffected() > 0, nil
}
