package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"library_management/internal/model"
	"library_management/internal/repository"
)

// BookService manages the catalog
type BookService interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int) (*model.Book, error)
	SearchBooks(ctx context.Context, filters model.BookFilters) ([]model.Book, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest, addedBy int64) (*model.Book, error)
	UpdateBook(ctx context.Context, id int, req model.UpdateBookRequest) (*model.Book, error)
	DeleteBook(ctx context.Context, id int) error
	SeedBooks(ctx context.Context) (int, error)
}

type bookService struct {
	store repository.Store
}

// NewBookService creates a new BookService
func NewBookService(store repository.Store) BookService {
	return &bookService{store: store}
}

func (s *bookService) ListBooks(ctx context.Context) ([]model.Book, error) {
	books, err := s.store.Repos().Books.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

func (s *bookService) GetBook(ctx context.Context, id int) (*model.Book, error) {
	book, err := s.store.Repos().Books.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}

func (s *bookService) SearchBooks(ctx context.Context, filters model.BookFilters) ([]model.Book, error) {
	books, err := s.store.Repos().Books.Search(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	return books, nil
}

func (s *bookService) CreateBook(ctx context.Context, req model.CreateBookRequest, addedBy int64) (*model.Book, error) {
	repo := s.store.Repos().Books
	existing, err := repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing book: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateBook
	}

	book := &model.Book{
		ID:              req.ID,
		Title:           strings.TrimSpace(req.Title),
		Author:          strings.TrimSpace(req.Author),
		Subject:         strings.TrimSpace(req.Subject),
		Semester:        req.Semester,
		PublicationYear: req.PublicationYear,
		ImageURL:        optional(req.ImageURL),
		AddedBy:         &addedBy,
	}
	if err := repo.Create(ctx, book); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateBook
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}

// UpdateBook applies the fields present in req. Availability is left to the
// issue ledger.
func (s *bookService) UpdateBook(ctx context.Context, id int, req model.UpdateBookRequest) (*model.Book, error) {
	repo := s.store.Repos().Books
	book, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find book for update: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	if req.Title != nil {
		book.Title = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil {
		book.Author = strings.TrimSpace(*req.Author)
	}
	if req.Subject != nil {
		book.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Semester != nil {
		book.Semester = *req.Semester
	}
	if req.PublicationYear != nil {
		book.PublicationYear = *req.PublicationYear
	}
	if req.ImageURL != nil {
		book.ImageURL = optional(req.ImageURL)
	}

	if err := repo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return book, nil
}

func (s *bookService) DeleteBook(ctx context.Context, id int) error {
	deleted, err := s.store.Repos().Books.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return ErrBookReferenced
		}
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if !deleted {
		return ErrBookNotFound
	}
	return nil
}

// SeedBooks upserts the sample catalog. Availability of existing rows is
// kept so open loans stay consistent.
func (s *bookService) SeedBooks(ctx context.Context) (int, error) {
	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		for i := range sampleBooks {
			book := sampleBooks[i]
			if err := repos.Books.Upsert(ctx, &book); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed books: %w", err)
	}
	return len(sampleBooks), nil
}

// optional trims s and maps blank to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

var sampleBooks = []model.Book{
	{ID: 1, Title: "Introduction to Algorithms", Author: "Thomas H. Cormen", Subject: "Algorithms", Semester: 4, PublicationYear: 2009},
	{ID: 2, Title: "Computer Networks", Author: "Andrew S. Tanenbaum", Subject: "Networking", Semester: 5, PublicationYear: 2011},
	{ID: 3, Title: "Operating System Concepts", Author: "Abraham Silberschatz", Subject: "Operating Systems", Semester: 4, PublicationYear: 2012},
	{ID: 4, Title: "Database System Concepts", Author: "Abraham Silberschatz", Subject: "Databases", Semester: 5, PublicationYear: 2010},
	{ID: 5, Title: "Artificial Intelligence: A Modern Approach", Author: "Stuart Russell", Subject: "Artificial Intelligence", Semester: 6, PublicationYear: 2020},
	{ID: 6, Title: "Computer Organization and Design", Author: "David A. Patterson", Subject: "Computer Architecture", Semester: 3, PublicationYear: 2014},
	{ID: 7, Title: "Java: The Complete Reference", Author: "Herbert Schildt", Subject: "Programming", Semester: 2, PublicationYear: 2018},
	{ID: 8, Title: "C Programming Language", Author: "Brian W. Kernighan", Subject: "Programming", Semester: 1, PublicationYear: 1988},
	{ID: 9, Title: "Discrete Mathematics and Its Applications", Author: "Kenneth H. Rosen", Subject: "Mathematics", Semester: 2, PublicationYear: 2013},
	{ID: 10, Title: "Computer Graphics with OpenGL", Author: "Donald Hearn", Subject: "Graphics", Semester: 6, PublicationYear: 2010},
	{ID: 11, Title: "Data Communications and Networking", Author: "Behrouz A. Forouzan", Subject: "Networking", Semester: 5, PublicationYear: 2012},
	{ID: 12, Title: "Let Us C", Author: "Yashavant Kanetkar", Subject: "Programming", Semester: 1, PublicationYear: 2016},
	{ID: 13, Title: "The Art of Computer Programming", Author: "Donald E. Knuth", Subject: "Algorithms", Semester: 6, PublicationYear: 2011},
	{ID: 14, Title: "Clean Code", Author: "Robert C. Martin", Subject: "Software Engineering", Semester: 5, PublicationYear: 2008},
	{ID: 15, Title: "Compiler Design", Author: "Aho, Lam, Sethi, Ullman", Subject: "Compilers", Semester: 6, PublicationYear: 2006},
	{ID: 16, Title: "Python Crash Course", Author: "Eric Matthes", Subject: "Programming", Semester: 2, PublicationYear: 2019},
	{ID: 17, Title: "Big Data: Principles and best practices", Author: "Nathan Marz", Subject: "Big Data", Semester: 7, PublicationYear: 2015},
	{ID: 18, Title: "Data Mining Concepts and Techniques", Author: "Jiawei Han", Subject: "Data Mining", Semester: 7, PublicationYear: 2011},
	{ID: 19, Title: "Cryptography and Network Security", Author: "William Stallings", Subject: "Security", Semester: 6, PublicationYear: 2014},
	{ID: 20, Title: "Cloud Computing", Author: "Rajkumar Buyya", Subject: "Cloud Computing", Semester: 7, PublicationYear: 2013},
}
