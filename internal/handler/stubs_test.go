package handler

import (
	"context"
	"time"

	"library_management/internal/model"
	"library_management/internal/service"
)

type stubAuth struct {
	users      map[string]*model.User
	RegisterFn func(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	LoginFn    func(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
}

func (s *stubAuth) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	return s.RegisterFn(ctx, req)
}

func (s *stubAuth) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	return s.LoginFn(ctx, req)
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*model.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, service.ErrInvalidCredentials
}

type stubUsers struct {
	ListUsersFn    func(ctx context.Context) ([]model.User, error)
	ListStudentsFn func(ctx context.Context) ([]model.User, error)
	UpdateUserFn   func(ctx context.Context, caller *model.User, id int64, req model.UpdateUserRequest) (*model.UserProfile, error)
	DeleteUserFn   func(ctx context.Context, id int64) error
}

func (s *stubUsers) ListUsers(ctx context.Context) ([]model.User, error) { return s.ListUsersFn(ctx) }
func (s *stubUsers) ListStudents(ctx context.Context) ([]model.User, error) {
	return s.ListStudentsFn(ctx)
}
func (s *stubUsers) UpdateUser(ctx context.Context, caller *model.User, id int64, req model.UpdateUserRequest) (*model.UserProfile, error) {
	return s.UpdateUserFn(ctx, caller, id, req)
}
func (s *stubUsers) DeleteUser(ctx context.Context, id int64) error { return s.DeleteUserFn(ctx, id) }

type stubBooks struct {
	ListBooksFn   func(ctx context.Context) ([]model.Book, error)
	GetBookFn     func(ctx context.Context, id int) (*model.Book, error)
	SearchBooksFn func(ctx context.Context, filters model.BookFilters) ([]model.Book, error)
	CreateBookFn  func(ctx context.Context, req model.CreateBookRequest, addedBy int64) (*model.Book, error)
	UpdateBookFn  func(ctx context.Context, id int, req model.UpdateBookRequest) (*model.Book, error)
	DeleteBookFn  func(ctx context.Context, id int) error
	SeedBooksFn   func(ctx context.Context) (int, error)
}

func (s *stubBooks) ListBooks(ctx context.Context) ([]model.Book, error) { return s.ListBooksFn(ctx) }
func (s *stubBooks) GetBook(ctx context.Context, id int) (*model.Book, error) {
	return s.GetBookFn(ctx, id)
}
func (s *stubBooks) SearchBooks(ctx context.Context, f model.BookFilters) ([]model.Book, error) {
	return s.SearchBooksFn(ctx, f)
}
func (s *stubBooks) CreateBook(ctx context.Context, req model.CreateBookRequest, addedBy int64) (*model.Book, error) {
	return s.CreateBookFn(ctx, req, addedBy)
}
func (s *stubBooks) UpdateBook(ctx context.Context, id int, req model.UpdateBookRequest) (*model.Book, error) {
	return s.UpdateBookFn(ctx, id, req)
}
func (s *stubBooks) DeleteBook(ctx context.Context, id int) error { return s.DeleteBookFn(ctx, id) }
func (s *stubBooks) SeedBooks(ctx context.Context) (int, error)  { return s.SeedBooksFn(ctx) }

type stubIssues struct {
	CreateIssueFn       func(ctx context.Context, req model.CreateIssueRequest, issuedBy int64) (*model.Issue, error)
	ReturnIssueFn       func(ctx context.Context, issueID int64) (*model.Issue, error)
	ListIssuesFn        func(ctx context.Context) ([]model.Issue, error)
	ListStudentIssuesFn func(ctx context.Context, identifier string, caller *model.User) ([]model.Issue, error)
	ListOverdueFn       func(ctx context.Context, asOf time.Time) ([]model.Issue, error)
	DispatchRemindersFn func(ctx context.Context, asOf time.Time) (*model.ReminderReport, error)
}

func (s *stubIssues) CreateIssue(ctx context.Context, req model.CreateIssueRequest, issuedBy int64) (*model.Issue, error) {
	return s.CreateIssueFn(ctx, req, issuedBy)
}
func (s *stubIssues) ReturnIssue(ctx context.Context, id int64) (*model.Issue, error) {
	return s.ReturnIssueFn(ctx, id)
}
func (s *stubIssues) ListIssues(ctx context.Context) ([]model.Issue, error) {
	return s.ListIssuesFn(ctx)
}
func (s *stubIssues) ListStudentIssues(ctx context.Context, identifier string, caller *model.User) ([]model.Issue, error) {
	return s.ListStudentIssuesFn(ctx, identifier, caller)
}
func (s *stubIssues) ListOverdue(ctx context.Context, asOf time.Time) ([]model.Issue, error) {
	return s.ListOverdueFn(ctx, asOf)
}
func (s *stubIssues) DispatchReminders(ctx context.Context, asOf time.Time) (*model.ReminderReport, error) {
	return s.DispatchRemindersFn(ctx, asOf)
}
