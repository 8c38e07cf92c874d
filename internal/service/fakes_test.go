package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"library_management/internal/model"
	"library_management/internal/repository"
)

// memDB is an in-memory repository.Store. WithTx restores a snapshot when
// fn fails, so rollback behaviour can be asserted.
type memDB struct {
	books  map[int]model.Book
	users  map[int64]model.User
	issues map[int64]model.Issue

	nextUserID  int64
	nextIssueID int64

	// failIssueCreate makes the next Issues.Create fail.
	failIssueCreate error
}

func newMemDB() *memDB {
	return &memDB{
		books:       map[int]model.Book{},
		users:       map[int64]model.User{},
		issues:      map[int64]model.Issue{},
		nextUserID:  1,
		nextIssueID: 1,
	}
}

func (db *memDB) Repos() repository.Repositories {
	return repository.Repositories{
		Books:  &memBooks{db},
		Users:  &memUsers{db},
		Issues: &memIssues{db},
	}
}

func (db *memDB) WithTx(_ context.Context, fn func(repository.Repositories) error) error {
	books := make(map[int]model.Book, len(db.books))
	for k, v := range db.books {
		books[k] = v
	}
	users := make(map[int64]model.User, len(db.users))
	for k, v := range db.users {
		users[k] = v
	}
	issues := make(map[int64]model.Issue, len(db.issues))
	for k, v := range db.issues {
		issues[k] = v
	}
	nextUser, nextIssue := db.nextUserID, db.nextIssueID

	if err := fn(db.Repos()); err != nil {
		db.books, db.users, db.issues = books, users, issues
		db.nextUserID, db.nextIssueID = nextUser, nextIssue
		return err
	}
	return nil
}

func (db *memDB) addBook(id int, title, subject string) {
	now := time.Now()
	db.books[id] = model.Book{
		ID: id, Title: title, Author: "Author " + strconv.Itoa(id), Subject: subject,
		Semester: 1, PublicationYear: 2020, Available: true, CreatedAt: now, UpdatedAt: now,
	}
}

func (db *memDB) addUser(name string, role model.Role, studentID, phone *string) model.User {
	u := model.User{
		ID:        db.nextUserID,
		Name:      name,
		Email:     strings.ToLower(name) + "@example.com",
		Role:      role,
		StudentID: studentID,
		Phone:     phone,
	}
	db.nextUserID++
	db.users[u.ID] = u
	return u
}

func (db *memDB) openIssueFor(bookID int) bool {
	for _, i := range db.issues {
		if i.BookID == bookID && i.Status == model.IssueStatusIssued {
			return true
		}
	}
	return false
}

func (db *memDB) detail(i model.Issue) model.Issue {
	if b, ok := db.books[i.BookID]; ok {
		i.Book = &b
	}
	if u, ok := db.users[i.StudentID]; ok {
		i.Student = u.Profile()
	}
	return i
}

type memBooks struct{ db *memDB }

func (r *memBooks) Create(_ context.Context, b *model.Book) error {
	if _, ok := r.db.books[b.ID]; ok {
		return repository.ErrDuplicate
	}
	b.Available = true
	b.CreatedAt, b.UpdatedAt = time.Now(), time.Now()
	r.db.books[b.ID] = *b
	return nil
}

func (r *memBooks) Upsert(_ context.Context, b *model.Book) error {
	if existing, ok := r.db.books[b.ID]; ok {
		b.Available = existing.Available
		b.CreatedAt = existing.CreatedAt
	} else {
		b.Available = true
		b.CreatedAt = time.Now()
	}
	b.UpdatedAt = time.Now()
	r.db.books[b.ID] = *b
	return nil
}

func (r *memBooks) FindByID(_ context.Context, id int) (*model.Book, error) {
	b, ok := r.db.books[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memBooks) FindByIDForUpdate(ctx context.Context, id int) (*model.Book, error) {
	return r.FindByID(ctx, id)
}

func (r *memBooks) FindAll(ctx context.Context) ([]model.Book, error) {
	return r.Search(ctx, model.BookFilters{})
}

func (r *memBooks) Search(_ context.Context, f model.BookFilters) ([]model.Book, error) {
	contains := func(field string, want *string) bool {
		return want == nil || strings.Contains(strings.ToLower(field), strings.ToLower(*want))
	}
	out := []model.Book{}
	for _, b := range r.db.books {
		if contains(b.Title, f.Title) && contains(b.Author, f.Author) && contains(b.Subject, f.Subject) &&
			(f.Semester == nil || *f.Semester == b.Semester) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memBooks) Update(_ context.Context, b *model.Book) error {
	existing := r.db.books[b.ID]
	b.Available = existing.Available
	b.UpdatedAt = time.Now()
	r.db.books[b.ID] = *b
	return nil
}

func (r *memBooks) SetAvailable(_ context.Context, id int, available bool) (bool, error) {
	b, ok := r.db.books[id]
	if !ok || b.Available == available {
		return false, nil
	}
	b.Available = available
	r.db.books[id] = b
	return true, nil
}

func (r *memBooks) Delete(_ context.Context, id int) (bool, error) {
	if _, ok := r.db.books[id]; !ok {
		return false, nil
	}
	for _, i := range r.db.issues {
		if i.BookID == id {
			return false, repository.ErrReferenced
		}
	}
	delete(r.db.books, id)
	return true, nil
}

type memUsers struct{ db *memDB }

func (r *memUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
		if u.StudentID != nil && existing.StudentID != nil && *u.StudentID == *existing.StudentID {
			return repository.ErrDuplicate
		}
	}
	u.ID = r.db.nextUserID
	r.db.nextUserID++
	r.db.users[u.ID] = *u
	return nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memUsers) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil && strconv.FormatInt(id, 10) == identifier {
		if u, _ := r.FindByID(ctx, id); u != nil {
			return u, nil
		}
	}
	for _, u := range r.db.users {
		if u.StudentID != nil && *u.StudentID == identifier {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindAll(_ context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, u := range r.db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUsers) FindByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	all, _ := r.FindAll(ctx)
	out := []model.User{}
	for _, u := range all {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUsers) Update(_ context.Context, u *model.User) error {
	for _, existing := range r.db.users {
		if existing.ID != u.ID && existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	r.db.users[u.ID] = *u
	return nil
}

func (r *memUsers) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.db.users[id]; !ok {
		return false, nil
	}
	for _, i := range r.db.issues {
		if i.StudentID == id {
			return false, repository.ErrReferenced
		}
	}
	delete(r.db.users, id)
	return true, nil
}

type memIssues struct{ db *memDB }

func (r *memIssues) Create(_ context.Context, i *model.Issue) error {
	if err := r.db.failIssueCreate; err != nil {
		r.db.failIssueCreate = nil
		return err
	}
	if r.db.openIssueFor(i.BookID) {
		return repository.ErrDuplicate
	}
	i.ID = r.db.nextIssueID
	r.db.nextIssueID++
	stored := *i
	stored.Book, stored.Student = nil, nil
	r.db.issues[i.ID] = stored
	return nil
}

func (r *memIssues) FindByID(_ context.Context, id int64) (*model.Issue, error) {
	i, ok := r.db.issues[id]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (r *memIssues) FindByIDForUpdate(ctx context.Context, id int64) (*model.Issue, error) {
	return r.FindByID(ctx, id)
}

func (r *memIssues) MarkReturned(_ context.Context, id int64, returnDate time.Time, fine int64) (bool, error) {
	i, ok := r.db.issues[id]
	if !ok || i.Status != model.IssueStatusIssued {
		return false, nil
	}
	i.Status = model.IssueStatusReturned
	i.ReturnDate = &returnDate
	i.Fine = fine
	r.db.issues[id] = i
	return true, nil
}

func (r *memIssues) list(keep func(model.Issue) bool, less func(a, b model.Issue) bool) []model.Issue {
	out := []model.Issue{}
	for _, i := range r.db.issues {
		if keep(i) {
			out = append(out, r.db.detail(i))
		}
	}
	sort.Slice(out, func(a, b int) bool { return less(out[a], out[b]) })
	return out
}

func newestFirst(a, b model.Issue) bool {
	if !a.IssueDate.Equal(b.IssueDate) {
		return a.IssueDate.After(b.IssueDate)
	}
	return a.ID > b.ID
}

func (r *memIssues) FindAll(_ context.Context) ([]model.Issue, error) {
	return r.list(func(model.Issue) bool { return true }, newestFirst), nil
}

func (r *memIssues) FindByStudent(_ context.Context, studentID int64) ([]model.Issue, error) {
	return r.list(func(i model.Issue) bool { return i.StudentID == studentID }, newestFirst), nil
}

func (r *memIssues) FindOverdue(_ context.Context, asOf time.Time) ([]model.Issue, error) {
	return r.list(
		func(i model.Issue) bool { return i.Status == model.IssueStatusIssued && i.DueDate.Before(asOf) },
		func(a, b model.Issue) bool {
			if !a.DueDate.Equal(b.DueDate) {
				return a.DueDate.Before(b.DueDate)
			}
			return a.ID < b.ID
		},
	), nil
}

// fakeGateway records sends and fails for the phones listed in failFor.
type fakeGateway struct {
	mu      sync.Mutex
	failFor map[string]error
	sent    []sentSMS
}

type sentSMS struct {
	to, body string
}

func (g *fakeGateway) Send(_ context.Context, to, body string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failFor[to]; ok {
		return err
	}
	g.sent = append(g.sent, sentSMS{to: to, body: body})
	return nil
}

func strPtr(s string) *string { return &s }
