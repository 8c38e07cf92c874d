package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"library_management/internal/metrics"
	"library_management/internal/model"
	"library_management/internal/notify"
	"library_management/internal/repository"
)

const reminderLockKey = "reminders:dispatch"

// IssueService owns the loan lifecycle: issuing, returning, fines and
// overdue reminders.
type IssueService interface {
	CreateIssue(ctx context.Context, req model.CreateIssueRequest, issuedBy int64) (*model.Issue, error)
	ReturnIssue(ctx context.Context, issueID int64) (*model.Issue, error)
	ListIssues(ctx context.Context) ([]model.Issue, error)
	ListStudentIssues(ctx context.Context, identifier string, caller *model.User) ([]model.Issue, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]model.Issue, error)
	DispatchReminders(ctx context.Context, asOf time.Time) (*model.ReminderReport, error)
}

// IssueServiceDeps collects the collaborators of the ledger. Gateway may be
// nil when SMS is not configured.
type IssueServiceDeps struct {
	Store   repository.Store
	Gateway notify.Gateway
	Locker  notify.Locker
	Metrics *metrics.Metrics
	LockTTL time.Duration
	Logger  *slog.Logger
}

type issueService struct {
	store   repository.Store
	gateway notify.Gateway
	locker  notify.Locker
	metrics *metrics.Metrics
	lockTTL time.Duration
	log     *slog.Logger
	now     func() time.Time
}

// NewIssueService creates a new IssueService
func NewIssueService(deps IssueServiceDeps) IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	locker := deps.Locker
	if locker == nil {
		locker = notify.NewLocalLocker()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.NewUnregistered()
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &issueService{
		store:   deps.Store,
		gateway: deps.Gateway,
		locker:  locker,
		metrics: m,
		lockTTL: ttl,
		log:     logger.With("component", "issues"),
		now:     time.Now,
	}
}

// CreateIssue lends a book. The availability flip and the new record are
// written in one transaction with the book row locked.
func (s *issueService) CreateIssue(ctx context.Context, req model.CreateIssueRequest, issuedBy int64) (*model.Issue, error) {
	now := s.now()
	if !req.DueDate.After(now) {
		return nil, ErrInvalidDueDate
	}

	var issue *model.Issue
	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		book, err := repos.Books.FindByIDForUpdate(ctx, req.BookID)
		if err != nil {
			return err
		}
		if book == nil {
			return ErrBookNotFound
		}
		if !book.Available {
			return ErrBookUnavailable
		}

		student, err := repos.Users.FindByIdentifier(ctx, strings.TrimSpace(req.StudentID))
		if err != nil {
			return err
		}
		if student == nil {
			return ErrStudentNotFound
		}

		changed, err := repos.Books.SetAvailable(ctx, book.ID, false)
		if err != nil {
			return err
		}
		if !changed {
			return ErrBookUnavailable
		}

		issue = &model.Issue{
			BookID:    book.ID,
			StudentID: student.ID,
			IssueDate: now,
			DueDate:   req.DueDate,
			Status:    model.IssueStatusIssued,
			IssuedBy:  &issuedBy,
		}
		if err := repos.Issues.Create(ctx, issue); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrBookUnavailable
			}
			return err
		}

		book.Available = false
		issue.Book = book
		issue.Student = student.Profile()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IssuesCreated.Inc()
	s.log.InfoContext(ctx, "book issued",
		"issue_id", issue.ID, "book_id", issue.BookID, "student_id", issue.StudentID, "due", issue.DueDate)
	return issue, nil
}

// ReturnIssue closes a loan, freezes its fine and makes the book available
// again, all in one transaction.
func (s *issueService) ReturnIssue(ctx context.Context, issueID int64) (*model.Issue, error) {
	var issue *model.Issue
	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		var err error
		issue, err = repos.Issues.FindByIDForUpdate(ctx, issueID)
		if err != nil {
			return err
		}
		if issue == nil {
			return ErrIssueNotFound
		}
		if issue.Status == model.IssueStatusReturned {
			return ErrAlreadyReturned
		}

		book, err := repos.Books.FindByIDForUpdate(ctx, issue.BookID)
		if err != nil {
			return err
		}
		if book == nil {
			return ErrBookNotFound
		}

		returnedAt := s.now()
		fine := CalculateFine(issue.DueDate, returnedAt)

		ok, err := repos.Issues.MarkReturned(ctx, issue.ID, returnedAt, fine)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyReturned
		}
		if _, err := repos.Books.SetAvailable(ctx, book.ID, true); err != nil {
			return err
		}

		issue.Status = model.IssueStatusReturned
		issue.ReturnDate = &returnedAt
		issue.Fine = fine
		book.Available = true
		issue.Book = book

		student, err := repos.Users.FindByID(ctx, issue.StudentID)
		if err != nil {
			return err
		}
		if student != nil {
			issue.Student = student.Profile()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IssuesReturned.Inc()
	s.metrics.FinesCharged.Add(float64(issue.Fine))
	s.log.InfoContext(ctx, "book returned", "issue_id", issue.ID, "book_id", issue.BookID, "fine", issue.Fine)
	return issue, nil
}

func (s *issueService) ListIssues(ctx context.Context) ([]model.Issue, error) {
	issues, err := s.store.Repos().Issues.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	return issues, nil
}

// ListStudentIssues returns one student's loans. Plain users may only look
// at their own.
func (s *issueService) ListStudentIssues(ctx context.Context, identifier string, caller *model.User) ([]model.Issue, error) {
	repos := s.store.Repos()
	student, err := repos.Users.FindByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve student: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	if caller == nil || (!caller.Role.Can(model.CapManageIssues) && caller.ID != student.ID) {
		return nil, ErrNotOwner
	}

	issues, err := repos.Issues.FindByStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student issues: %w", err)
	}
	return issues, nil
}

// ListOverdue returns open loans due strictly before asOf.
func (s *issueService) ListOverdue(ctx context.Context, asOf time.Time) ([]model.Issue, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	issues, err := s.store.Repos().Issues.FindOverdue(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue issues: %w", err)
	}
	return issues, nil
}

// DispatchReminders texts every student holding an overdue book. Failures
// are recorded per recipient and never stop the run.
func (s *issueService) DispatchReminders(ctx context.Context, asOf time.Time) (*model.ReminderReport, error) {
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	if asOf.IsZero() {
		asOf = s.now()
	}

	release, err := s.locker.Acquire(ctx, reminderLockKey, s.lockTTL)
	if err != nil {
		if errors.Is(err, notify.ErrLockHeld) {
			return nil, ErrDispatchInProgress
		}
		return nil, fmt.Errorf("failed to acquire reminder lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.WarnContext(ctx, "failed to release reminder lock", "error", err)
		}
	}()

	overdue, err := s.store.Repos().Issues.FindOverdue(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue issues: %w", err)
	}

	report := &model.ReminderReport{
		RemindersSent:   []model.SentReminder{},
		FailedReminders: []model.FailedReminder{},
	}
	if len(overdue) == 0 {
		report.Message = "No overdue books found"
		return report, nil
	}

	for _, issue := range overdue {
		studentName, bookTitle, phone := describe(issue)

		if phone == "" {
			report.FailedReminders = append(report.FailedReminders, model.FailedReminder{
				IssueID: issue.ID, Student: studentName, Book: bookTitle, Reason: "no phone number",
			})
			s.metrics.RemindersFailed.WithLabelValues("no_phone").Inc()
			continue
		}

		body := notify.OverdueReminder(bookTitle, DaysOverdue(issue.DueDate, asOf))
		if err := s.gateway.Send(ctx, phone, body); err != nil {
			report.FailedReminders = append(report.FailedReminders, model.FailedReminder{
				IssueID: issue.ID, Student: studentName, Book: bookTitle, Reason: err.Error(),
			})
			s.metrics.RemindersFailed.WithLabelValues("gateway").Inc()
			s.log.WarnContext(ctx, "reminder failed", "issue_id", issue.ID, "error", err)
			continue
		}

		report.RemindersSent = append(report.RemindersSent, model.SentReminder{
			IssueID: issue.ID, Student: studentName, Book: bookTitle, Phone: phone,
		})
		s.metrics.RemindersSent.Inc()
	}

	report.TotalSent = len(report.RemindersSent)
	report.TotalFailed = len(report.FailedReminders)
	s.log.InfoContext(ctx, "reminders dispatched", "sent", report.TotalSent, "failed", report.TotalFailed)
	return report, nil
}

func describe(issue model.Issue) (student, book, phone string) {
	if issue.Student != nil {
		student = issue.Student.Name
		if issue.Student.Phone != nil {
			phone = strings.TrimSpace(*issue.Student.Phone)
		}
	}
	if issue.Book != nil {
		book = issue.Book.Title
	}
	return student, book, phone
}
