package store

import (
	"context"
	"strings"

	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/room"
)

// ChatStore persists threads keyed by their unordered participant pair.
// Lookups return (nil, nil) when nothing matches. Failures are wrapped with
// apperr.Store.
type ChatStore interface {
	// FindThread returns the thread for pair, matching either participant order.
	FindThread(ctx context.Context, pair room.Pair) (*models.Thread, error)
	// CreateThread creates an empty thread opened by senderID. If a thread
	// already exists for the pair it is returned unchanged.
	CreateThread(ctx context.Context, pair room.Pair, senderID string) (*models.Thread, error)
	// FindOrCreateThread is a single atomic upsert on the pair key. The bool
	// reports whether this call created the thread.
	FindOrCreateThread(ctx context.Context, pair room.Pair, senderID string) (*models.Thread, bool, error)
	// AppendMessage appends a message with a server-assigned id and timestamp
	// and returns the updated thread together with the new message.
	AppendMessage(ctx context.Context, threadID, senderID, body string) (*models.Thread, *models.Message, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetUserBanned(ctx context.Context, id string, banned bool) (*models.User, error)
}

// JobFilter narrows a job search. Empty fields match everything; Title is a
// case-insensitive substring and Skills matches jobs listing any of them.
type JobFilter struct {
	CompanyID      string
	WorkingTime    string
	Location       string
	SeniorityLevel string
	Title          string
	Skills         []string
	Limit          int
	Offset         int
}

// JobStore persists job listings and applications.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	// UpdateJob writes the editable fields of job and refreshes UpdatedAt.
	UpdateJob(ctx context.Context, job *models.Job) error
	// DeleteJob removes a job and its applications. It reports false when
	// the job does not exist.
	DeleteJob(ctx context.Context, id string) (bool, error)
	// SearchJobs returns one page of matching jobs, oldest first, and the
	// total number of matches.
	SearchJobs(ctx context.Context, filter JobFilter) ([]models.Job, int, error)

	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	ListApplications(ctx context.Context, jobID string, limit, offset int) ([]models.Application, int, error)
	// UpdateApplicationStatus moves an application from one status to
	// another as a compare-and-set. It returns (nil, nil) when the
	// application is missing or no longer in from.
	UpdateApplicationStatus(ctx context.Context, id, from, to string) (*models.Application, error)
}

// CompanyStore persists employer profiles. Names and emails are unique;
// clashes fail with apperr.CodeConflict.
type CompanyStore interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id string) (*models.Company, error)
	// UpdateCompany writes every mutable field, including the approval, ban
	// and soft-delete markers, and refreshes UpdatedAt.
	UpdateCompany(ctx context.Context, company *models.Company) error
	// SearchCompanies matches names case-insensitively and skips deleted
	// companies.
	SearchCompanies(ctx context.Context, name string, limit int) ([]models.Company, error)
}

// DataStore is implemented by every document/SQL backend.
type DataStore interface {
	ChatStore
	UserStore
	JobStore
	CompanyStore

	Ping(ctx context.Context) error
	Close()
	Backend() string
}

// rowScanner is satisfied by single rows and row cursors of both SQL
// drivers.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanApplication reads id, job_id, user_id, status, created_at, updated_at.
func scanApplication(row rowScanner) (*models.Application, error) {
	app := &models.Application{}
	err := row.Scan(&app.ID, &app.JobID, &app.UserID, &app.Status, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// companyConflict is returned when a company name or email is taken.
const companyConflict = "company email or name already exists"

// likeContains builds a LIKE pattern matching s anywhere, escaping the
// wildcard characters with a backslash.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
