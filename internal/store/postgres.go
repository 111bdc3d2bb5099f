package store

import (
	"context"
	_ "embed"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/room"
)

//go:embed migrations/postgres.sql
var postgresSchema string

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// RunMigrations applies the schema. Statements are idempotent.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return err
}

// Backend names the store in logs and health output.
func (s *PostgresStore) Backend() string { return "postgres" }

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// FindThread retrieves the thread for a pair.
func (s *PostgresStore) FindThread(ctx context.Context, pair room.Pair) (*models.Thread, error) {
	thread, err := s.loadThread(ctx, s.pool, "pair_key", string(pair.ID()))
	return thread, apperr.Store("find thread", err)
}

// CreateThread creates an empty thread, or returns the existing one.
func (s *PostgresStore) CreateThread(ctx context.Context, pair room.Pair, senderID string) (*models.Thread, error) {
	thread, _, err := s.FindOrCreateThread(ctx, pair, senderID)
	return thread, err
}

// FindOrCreateThread upserts on the unique pair key. The no-op update makes
// RETURNING yield the existing row on conflict; xmax = 0 only for a fresh insert.
func (s *PostgresStore) FindOrCreateThread(ctx context.Context, pair room.Pair, senderID string) (*models.Thread, bool, error) {
	var (
		id      string
		created bool
	)
	err := s.pool.QueryRow(ctx, `
		INSERT INTO threads (id, pair_key, sender_id, receiver_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pair_key) DO UPDATE SET pair_key = EXCLUDED.pair_key
		RETURNING id, (xmax = 0)
	`, uuid.NewString(), string(pair.ID()), senderID, pair.Other(senderID)).Scan(&id, &created)
	if err != nil {
		return nil, false, apperr.Store("upsert thread", err)
	}

	thread, err := s.loadThread(ctx, s.pool, "id", id)
	if err != nil {
		return nil, false, apperr.Store("load thread", err)
	}
	if thread == nil {
		return nil, false, apperr.Store("load thread", errors.New("thread vanished after upsert"))
	}
	return thread, created, nil
}

// AppendMessage bumps the thread counter (taking its row lock) and inserts
// the message in one transaction.
func (s *PostgresStore) AppendMessage(ctx context.Context, threadID, senderID, body string) (*models.Thread, *models.Message, error) {
	msg := &models.Message{
		ID:       ulid.Make().String(),
		SenderID: senderID,
		Body:     body,
		SentAt:   time.Now().UTC(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, apperr.Store("begin append", err)
	}
	defer tx.Rollback(ctx)

	var seq int64
	err = tx.QueryRow(ctx, `
		UPDATE threads
		SET message_count = message_count + 1, updated_at = $2
		WHERE id = $1
		RETURNING message_count
	`, threadID, msg.SentAt).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperr.NotFound("thread not found")
		}
		return nil, nil, apperr.Store("bump thread", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (id, thread_id, seq, sender_id, body, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, threadID, seq, msg.SenderID, msg.Body, msg.SentAt)
	if err != nil {
		return nil, nil, apperr.Store("insert message", err)
	}

	thread, err := s.loadThread(ctx, tx, "id", threadID)
	if err != nil {
		return nil, nil, apperr.Store("load thread", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, apperr.Store("commit append", err)
	}
	return thread, msg, nil
}

// loadThread reads a thread and its messages. column is trusted input.
func (s *PostgresStore) loadThread(ctx context.Context, q pgQuerier, column, value string) (*models.Thread, error) {
	thread := &models.Thread{}
	err := q.QueryRow(ctx, `
		SELECT id, pair_key, sender_id, receiver_id, created_at, updated_at
		FROM threads WHERE `+column+` = $1
	`, value).Scan(
		&thread.ID,
		&thread.PairKey,
		&thread.SenderID,
		&thread.ReceiverID,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, sender_id, body, sent_at
		FROM messages WHERE thread_id = $1
		ORDER BY seq ASC
	`, thread.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	thread.Messages = []models.Message{}
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.Body, &msg.SentAt); err != nil {
			return nil, err
		}
		thread.Messages = append(thread.Messages, msg)
	}
	return thread, rows.Err()
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role).Scan(
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		user.ID = ""
		if isPgUnique(err) {
			return apperr.Conflict("email already registered")
		}
		return apperr.Store("create user", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.getUser(ctx, "id", id)
	return user, apperr.Store("get user", err)
}

// GetUserByEmail retrieves a user by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.getUser(ctx, "email", email)
	return user, apperr.Store("get user by email", err)
}

func (s *PostgresStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, password_hash, role, banned_at, created_at, updated_at
		FROM users WHERE `+column+` = $1
	`, value).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.BannedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// SetUserBanned bans or unbans a user and returns the updated record.
func (s *PostgresStore) SetUserBanned(ctx context.Context, id string, banned bool) (*models.User, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET banned_at = CASE WHEN $2 THEN NOW() ELSE NULL END, updated_at = NOW()
		WHERE id = $1
	`, id, banned)
	if err != nil {
		return nil, apperr.Store("ban user", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return s.GetUser(ctx, id)
}

const pgJobColumns = `id, title, location, working_time, seniority_level, description,
	technical_skills, soft_skills, added_by, updated_by, company_id, closed, created_at, updated_at`

// CreateJob creates a new job listing.
func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	job.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO jobs (id, title, location, working_time, seniority_level, description,
			technical_skills, soft_skills, added_by, updated_by, company_id, closed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, job.ID, job.Title, job.Location, job.WorkingTime, job.SeniorityLevel, job.Description,
		nonNil(job.TechnicalSkills), nonNil(job.SoftSkills), job.AddedBy, job.UpdatedBy,
		job.CompanyID, job.Closed).Scan(
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		job.ID = ""
		return apperr.Store("create job", err)
	}
	return nil
}

func scanPostgresJob(row rowScanner) (*models.Job, error) {
	job := &models.Job{}
	err := row.Scan(
		&job.ID,
		&job.Title,
		&job.Location,
		&job.WorkingTime,
		&job.SeniorityLevel,
		&job.Description,
		&job.TechnicalSkills,
		&job.SoftSkills,
		&job.AddedBy,
		&job.UpdatedBy,
		&job.CompanyID,
		&job.Closed,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob retrieves a job by ID.
func (s *PostgresStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	job, err := scanPostgresJob(s.pool.QueryRow(ctx, `
		SELECT `+pgJobColumns+` FROM jobs WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Store("get job", err)
	}
	return job, nil
}

// UpdateJob writes the editable job fields.
func (s *PostgresStore) UpdateJob(ctx context.Context, job *models.Job) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE jobs
		SET title = $1, location = $2, working_time = $3, seniority_level = $4, description = $5,
			technical_skills = $6, soft_skills = $7, updated_by = $8, closed = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`, job.Title, job.Location, job.WorkingTime, job.SeniorityLevel, job.Description,
		nonNil(job.TechnicalSkills), nonNil(job.SoftSkills), job.UpdatedBy, job.Closed, job.ID).Scan(&job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("job not found")
		}
		return apperr.Store("update job", err)
	}
	return nil
}

// DeleteJob removes a job and its applications in one transaction.
func (s *PostgresStore) DeleteJob(ctx context.Context, id string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, apperr.Store("begin delete job", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM applications WHERE job_id = $1`, id); err != nil {
		return false, apperr.Store("delete applications", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return false, apperr.Store("delete job", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return false, apperr.Store("commit delete job", err)
	}
	return true, nil
}

// SearchJobs filters jobs and pages through the matches.
func (s *PostgresStore) SearchJobs(ctx context.Context, f JobFilter) ([]models.Job, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	eq := func(column, value string) {
		if value != "" {
			where = append(where, column+" = "+arg(value))
		}
	}
	eq("company_id", f.CompanyID)
	eq("working_time", f.WorkingTime)
	eq("location", f.Location)
	eq("seniority_level", f.SeniorityLevel)
	if f.Title != "" {
		where = append(where, "title ILIKE "+arg(likeContains(f.Title))+` ESCAPE '\'`)
	}
	if len(f.Skills) > 0 {
		where = append(where, "technical_skills && "+arg(f.Skills)+"::text[]")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+clause, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Store("count jobs", err)
	}

	query := `SELECT ` + pgJobColumns + ` FROM jobs` + clause +
		` ORDER BY created_at ASC, id ASC LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Offset)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.Store("search jobs", err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		job, err := scanPostgresJob(rows)
		if err != nil {
			return nil, 0, apperr.Store("scan job", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, total, apperr.Store("search jobs", rows.Err())
}

// CreateApplication creates an application in pending state.
func (s *PostgresStore) CreateApplication(ctx context.Context, app *models.Application) error {
	app.ID = uuid.NewString()
	if app.Status == "" {
		app.Status = models.ApplicationPending
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO applications (id, job_id, user_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, app.ID, app.JobID, app.UserID, app.Status).Scan(&app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		app.ID = ""
		return apperr.Store("create application", err)
	}
	return nil
}

// GetApplication retrieves an application by ID.
func (s *PostgresStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	app, err := scanApplication(s.pool.QueryRow(ctx, `
		SELECT id, job_id, user_id, status, created_at, updated_at
		FROM applications WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Store("get application", err)
	}
	return app, nil
}

// ListApplications retrieves applications for a job with pagination.
func (s *PostgresStore) ListApplications(ctx context.Context, jobID string, limit, offset int) ([]models.Application, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE job_id = $1`, jobID).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Store("count applications", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, job_id, user_id, status, created_at, updated_at
		FROM applications
		WHERE job_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, jobID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Store("list applications", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, apperr.Store("scan application", err)
		}
		apps = append(apps, *app)
	}
	return apps, total, apperr.Store("list applications", rows.Err())
}

// UpdateApplicationStatus sets the status only if it still equals from.
func (s *PostgresStore) UpdateApplicationStatus(ctx context.Context, id, from, to string) (*models.Application, error) {
	app, err := scanApplication(s.pool.QueryRow(ctx, `
		UPDATE applications SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING id, job_id, user_id, status, created_at, updated_at
	`, to, id, from))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Store("update application", err)
	}
	return app, nil
}

const pgCompanyColumns = `id, name, description, industry, address, number_of_employees,
	email, created_by, approved, banned_at, deleted_at, created_at, updated_at`

func scanPostgresCompany(row rowScanner) (*models.Company, error) {
	c := &models.Company{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Industry,
		&c.Address,
		&c.NumberOfEmployees,
		&c.Email,
		&c.CreatedBy,
		&c.Approved,
		&c.BannedAt,
		&c.DeletedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func isPgUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// CreateCompany inserts a company awaiting admin approval.
func (s *PostgresStore) CreateCompany(ctx context.Context, c *models.Company) error {
	c.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO companies (id, name, description, industry, address, number_of_employees,
			email, created_by, approved, banned_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Description, c.Industry, c.Address, c.NumberOfEmployees,
		c.Email, c.CreatedBy, c.Approved, c.BannedAt, c.DeletedAt).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		c.ID = ""
		if isPgUnique(err) {
			return apperr.Conflict(companyConflict)
		}
		return apperr.Store("create company", err)
	}
	return nil
}

// GetCompany retrieves a company by ID, including soft-deleted ones.
func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	c, err := scanPostgresCompany(s.pool.QueryRow(ctx, `
		SELECT `+pgCompanyColumns+` FROM companies WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Store("get company", err)
	}
	return c, nil
}

// UpdateCompany writes every mutable company field.
func (s *PostgresStore) UpdateCompany(ctx context.Context, c *models.Company) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE companies
		SET name = $1, description = $2, industry = $3, address = $4, number_of_employees = $5,
			approved = $6, banned_at = $7, deleted_at = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`, c.Name, c.Description, c.Industry, c.Address, c.NumberOfEmployees,
		c.Approved, c.BannedAt, c.DeletedAt, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("company not found")
		}
		if isPgUnique(err) {
			return apperr.Conflict(companyConflict)
		}
		return apperr.Store("update company", err)
	}
	return nil
}

// SearchCompanies finds live companies whose name contains name.
func (s *PostgresStore) SearchCompanies(ctx context.Context, name string, limit int) ([]models.Company, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+pgCompanyColumns+` FROM companies
		WHERE deleted_at IS NULL AND name ILIKE $1 ESCAPE '\'
		ORDER BY name ASC
		LIMIT $2
	`, likeContains(name), limit)
	if err != nil {
		return nil, apperr.Store("search companies", err)
	}
	defer rows.Close()

	companies := []models.Company{}
	for rows.Next() {
		c, err := scanPostgresCompany(rows)
		if err != nil {
			return nil, apperr.Store("scan company", err)
		}
		companies = append(companies, *c)
	}
	return companies, apperr.Store("search companies", rows.Err())
}
