package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/room"
)

// SQLiteStore handles SQLite database operations. It keeps a single
// connection, so every write is serialized by the pool.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/jobsearch.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/jobsearch.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'User',
		banned_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS threads (
		id TEXT PRIMARY KEY,
		pair_key TEXT UNIQUE NOT NULL,
		sender_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		message_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL REFERENCES threads(id),
		seq INTEGER NOT NULL,
		sender_id TEXT NOT NULL,
		body TEXT NOT NULL,
		sent_at DATETIME NOT NULL,
		UNIQUE (thread_id, seq)
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		location TEXT NOT NULL,
		working_time TEXT NOT NULL,
		seniority_level TEXT NOT NULL,
		description TEXT NOT NULL,
		technical_skills TEXT NOT NULL DEFAULT '[]',
		soft_skills TEXT NOT NULL DEFAULT '[]',
		added_by TEXT NOT NULL,
		updated_by TEXT NOT NULL DEFAULT '',
		company_id TEXT NOT NULL DEFAULT '',
		closed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL REFERENCES jobs(id),
		user_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL,
		industry TEXT NOT NULL,
		address TEXT NOT NULL,
		number_of_employees TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		created_by TEXT NOT NULL,
		approved INTEGER NOT NULL DEFAULT 0,
		banned_at DATETIME,
		deleted_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, seq);
	CREATE INDEX IF NOT EXISTS idx_applications_job ON applications(job_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company_id, created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Backend names the store in logs and health output.
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FindThread retrieves the thread for a pair.
func (s *SQLiteStore) FindThread(ctx context.Context, pair room.Pair) (*models.Thread, error) {
	thread, err := s.loadThread(ctx, s.db, "pair_key", string(pair.ID()))
	return thread, apperr.Store("find thread", err)
}

// CreateThread creates an empty thread, or returns the existing one.
func (s *SQLiteStore) CreateThread(ctx context.Context, pair room.Pair, senderID string) (*models.Thread, error) {
	thread, _, err := s.FindOrCreateThread(ctx, pair, senderID)
	return thread, err
}

// FindOrCreateThread inserts the thread unless the pair key already exists.
func (s *SQLiteStore) FindOrCreateThread(ctx context.Context, pair room.Pair, senderID string) (*models.Thread, bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO threads (id, pair_key, sender_id, receiver_id, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (pair_key) DO NOTHING
	`, uuid.NewString(), string(pair.ID()), senderID, pair.Other(senderID), now, now)
	if err != nil {
		return nil, false, apperr.Store("create thread", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, apperr.Store("create thread", err)
	}

	thread, err := s.loadThread(ctx, s.db, "pair_key", string(pair.ID()))
	if err != nil {
		return nil, false, apperr.Store("load thread", err)
	}
	if thread == nil {
		return nil, false, apperr.Store("load thread", errors.New("thread vanished after upsert"))
	}
	return thread, affected == 1, nil
}

// AppendMessage appends a message inside a transaction. The counter update
// takes the write lock before the message row is inserted, so sequence
// numbers follow commit order.
func (s *SQLiteStore) AppendMessage(ctx context.Context, threadID, senderID, body string) (*models.Thread, *models.Message, error) {
	msg := &models.Message{
		ID:       ulid.Make().String(),
		SenderID: senderID,
		Body:     body,
		SentAt:   time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apperr.Store("begin append", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx, `
		UPDATE threads
		SET message_count = message_count + 1, updated_at = ?
		WHERE id = ?
		RETURNING message_count
	`, msg.SentAt, threadID).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperr.NotFound("thread not found")
		}
		return nil, nil, apperr.Store("bump thread", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, thread_id, seq, sender_id, body, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, threadID, seq, msg.SenderID, msg.Body, msg.SentAt)
	if err != nil {
		return nil, nil, apperr.Store("insert message", err)
	}

	thread, err := s.loadThread(ctx, tx, "id", threadID)
	if err != nil {
		return nil, nil, apperr.Store("load thread", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apperr.Store("commit append", err)
	}
	return thread, msg, nil
}

// loadThread reads a thread and its messages. column is trusted input.
func (s *SQLiteStore) loadThread(ctx context.Context, q querier, column, value string) (*models.Thread, error) {
	thread := &models.Thread{}
	err := q.QueryRowContext(ctx, `
		SELECT id, pair_key, sender_id, receiver_id, created_at, updated_at
		FROM threads WHERE `+column+` = ?
	`, value).Scan(
		&thread.ID,
		&thread.PairKey,
		&thread.SenderID,
		&thread.ReceiverID,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, sender_id, body, sent_at
		FROM messages WHERE thread_id = ?
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

// CreateUser inserts a user and fills in its id and timestamps.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role, now, now)
	if err != nil {
		if isSQLiteUnique(err) {
			return apperr.Conflict("email already registered")
		}
		return apperr.Store("create user", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.getUser(ctx, "id", id)
	return user, apperr.Store("get user", err)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.getUser(ctx, "email", email)
	return user, apperr.Store("get user by email", err)
}

func (s *SQLiteStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	var bannedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, password_hash, role, banned_at, created_at, updated_at
		FROM users WHERE `+column+` = ?
	`, value).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&bannedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if bannedAt.Valid {
		t := bannedAt.Time
		user.BannedAt = &t
	}
	return user, nil
}

// SetUserBanned bans or unbans a user and returns the updated record.
func (s *SQLiteStore) SetUserBanned(ctx context.Context, id string, banned bool) (*models.User, error) {
	now := time.Now().UTC()
	var bannedAt *time.Time
	if banned {
		bannedAt = &now
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET banned_at = ?, updated_at = ? WHERE id = ?
	`, bannedAt, now, id)
	if err != nil {
		return nil, apperr.Store("ban user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetUser(ctx, id)
}

const sqliteJobColumns = `id, title, location, working_time, seniority_level, description,
	technical_skills, soft_skills, added_by, updated_by, company_id, closed, created_at, updated_at`

// CreateJob inserts a job listing.
func (s *SQLiteStore) CreateJob(ctx context.Context, job *models.Job) error {
	now := time.Now().UTC()
	id := uuid.NewString()

	technical, soft, err := encodeSkills(job)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (`+sqliteJobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, job.Title, job.Location, job.WorkingTime, job.SeniorityLevel, job.Description,
		technical, soft, job.AddedBy, job.UpdatedBy, job.CompanyID, job.Closed, now, now)
	if err != nil {
		return apperr.Store("create job", err)
	}

	job.ID = id
	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

func encodeSkills(job *models.Job) (string, string, error) {
	technical, err := json.Marshal(nonNil(job.TechnicalSkills))
	if err != nil {
		return "", "", apperr.Store("encode skills", err)
	}
	soft, err := json.Marshal(nonNil(job.SoftSkills))
	if err != nil {
		return "", "", apperr.Store("encode skills", err)
	}
	return string(technical), string(soft), nil
}

func scanSQLiteJob(row rowScanner) (*models.Job, error) {
	job := &models.Job{}
	var technical, soft string
	err := row.Scan(
		&job.ID,
		&job.Title,
		&job.Location,
		&job.WorkingTime,
		&job.SeniorityLevel,
		&job.Description,
		&technical,
		&soft,
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
	if err := json.Unmarshal([]byte(technical), &job.TechnicalSkills); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(soft), &job.SoftSkills); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob retrieves a job by ID.
func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	job, err := scanSQLiteJob(s.db.QueryRowContext(ctx, `
		SELECT `+sqliteJobColumns+` FROM jobs WHERE id = ?
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Store("get job", err)
	}
	return job, nil
}

// UpdateJob writes the editable job fields.
func (s *SQLiteStore) UpdateJob(ctx context.Context, job *models.Job) error {
	now := time.Now().UTC()
	technical, soft, err := encodeSkills(job)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET title = ?, location = ?, working_time = ?, seniority_level = ?, description = ?,
			technical_skills = ?, soft_skills = ?, updated_by = ?, closed = ?, updated_at = ?
		WHERE id = ?
	`, job.Title, job.Location, job.WorkingTime, job.SeniorityLevel, job.Description,
		technical, soft, job.UpdatedBy, job.Closed, now, job.ID)
	if err != nil {
		return apperr.Store("update job", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("job not found")
	}
	job.UpdatedAt = now
	return nil
}

// DeleteJob removes a job and its applications in one transaction.
func (s *SQLiteStore) DeleteJob(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, apperr.Store("begin delete job", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE job_id = ?`, id); err != nil {
		return false, apperr.Store("delete applications", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, apperr.Store("delete job", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	if err := tx.Commit(); err != nil {
		return false, apperr.Store("commit delete job", err)
	}
	return true, nil
}

// SearchJobs filters jobs and pages through the matches.
func (s *SQLiteStore) SearchJobs(ctx context.Context, f JobFilter) ([]models.Job, int, error) {
	var (
		where []string
		args  []any
	)
	eq := func(column, value string) {
		if value != "" {
			where = append(where, column+" = ?")
			args = append(args, value)
		}
	}
	eq("company_id", f.CompanyID)
	eq("working_time", f.WorkingTime)
	eq("location", f.Location)
	eq("seniority_level", f.SeniorityLevel)
	if f.Title != "" {
		where = append(where, `title LIKE ? ESCAPE '\'`)
		args = append(args, likeContains(f.Title))
	}
	if len(f.Skills) > 0 {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(jobs.technical_skills) WHERE value IN (?`+
			strings.Repeat(", ?", len(f.Skills)-1)+`))`)
		for _, skill := range f.Skills {
			args = append(args, skill)
		}
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`+clause, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Store("count jobs", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteJobColumns+` FROM jobs`+clause+`
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?
	`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, apperr.Store("search jobs", err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		job, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, 0, apperr.Store("scan job", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, total, apperr.Store("search jobs", rows.Err())
}

// CreateApplication inserts an application in pending state.
func (s *SQLiteStore) CreateApplication(ctx context.Context, app *models.Application) error {
	app.ID = uuid.NewString()
	app.CreatedAt = time.Now().UTC()
	app.UpdatedAt = app.CreatedAt
	if app.Status == "" {
		app.Status = models.ApplicationPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (id, job_id, user_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, app.ID, app.JobID, app.UserID, app.Status, app.CreatedAt, app.UpdatedAt)
	return apperr.Store("create application", err)
}

// GetApplication retrieves an application by ID.
func (s *SQLiteStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	app, err := scanApplication(s.db.QueryRowContext(ctx, `
		SELECT id, job_id, user_id, status, created_at, updated_at
		FROM applications WHERE id = ?
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Store("get application", err)
	}
	return app, nil
}

// ListApplications retrieves applications for a job with pagination.
func (s *SQLiteStore) ListApplications(ctx context.Context, jobID string, limit, offset int) ([]models.Application, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE job_id = ?`, jobID).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Store("count applications", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, user_id, status, created_at, updated_at
		FROM applications
		WHERE job_id = ?
		ORDER BY created_at ASC
		LIMIT ? OFFSET ?
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
func (s *SQLiteStore) UpdateApplicationStatus(ctx context.Context, id, from, to string) (*models.Application, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, to, time.Now().UTC(), id, from)
	if err != nil {
		return nil, apperr.Store("update application", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetApplication(ctx, id)
}

const sqliteCompanyColumns = `id, name, description, industry, address, number_of_employees,
	email, created_by, approved, banned_at, deleted_at, created_at, updated_at`

// CreateCompany inserts a company awaiting admin approval.
func (s *SQLiteStore) CreateCompany(ctx context.Context, c *models.Company) error {
	now := time.Now().UTC()
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (`+sqliteCompanyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, c.Name, c.Description, c.Industry, c.Address, c.NumberOfEmployees,
		c.Email, c.CreatedBy, c.Approved, c.BannedAt, c.DeletedAt, now, now)
	if err != nil {
		if isSQLiteUnique(err) {
			return apperr.Conflict(companyConflict)
		}
		return apperr.Store("create company", err)
	}

	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func scanSQLiteCompany(row rowScanner) (*models.Company, error) {
	c := &models.Company{}
	var bannedAt, deletedAt sql.NullTime
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
		&bannedAt,
		&deletedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bannedAt.Valid {
		t := bannedAt.Time
		c.BannedAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		c.DeletedAt = &t
	}
	return c, nil
}

// GetCompany retrieves a company by ID, including soft-deleted ones.
func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	c, err := scanSQLiteCompany(s.db.QueryRowContext(ctx, `
		SELECT `+sqliteCompanyColumns+` FROM companies WHERE id = ?
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Store("get company", err)
	}
	return c, nil
}

// UpdateCompany writes every mutable company field.
func (s *SQLiteStore) UpdateCompany(ctx context.Context, c *models.Company) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE companies
		SET name = ?, description = ?, industry = ?, address = ?, number_of_employees = ?,
			approved = ?, banned_at = ?, deleted_at = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.Description, c.Industry, c.Address, c.NumberOfEmployees,
		c.Approved, c.BannedAt, c.DeletedAt, now, c.ID)
	if err != nil {
		if isSQLiteUnique(err) {
			return apperr.Conflict(companyConflict)
		}
		return apperr.Store("update company", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("company not found")
	}
	c.UpdatedAt = now
	return nil
}

// SearchCompanies finds live companies whose name contains name.
func (s *SQLiteStore) SearchCompanies(ctx context.Context, name string, limit int) ([]models.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteCompanyColumns+` FROM companies
		WHERE deleted_at IS NULL AND name LIKE ? ESCAPE '\'
		ORDER BY name ASC
		LIMIT ?
	`, likeContains(name), limit)
	if err != nil {
		return nil, apperr.Store("search companies", err)
	}
	defer rows.Close()

	companies := []models.Company{}
	for rows.Next() {
		c, err := scanSQLiteCompany(rows)
		if err != nil {
			return nil, apperr.Store("scan company", err)
		}
		companies = append(companies, *c)
	}
	return companies, apperr.Store("search companies", rows.Err())
}

func isSQLiteUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
