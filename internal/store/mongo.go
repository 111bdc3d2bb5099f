package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/room"
)

const (
	threadsCollection      = "chats"
	usersCollection        = "users"
	jobsCollection         = "jobs"
	applicationsCollection = "applications"
	companiesCollection    = "companies"
)

// MongoStore keeps each thread as one document with an embedded message
// array, so an append is a single-document atomic update.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

type threadDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	models.Thread `bson:",inline"`
}

func (d *threadDoc) toModel() *models.Thread {
	t := d.Thread
	t.ID = d.ID.Hex()
	if t.Messages == nil {
		t.Messages = []models.Message{}
	}
	return &t
}

type userDoc struct {
	ID           string     `bson:"_id"`
	FirstName    string     `bson:"first_name"`
	LastName     string     `bson:"last_name"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password_hash"`
	Role         string     `bson:"role"`
	BannedAt     *time.Time `bson:"banned_at"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:           d.ID,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		BannedAt:     d.BannedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type jobDoc struct {
	ID              string    `bson:"_id"`
	Title           string    `bson:"job_title"`
	Location        string    `bson:"job_location"`
	WorkingTime     string    `bson:"working_time"`
	SeniorityLevel  string    `bson:"seniority_level"`
	Description     string    `bson:"job_description"`
	TechnicalSkills []string  `bson:"technical_skills"`
	SoftSkills      []string  `bson:"soft_skills"`
	AddedBy         string    `bson:"added_by"`
	UpdatedBy       string    `bson:"updated_by"`
	CompanyID       string    `bson:"company_id"`
	Closed          bool      `bson:"closed"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

type applicationDoc struct {
	ID        string    `bson:"_id"`
	JobID     string    `bson:"job_id"`
	UserID    string    `bson:"user_id"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and ensures the indexes the store relies on.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(threadsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_pair_key"),
	})
	if err != nil {
		return err
	}
	_, err = s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	if err != nil {
		return err
	}
	_, err = s.db.Collection(applicationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "job_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return err
	}
	_, err = s.db.Collection(jobsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return err
	}
	_, err = s.db.Collection(companiesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "company_name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_company_name"),
		},
		{
			Keys:    bson.D{{Key: "company_email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_company_email"),
		},
	})
	return err
}

// Backend names the store in logs and health output.
func (s *MongoStore) Backend() string { return "mongo" }

// Close disconnects the client.
func (s *MongoStore) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// Ping checks the server connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// FindThread retrieves the thread for a pair.
func (s *MongoStore) FindThread(ctx context.Context, pair room.Pair) (*models.Thread, error) {
	var doc threadDoc
	err := s.db.Collection(threadsCollection).
		FindOne(ctx, bson.M{"pair_key": string(pair.ID())}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Store("find thread", err)
	}
	return doc.toModel(), nil
}

// CreateThread creates an empty thread, or returns the existing one.
func (s *MongoStore) CreateThread(ctx context.Context, pair room.Pair, senderID string) (*models.Thread, error) {
	thread, _, err := s.FindOrCreateThread(ctx, pair, senderID)
	return thread, err
}

// FindOrCreateThread upserts on the unique pair_key index. Fields are only
// written on insert, so an existing thread is returned untouched.
func (s *MongoStore) FindOrCreateThread(ctx context.Context, pair room.Pair, senderID string) (*models.Thread, bool, error) {
	now := time.Now().UTC()
	coll := s.db.Collection(threadsCollection)
	filter := bson.M{"pair_key": string(pair.ID())}
	update := bson.M{"$setOnInsert": bson.M{
		"pair_key":    string(pair.ID()),
		"sender_id":   senderID,
		"receiver_id": pair.Other(senderID),
		"messages":    bson.A{},
		"created_at":  now,
		"updated_at":  now,
	}}

	res, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	created := err == nil && res.UpsertedCount == 1
	// Two upserts racing on a unique index can surface E11000 for the loser;
	// the winner's document is then read back below.
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, false, apperr.Store("upsert thread", err)
	}

	var doc threadDoc
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, false, apperr.Store("load thread", err)
	}
	return doc.toModel(), created, nil
}

// AppendMessage pushes the message onto the thread document.
func (s *MongoStore) AppendMessage(ctx context.Context, threadID, senderID, body string) (*models.Thread, *models.Message, error) {
	oid, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return nil, nil, apperr.NotFound("thread not found")
	}

	msg := &models.Message{
		ID:       ulid.Make().String(),
		SenderID: senderID,
		Body:     body,
		// BSON dates have millisecond precision.
		SentAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	var doc threadDoc
	err = s.db.Collection(threadsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$push": bson.M{"messages": msg},
			"$set":  bson.M{"updated_at": msg.SentAt},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, apperr.NotFound("thread not found")
		}
		return nil, nil, apperr.Store("append message", err)
	}
	return doc.toModel(), msg, nil
}

// CreateUser inserts a user document.
func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDoc{
		ID:           uuid.NewString(),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.db.Collection(usersCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("email already registered")
		}
		return apperr.Store("create user", err)
	}
	user.ID = doc.ID
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUser retrieves a user by ID.
func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by email.
func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Store("get user", err)
	}
	return doc.toModel(), nil
}

// SetUserBanned bans or unbans a user and returns the updated record.
func (s *MongoStore) SetUserBanned(ctx context.Context, id string, banned bool) (*models.User, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	var bannedAt any
	if banned {
		bannedAt = now
	}

	var doc userDoc
	err := s.db.Collection(usersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"banned_at": bannedAt, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Store("ban user", err)
	}
	return doc.toModel(), nil
}

func (d *jobDoc) toModel() *models.Job {
	return &models.Job{
		ID:              d.ID,
		Title:           d.Title,
		Location:        d.Location,
		WorkingTime:     d.WorkingTime,
		SeniorityLevel:  d.SeniorityLevel,
		Description:     d.Description,
		TechnicalSkills: nonNil(d.TechnicalSkills),
		SoftSkills:      nonNil(d.SoftSkills),
		AddedBy:         d.AddedBy,
		UpdatedBy:       d.UpdatedBy,
		CompanyID:       d.CompanyID,
		Closed:          d.Closed,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// CreateJob inserts a job document.
func (s *MongoStore) CreateJob(ctx context.Context, job *models.Job) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := jobDoc{
		ID:              uuid.NewString(),
		Title:           job.Title,
		Location:        job.Location,
		WorkingTime:     job.WorkingTime,
		SeniorityLevel:  job.SeniorityLevel,
		Description:     job.Description,
		TechnicalSkills: nonNil(job.TechnicalSkills),
		SoftSkills:      nonNil(job.SoftSkills),
		AddedBy:         job.AddedBy,
		UpdatedBy:       job.UpdatedBy,
		CompanyID:       job.CompanyID,
		Closed:          job.Closed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := s.db.Collection(jobsCollection).InsertOne(ctx, doc); err != nil {
		return apperr.Store("create job", err)
	}
	job.ID = doc.ID
	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

// GetJob retrieves a job by ID.
func (s *MongoStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var doc jobDoc
	err := s.db.Collection(jobsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Store("get job", err)
	}
	return doc.toModel(), nil
}

// UpdateJob writes the editable job fields.
func (s *MongoStore) UpdateJob(ctx context.Context, job *models.Job) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := s.db.Collection(jobsCollection).UpdateOne(ctx,
		bson.M{"_id": job.ID},
		bson.M{"$set": bson.M{
			"job_title":        job.Title,
			"job_location":     job.Location,
			"working_time":     job.WorkingTime,
			"seniority_level":  job.SeniorityLevel,
			"job_description":  job.Description,
			"technical_skills": nonNil(job.TechnicalSkills),
			"soft_skills":      nonNil(job.SoftSkills),
			"updated_by":       job.UpdatedBy,
			"closed":           job.Closed,
			"updated_at":       now,
		}},
	)
	if err != nil {
		return apperr.Store("update job", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("job not found")
	}
	job.UpdatedAt = now
	return nil
}

// DeleteJob removes the job document, then its applications. A failure
// between the two leaves orphaned applications that no route can reach.
func (s *MongoStore) DeleteJob(ctx context.Context, id string) (bool, error) {
	res, err := s.db.Collection(jobsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, apperr.Store("delete job", err)
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	if _, err := s.db.Collection(applicationsCollection).DeleteMany(ctx, bson.M{"job_id": id}); err != nil {
		return true, apperr.Store("delete applications", err)
	}
	return true, nil
}

// SearchJobs filters jobs and pages through the matches.
func (s *MongoStore) SearchJobs(ctx context.Context, f JobFilter) ([]models.Job, int, error) {
	filter := bson.M{}
	eq := func(field, value string) {
		if value != "" {
			filter[field] = value
		}
	}
	eq("company_id", f.CompanyID)
	eq("working_time", f.WorkingTime)
	eq("job_location", f.Location)
	eq("seniority_level", f.SeniorityLevel)
	if f.Title != "" {
		filter["job_title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Title), Options: "i"}
	}
	if len(f.Skills) > 0 {
		filter["technical_skills"] = bson.M{"$in": f.Skills}
	}

	coll := s.db.Collection(jobsCollection)
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Store("count jobs", err)
	}

	cur, err := coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(f.Offset)).
		SetLimit(int64(f.Limit)))
	if err != nil {
		return nil, 0, apperr.Store("search jobs", err)
	}
	defer cur.Close(ctx)

	var docs []jobDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, apperr.Store("decode jobs", err)
	}
	jobs := make([]models.Job, 0, len(docs))
	for i := range docs {
		jobs = append(jobs, *docs[i].toModel())
	}
	return jobs, int(total), nil
}

func (d *applicationDoc) toModel() *models.Application {
	return &models.Application{
		ID:        d.ID,
		JobID:     d.JobID,
		UserID:    d.UserID,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// CreateApplication inserts an application document in pending state.
func (s *MongoStore) CreateApplication(ctx context.Context, app *models.Application) error {
	if app.Status == "" {
		app.Status = models.ApplicationPending
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := applicationDoc{
		ID:        uuid.NewString(),
		JobID:     app.JobID,
		UserID:    app.UserID,
		Status:    app.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.Collection(applicationsCollection).InsertOne(ctx, doc); err != nil {
		return apperr.Store("create application", err)
	}
	app.ID = doc.ID
	app.CreatedAt = now
	app.UpdatedAt = now
	return nil
}

// GetApplication retrieves an application by ID.
func (s *MongoStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	var doc applicationDoc
	err := s.db.Collection(applicationsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Store("get application", err)
	}
	return doc.toModel(), nil
}

// ListApplications retrieves applications for a job with pagination.
func (s *MongoStore) ListApplications(ctx context.Context, jobID string, limit, offset int) ([]models.Application, int, error) {
	coll := s.db.Collection(applicationsCollection)
	filter := bson.M{"job_id": jobID}

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Store("count applications", err)
	}

	cur, err := coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, apperr.Store("list applications", err)
	}
	defer cur.Close(ctx)

	var docs []applicationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, apperr.Store("decode applications", err)
	}

	apps := make([]models.Application, 0, len(docs))
	for i := range docs {
		apps = append(apps, *docs[i].toModel())
	}
	return apps, int(total), nil
}

// UpdateApplicationStatus sets the status only if it still equals from.
func (s *MongoStore) UpdateApplicationStatus(ctx context.Context, id, from, to string) (*models.Application, error) {
	var doc applicationDoc
	err := s.db.Collection(applicationsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC().Truncate(time.Millisecond)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Store("update application", err)
	}
	return doc.toModel(), nil
}

type companyDoc struct {
	ID                string     `bson:"_id"`
	Name              string     `bson:"company_name"`
	Description       string     `bson:"description"`
	Industry          string     `bson:"industry"`
	Address           string     `bson:"address"`
	NumberOfEmployees string     `bson:"number_of_employees"`
	Email             string     `bson:"company_email"`
	CreatedBy         string     `bson:"created_by"`
	Approved          bool       `bson:"approved_by_admin"`
	BannedAt          *time.Time `bson:"banned_at"`
	DeletedAt         *time.Time `bson:"deleted_at"`
	CreatedAt         time.Time  `bson:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at"`
}

func (d *companyDoc) toModel() *models.Company {
	return &models.Company{
		ID:                d.ID,
		Name:              d.Name,
		Description:       d.Description,
		Industry:          d.Industry,
		Address:           d.Address,
		NumberOfEmployees: d.NumberOfEmployees,
		Email:             d.Email,
		CreatedBy:         d.CreatedBy,
		Approved:          d.Approved,
		BannedAt:          d.BannedAt,
		DeletedAt:         d.DeletedAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// truncMillis keeps optional timestamps at BSON date precision.
func truncMillis(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}

// CreateCompany inserts a company awaiting admin approval.
func (s *MongoStore) CreateCompany(ctx context.Context, c *models.Company) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := companyDoc{
		ID:                uuid.NewString(),
		Name:              c.Name,
		Description:       c.Description,
		Industry:          c.Industry,
		Address:           c.Address,
		NumberOfEmployees: c.NumberOfEmployees,
		Email:             c.Email,
		CreatedBy:         c.CreatedBy,
		Approved:          c.Approved,
		BannedAt:          truncMillis(c.BannedAt),
		DeletedAt:         truncMillis(c.DeletedAt),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := s.db.Collection(companiesCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict(companyConflict)
		}
		return apperr.Store("create company", err)
	}
	c.ID = doc.ID
	c.BannedAt = doc.BannedAt
	c.DeletedAt = doc.DeletedAt
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetCompany retrieves a company by ID, including soft-deleted ones.
func (s *MongoStore) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	var doc companyDoc
	err := s.db.Collection(companiesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Store("get company", err)
	}
	return doc.toModel(), nil
}

// UpdateCompany writes every mutable company field.
func (s *MongoStore) UpdateCompany(ctx context.Context, c *models.Company) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	c.BannedAt = truncMillis(c.BannedAt)
	c.DeletedAt = truncMillis(c.DeletedAt)
	res, err := s.db.Collection(companiesCollection).UpdateOne(ctx,
		bson.M{"_id": c.ID},
		bson.M{"$set": bson.M{
			"company_name":        c.Name,
			"description":         c.Description,
			"industry":            c.Industry,
			"address":             c.Address,
			"number_of_employees": c.NumberOfEmployees,
			"approved_by_admin":   c.Approved,
			"banned_at":           c.BannedAt,
			"deleted_at":          c.DeletedAt,
			"updated_at":          now,
		}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict(companyConflict)
		}
		return apperr.Store("update company", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("company not found")
	}
	c.UpdatedAt = now
	return nil
}

// SearchCompanies finds live companies whose name contains name.
func (s *MongoStore) SearchCompanies(ctx context.Context, name string, limit int) ([]models.Company, error) {
	filter := bson.M{
		"deleted_at":   nil,
		"company_name": primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"},
	}
	cur, err := s.db.Collection(companiesCollection).Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "company_name", Value: 1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, apperr.Store("search companies", err)
	}
	defer cur.Close(ctx)

	var docs []companyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Store("decode companies", err)
	}
	companies := make([]models.Company, 0, len(docs))
	for i := range docs {
		companies = append(companies, *docs[i].toModel())
	}
	return companies, nil
}
