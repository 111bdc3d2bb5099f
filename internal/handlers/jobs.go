package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/metrics"
	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/realtime"
	"github.com/eldtechnologies/jobsearch/internal/room"
	"github.com/eldtechnologies/jobsearch/internal/store"
)

// CreateJobRequest represents a new job listing.
type CreateJobRequest struct {
	AddedBy         string   `json:"addedBy" validate:"required"`
	Title           string   `json:"jobTitle" validate:"required,max=200"`
	Location        string   `json:"jobLocation" validate:"required,oneof=onsite remotely hybrid"`
	WorkingTime     string   `json:"workingTime" validate:"required,oneof=part-time full-time"`
	SeniorityLevel  string   `json:"seniorityLevel" validate:"required,oneof=Fresh Junior Mid-Level Senior Team-Lead CTO VP"`
	Description     string   `json:"jobDescription" validate:"required,max=10000"`
	TechnicalSkills []string `json:"technicalSkills" validate:"max=50,dive,max=100"`
	SoftSkills      []string `json:"softSkills" validate:"max=50,dive,max=100"`
	CompanyID       string   `json:"company"`
}

// CreateJob publishes a job. Only HR and Company Owner accounts may publish,
// and a job attached to a company needs that company to be approved and not
// banned.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}

	author, err := h.store.GetUser(r.Context(), req.AddedBy)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if author == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if !author.CanRecruit() || author.IsBanned() {
		h.Error(w, http.StatusForbidden, "only HR or Company Owner can add jobs")
		return
	}
	if req.CompanyID != "" {
		company, err := h.liveCompany(r, req.CompanyID)
		if err != nil {
			h.Fail(w, r, err)
			return
		}
		if !company.CanHire() {
			h.Error(w, http.StatusForbidden, "company is not active")
			return
		}
	}

	job := &models.Job{
		Title:           sanitizeName(req.Title),
		Location:        req.Location,
		WorkingTime:     req.WorkingTime,
		SeniorityLevel:  req.SeniorityLevel,
		Description:     req.Description,
		TechnicalSkills: cleanSkills(req.TechnicalSkills),
		SoftSkills:      cleanSkills(req.SoftSkills),
		AddedBy:         author.ID,
		CompanyID:       req.CompanyID,
	}
	if err := h.store.CreateJob(r.Context(), job); err != nil {
		h.Fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusCreated, job)
}

// cleanSkills trims, drops empties and removes duplicates.
func cleanSkills(skills []string) []string {
	trimmed := lo.Map(skills, func(s string, _ int) string { return sanitizeName(s) })
	return lo.Uniq(lo.Compact(trimmed))
}

// GetJob returns a job listing.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.store.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "job not found")
		return
	}

	h.JSON(w, http.StatusOK, job)
}

// ApplyRequest represents an application to a job.
type ApplyRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// Apply records an application and pushes newApplication to everyone
// watching the job room.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Closed {
		h.Fail(w, r, apperr.Conflict("job is closed"))
		return
	}

	applicant, err := h.store.GetUser(ctx, req.UserID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if applicant == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if applicant.Role != models.RoleUser || applicant.IsBanned() {
		h.Error(w, http.StatusForbidden, "only users can apply to jobs")
		return
	}

	app := &models.Application{JobID: job.ID, UserID: applicant.ID}
	if err := h.store.CreateApplication(ctx, app); err != nil {
		h.Fail(w, r, err)
		return
	}
	metrics.ApplicationsSubmitted.Inc()

	h.hub.Broadcast(room.JobRoom(job.ID), realtime.EventNewApplication, app)

	h.JSON(w, http.StatusCreated, app)
}

// ApplicationsResponse is a page of applications.
type ApplicationsResponse struct {
	Applications []models.Application `json:"applications"`
	Total        int                  `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// ListApplications returns a job's applications, oldest first.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	limit, offset := pagination(r, 50, 200)

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "job not found")
		return
	}

	apps, total, err := h.store.ListApplications(r.Context(), jobID, limit, offset)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}

	h.JSON(w, http.StatusOK, ApplicationsResponse{
		Applications: apps,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

// UpdateJobRequest carries the fields the job owner may change. Empty fields
// are left as they are.
type UpdateJobRequest struct {
	UserID          string   `json:"userId" validate:"required"`
	Title           string   `json:"jobTitle" validate:"max=200"`
	Location        string   `json:"jobLocation" validate:"omitempty,oneof=onsite remotely hybrid"`
	WorkingTime     string   `json:"workingTime" validate:"omitempty,oneof=part-time full-time"`
	SeniorityLevel  string   `json:"seniorityLevel" validate:"omitempty,oneof=Fresh Junior Mid-Level Senior Team-Lead CTO VP"`
	Description     string   `json:"jobDescription" validate:"max=10000"`
	TechnicalSkills []string `json:"technicalSkills" validate:"max=50,dive,max=100"`
	SoftSkills      []string `json:"softSkills" validate:"max=50,dive,max=100"`
	Closed          *bool    `json:"closed"`
}

// UpdateJob lets the user who published a job edit it or close it.
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var req UpdateJobRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}

	job, err := h.store.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "job not found")
		return
	}
	if job.AddedBy != req.UserID {
		h.Error(w, http.StatusForbidden, "only the job owner can update the job")
		return
	}

	if title := sanitizeName(req.Title); title != "" {
		job.Title = title
	}
	if req.Location != "" {
		job.Location = req.Location
	}
	if req.WorkingTime != "" {
		job.WorkingTime = req.WorkingTime
	}
	if req.SeniorityLevel != "" {
		job.SeniorityLevel = req.SeniorityLevel
	}
	if req.Description != "" {
		job.Description = req.Description
	}
	if req.TechnicalSkills != nil {
		job.TechnicalSkills = cleanSkills(req.TechnicalSkills)
	}
	if req.SoftSkills != nil {
		job.SoftSkills = cleanSkills(req.SoftSkills)
	}
	if req.Closed != nil {
		job.Closed = *req.Closed
	}
	job.UpdatedBy = req.UserID

	if err := h.store.UpdateJob(r.Context(), job); err != nil {
		h.Fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, job)
}

// DeleteJob removes a job and its applications. The publisher, the owner of
// the job's company or an admin may do this.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	var req ActorRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "job not found")
		return
	}

	allowed, err := h.managesJob(r, job, req.UserID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if !allowed {
		allowed, err = h.ownerOrAdmin(r, job.AddedBy, req.UserID)
		if err != nil {
			h.Fail(w, r, err)
			return
		}
	}
	if !allowed {
		h.Error(w, http.StatusForbidden, "only the job owner, its company owner or an admin can delete the job")
		return
	}

	deleted, err := h.store.DeleteJob(ctx, job.ID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if !deleted {
		h.Error(w, http.StatusNotFound, "job not found")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"id": job.ID, "status": "deleted"})
}

// managesJob reports whether userID published the job or owns its company.
func (h *Handler) managesJob(r *http.Request, job *models.Job, userID string) (bool, error) {
	if job.AddedBy == userID {
		return true, nil
	}
	if job.CompanyID == "" {
		return false, nil
	}
	company, err := h.store.GetCompany(r.Context(), job.CompanyID)
	if err != nil {
		return false, err
	}
	return company != nil && company.CreatedBy == userID, nil
}

// JobsResponse is a page of jobs.
type JobsResponse struct {
	Jobs   []models.Job `json:"jobs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// SearchJobs lists jobs matching the query filters, oldest first.
// technicalSkills is a comma separated list; a job matches if it lists any.
func (h *Handler) SearchJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skills := cleanSkills(strings.Split(q.Get("technicalSkills"), ","))
	if len(skills) > 50 {
		h.Error(w, http.StatusBadRequest, "technicalSkills has too many entries")
		return
	}
	h.searchJobs(w, r, store.JobFilter{
		WorkingTime:    q.Get("workingTime"),
		Location:       q.Get("jobLocation"),
		SeniorityLevel: q.Get("seniorityLevel"),
		Title:          sanitizeName(q.Get("jobTitle")),
		Skills:         skills,
	})
}

// CompanyJobs lists the jobs attached to a live company.
func (h *Handler) CompanyJobs(w http.ResponseWriter, r *http.Request) {
	company, err := h.liveCompany(r, chi.URLParam(r, "companyId"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	h.searchJobs(w, r, store.JobFilter{CompanyID: company.ID})
}

func (h *Handler) searchJobs(w http.ResponseWriter, r *http.Request, filter store.JobFilter) {
	filter.Limit, filter.Offset = pagination(r, 10, 100)

	jobs, total, err := h.store.SearchJobs(r.Context(), filter)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}

	h.JSON(w, http.StatusOK, JobsResponse{
		Jobs:   jobs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// ApplicationStatusRequest moves an application forward.
type ApplicationStatusRequest struct {
	UserID string `json:"userId" validate:"required"`
	Status string `json:"status" validate:"required,oneof=viewed 'in consideration' accepted rejected"`
}

// UpdateApplicationStatus records a recruiter's decision on an application
// and pushes applicationStatus to the job room. Statuses only move forward;
// accepted and rejected are final.
func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req ApplicationStatusRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}
	ctx := r.Context()

	app, err := h.store.GetApplication(ctx, chi.URLParam(r, "applicationId"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if app == nil {
		h.Error(w, http.StatusNotFound, "application not found")
		return
	}

	recruiter, err := h.store.GetUser(ctx, req.UserID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if recruiter == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if !recruiter.CanRecruit() || recruiter.IsBanned() {
		h.Error(w, http.StatusForbidden, "only HR or Company Owner can perform this action")
		return
	}

	job, err := h.store.GetJob(ctx, app.JobID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "job not found")
		return
	}
	allowed, err := h.managesJob(r, job, recruiter.ID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if !allowed {
		h.Error(w, http.StatusForbidden, "only the job owner or its company owner can perform this action")
		return
	}

	if !models.CanTransition(app.Status, req.Status) {
		h.Fail(w, r, apperr.Conflict("cannot move application from "+app.Status+" to "+req.Status))
		return
	}
	updated, err := h.store.UpdateApplicationStatus(ctx, app.ID, app.Status, req.Status)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if updated == nil {
		h.Fail(w, r, apperr.Conflict("application was updated concurrently"))
		return
	}
	metrics.ApplicationDecisions.WithLabelValues(updated.Status).Inc()

	h.hub.Broadcast(room.JobRoom(job.ID), realtime.EventApplicationSet, updated)

	h.JSON(w, http.StatusOK, updated)
}
