package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/metrics"
	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/store"
)

// CreateCompanyRequest represents a new company profile.
type CreateCompanyRequest struct {
	CreatedBy         string `json:"createdBy" validate:"required"`
	Name              string `json:"companyName" validate:"required,max=200"`
	Description       string `json:"description" validate:"required,max=5000"`
	Industry          string `json:"industry" validate:"required,max=100"`
	Address           string `json:"address" validate:"required,max=300"`
	NumberOfEmployees string `json:"numberOfEmployees" validate:"required,oneof=1-10 11-20 21-50 51-100 101-500 500+"`
	Email             string `json:"companyEmail" validate:"required,email,max=254"`
}

// CreateCompany registers a company owned by a Company Owner account. New
// companies cannot publish jobs until an admin approves them.
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}

	owner, err := h.store.GetUser(r.Context(), req.CreatedBy)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if owner == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if owner.Role != models.RoleCompanyOwner || owner.IsBanned() {
		h.Error(w, http.StatusForbidden, "only a Company Owner can add a company")
		return
	}

	company := &models.Company{
		Name:              sanitizeName(req.Name),
		Description:       strings.TrimSpace(req.Description),
		Industry:          sanitizeName(req.Industry),
		Address:           strings.TrimSpace(req.Address),
		NumberOfEmployees: req.NumberOfEmployees,
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		CreatedBy:         owner.ID,
	}
	if err := h.store.CreateCompany(r.Context(), company); err != nil {
		h.Fail(w, r, err)
		return
	}
	metrics.CompaniesCreated.Inc()

	h.JSON(w, http.StatusCreated, company)
}

// liveCompany loads a company that has not been soft deleted.
func (h *Handler) liveCompany(r *http.Request, id string) (*models.Company, error) {
	company, err := h.store.GetCompany(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if company == nil || company.IsDeleted() {
		return nil, apperr.NotFound("company not found")
	}
	return company, nil
}

// CompanyResponse is a company with its job listings.
type CompanyResponse struct {
	Company *models.Company `json:"company"`
	Jobs    []models.Job    `json:"jobs"`
}

// GetCompany returns a company and its jobs, oldest first.
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.liveCompany(r, chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}

	limit, offset := pagination(r, 50, 200)
	jobs, _, err := h.store.SearchJobs(r.Context(), store.JobFilter{
		CompanyID: company.ID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.Fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, CompanyResponse{Company: company, Jobs: jobs})
}

// SearchCompanies finds live companies by a case-insensitive name fragment.
func (h *Handler) SearchCompanies(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	limit, _ := pagination(r, 20, 100)

	companies, err := h.store.SearchCompanies(r.Context(), name, limit)
	if err != nil {
		h.Fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]any{"companies": companies})
}

// UpdateCompanyRequest carries the fields an owner may change. Empty fields
// are left as they are.
type UpdateCompanyRequest struct {
	UserID            string `json:"userId" validate:"required"`
	Name              string `json:"companyName" validate:"max=200"`
	Description       string `json:"description" validate:"max=5000"`
	Industry          string `json:"industry" validate:"max=100"`
	Address           string `json:"address" validate:"max=300"`
	NumberOfEmployees string `json:"numberOfEmployees" validate:"omitempty,oneof=1-10 11-20 21-50 51-100 101-500 500+"`
}

// UpdateCompany lets the owner edit the company profile.
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req UpdateCompanyRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}

	company, err := h.liveCompany(r, chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if company.CreatedBy != req.UserID {
		h.Error(w, http.StatusForbidden, "only the company owner can update the data")
		return
	}

	if name := sanitizeName(req.Name); name != "" {
		company.Name = name
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		company.Description = desc
	}
	if industry := sanitizeName(req.Industry); industry != "" {
		company.Industry = industry
	}
	if addr := strings.TrimSpace(req.Address); addr != "" {
		company.Address = addr
	}
	if req.NumberOfEmployees != "" {
		company.NumberOfEmployees = req.NumberOfEmployees
	}
	if err := h.store.UpdateCompany(r.Context(), company); err != nil {
		h.Fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, company)
}

// ActorRequest names the user performing an action.
type ActorRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// DeleteCompany soft deletes a company. The owner or an admin may do this.
func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	var req ActorRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}

	company, err := h.liveCompany(r, chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	allowed, err := h.ownerOrAdmin(r, company.CreatedBy, req.UserID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if !allowed {
		h.Error(w, http.StatusForbidden, "only admin or company owner can perform this action")
		return
	}

	now := time.Now().UTC()
	company.DeletedAt = &now
	if err := h.store.UpdateCompany(r.Context(), company); err != nil {
		h.Fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, company)
}

// ownerOrAdmin reports whether userID owns a resource or holds the Admin role.
func (h *Handler) ownerOrAdmin(r *http.Request, ownerID, userID string) (bool, error) {
	if ownerID == userID {
		return true, nil
	}
	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.Role == models.RoleAdmin && !user.IsBanned(), nil
}

// SetCompanyBanned bans or unbans a company. Banned companies cannot publish jobs.
func (h *Handler) SetCompanyBanned(w http.ResponseWriter, r *http.Request) {
	var req BanRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}

	company, err := h.liveCompany(r, chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	company.BannedAt = nil
	if *req.Banned {
		now := time.Now().UTC()
		company.BannedAt = &now
	}
	if err := h.store.UpdateCompany(r.Context(), company); err != nil {
		h.Fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, company)
}

// ApproveCompany marks a company as approved by an admin.
func (h *Handler) ApproveCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.liveCompany(r, chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	company.Approved = true
	if err := h.store.UpdateCompany(r.Context(), company); err != nil {
		h.Fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, company)
}
