package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/eldtechnologies/jobsearch/internal/metrics"
	"github.com/eldtechnologies/jobsearch/internal/models"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Role      string `json:"role" validate:"omitempty,oneof=User HR 'Company Owner'"`
}

// Register creates an account. Passwords are stored as bcrypt hashes and
// the role defaults to User. Admin accounts cannot be self-registered. A taken
// email is rejected before hashing; the unique index still catches races.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if existing != nil {
		h.Error(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		FirstName:    sanitizeName(req.FirstName),
		LastName:     sanitizeName(req.LastName),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		h.Fail(w, r, err)
		return
	}
	metrics.UsersRegistered.Inc()

	h.JSON(w, http.StatusCreated, user)
}

// GetUser returns a user's public profile.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}

	h.JSON(w, http.StatusOK, user)
}

// BanRequest represents the ban toggle body.
type BanRequest struct {
	Banned *bool `json:"banned" validate:"required"`
}

// SetBanned bans or unbans a user. Banned users can no longer send messages.
func (h *Handler) SetBanned(w http.ResponseWriter, r *http.Request) {
	var req BanRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}

	user, err := h.store.SetUserBanned(r.Context(), chi.URLParam(r, "id"), *req.Banned)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}

	h.JSON(w, http.StatusOK, user)
}
