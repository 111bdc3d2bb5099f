package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/chat"
	"github.com/eldtechnologies/jobsearch/internal/realtime"
	"github.com/eldtechnologies/jobsearch/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store    store.DataStore
	redis    *store.RedisStore
	chat     *chat.Service
	hub      *realtime.Hub
	validate *validator.Validate
}

// NewHandler creates a new Handler. redis may be nil.
func NewHandler(ds store.DataStore, redis *store.RedisStore, chatService *chat.Service, hub *realtime.Hub) *Handler {
	return &Handler{
		store:    ds,
		redis:    redis,
		chat:     chatService,
		hub:      hub,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// statusOf maps an error code to its HTTP status.
func statusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotAuthorized:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes err as a JSON error. Store and internal failures are logged and
// reported with a generic message.
func (h *Handler) Fail(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	status := statusOf(code)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("code", string(code)).Msg("request failed")
		h.Error(w, status, "internal error")
		return
	}
	h.Error(w, status, apperr.ReasonOf(err, http.StatusText(status)))
}

// decode reads a JSON body into dst and runs struct validation.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperr.New(apperr.CodeValidation, validationReason(err), err)
	}
	return nil
}

// validationReason turns the first failing field into a client message.
func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "invalid email format"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "max":
		return field + " is too long"
	case "min":
		return field + " is too short"
	default:
		return "invalid " + field
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// maxNameRunes bounds names, titles and skills after sanitizing.
const maxNameRunes = 100

// sanitizeName trims and limits name to 100 characters, removing control
// characters and invalid UTF-8.
func sanitizeName(name string) string {
	name = strings.ToValidUTF8(name, "")
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = strings.TrimSpace(string([]rune(name)[:maxNameRunes]))
	}
	return name
}

// pagination reads limit/offset query params with bounds.
func pagination(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
