package handlers

import (
	"context"
	"net/http"
	"os"
	"time"
)

const version = "0.1.0"

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"`            // "pass", "fail" or "skip"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Version   string           `json:"version"`
	Instance  string           `json:"instance,omitempty"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

func ping(ctx context.Context, fn func(context.Context) error) Check {
	start := time.Now()
	if err := fn(ctx); err != nil {
		return Check{Status: "fail", Message: "connection failed"}
	}
	return Check{Status: "pass", Latency: time.Since(start).String()}
}

// Health reports the state of the chat store and, when configured, Redis.
// Redis is optional, so its absence does not degrade the service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]Check)
	allHealthy := true

	if h.store != nil {
		c := ping(ctx, h.store.Ping)
		checks[h.store.Backend()] = c
		allHealthy = allHealthy && c.Status == "pass"
	} else {
		checks["store"] = Check{Status: "fail", Message: "not configured"}
		allHealthy = false
	}

	if h.redis != nil {
		c := ping(ctx, h.redis.Ping)
		checks["redis"] = c
		allHealthy = allHealthy && c.Status == "pass"
	} else {
		checks["redis"] = Check{Status: "skip", Message: "not configured"}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	h.JSON(w, statusCode, HealthResponse{
		Status:    status,
		Version:   version,
		Instance:  os.Getenv("HOSTNAME"),
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// RootResponse represents the root endpoint response.
type RootResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Backend   string   `json:"backend"`
	Socket    string   `json:"socket"`
	Endpoints []string `json:"endpoints"`
}

// Root handles the API info endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	backend := ""
	if h.store != nil {
		backend = h.store.Backend()
	}
	h.JSON(w, http.StatusOK, RootResponse{
		Name:    "jobsearch",
		Version: version,
		Backend: backend,
		Socket:  "/ws",
		Endpoints: []string{
			"POST /api/chat",
			"GET /api/chat/history/{userId}?senderId=",
			"POST /api/users",
			"GET /api/users/{id}",
			"PUT /api/admin/users/{id}/ban",
			"POST /api/jobs",
			"GET /api/jobs/{id}",
			"POST /api/jobs/{id}/apply",
			"GET /api/jobs/{id}/applications",
			"GET /api/stats",
		},
	})
}
