package handlers

import (
	"net/http"
	"strconv"
	"time"
)

var startedAt = time.Now()

// StatsResponse is a snapshot of live socket activity.
type StatsResponse struct {
	ActiveRooms int    `json:"active_rooms"`
	Backend     string `json:"backend"`
	Uptime      string `json:"uptime"`
}

// Stats reports live room usage for dashboards.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		ActiveRooms: h.hub.Rooms(),
		Uptime:      formatUptime(time.Since(startedAt)),
	}
	if h.store != nil {
		resp.Backend = h.store.Backend()
	}
	h.JSON(w, http.StatusOK, resp)
}

// formatUptime renders a duration as a coarse human readable string.
func formatUptime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just started"
	case d < time.Hour:
		return (d / time.Minute * time.Minute).String()
	case d < 24*time.Hour:
		return (d / time.Hour * time.Hour).String()
	default:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return strconv.Itoa(days) + " days"
	}
}
