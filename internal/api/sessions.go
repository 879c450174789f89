package api

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/feedback-coach/internal/domain"
	"github.com/ashureev/feedback-coach/internal/store"
)

// SessionsHandler serves the saved-session history and dashboard stats.
type SessionsHandler struct {
	store store.SessionStore
	now   func() time.Time
}

// NewSessionsHandler creates a sessions handler over s.
func NewSessionsHandler(s store.SessionStore) *SessionsHandler {
	return &SessionsHandler{store: s, now: time.Now}
}

// RegisterRoutes registers session routes.
func (h *SessionsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Delete("/", h.Clear)
		r.Get("/stats", h.Stats)
	})
}

// SessionStats summarizes a window of saved sessions.
type SessionStats struct {
	Total         int            `json:"total"`
	ByDifficulty  map[string]int `json:"byDifficulty"`
	TopDifficulty string         `json:"topDifficulty"`
}

// List handles GET /api/sessions.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, FilterRecent(h.store.List(r.Context()), days, h.now()))
}

// Create handles POST /api/sessions. Write failures are logged and the
// record is still returned.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft domain.SessionDraft
	if !Decode(w, r, &draft) {
		return
	}
	if draft.Scenario.ID == "" && draft.Scenario.Title == "" {
		Error(w, http.StatusBadRequest, "Missing scenario")
		return
	}
	for _, m := range draft.Messages {
		if !domain.ValidRole(m.Role) {
			Error(w, http.StatusBadRequest, "invalid message role")
			return
		}
	}

	session, err := h.store.Append(r.Context(), draft)
	if err != nil {
		slog.Error("Error saving session", "error", err, "session_id", session.ID)
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "session": session})
}

// Clear handles DELETE /api/sessions.
func (h *SessionsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		slog.Error("Error clearing sessions", "error", err)
		Error(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Stats handles GET /api/sessions/stats.
func (h *SessionsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, ComputeStats(FilterRecent(h.store.List(r.Context()), days, h.now())))
}

func parseDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 0, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		Error(w, http.StatusBadRequest, "days must be a non-negative integer")
		return 0, false
	}
	return days, true
}

// FilterRecent keeps sessions created within the last days days of now.
// Zero days keeps everything. Order is preserved.
func FilterRecent(sessions []domain.Session, days int, now time.Time) []domain.Session {
	if days <= 0 {
		return sessions
	}
	cutoff := now.AddDate(0, 0, -days)
	out := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.Timestamp.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// ComputeStats counts sessions per difficulty. Ties for the top
// difficulty go to the alphabetically first label.
func ComputeStats(sessions []domain.Session) SessionStats {
	stats := SessionStats{
		Total:         len(sessions),
		ByDifficulty:  map[string]int{},
		TopDifficulty: "N/A",
	}
	for _, s := range sessions {
		stats.ByDifficulty[string(s.Scenario.Difficulty)]++
	}

	labels := make([]string, 0, len(stats.ByDifficulty))
	for label := range stats.ByDifficulty {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	best := 0
	for _, label := range labels {
		if n := stats.ByDifficulty[label]; n > best {
			best = n
			stats.TopDifficulty = label
		}
	}
	return stats
}
