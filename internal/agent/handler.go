package agent

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/feedback-coach/internal/api"
	"github.com/ashureev/feedback-coach/internal/domain"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// Handler serves the stateless collaborator endpoints.
type Handler struct {
	collab      Collaborator
	log         ConversationLogger
	maxBodySize int64
}

// NewHandler creates a collaborator handler. A nil conversation logger
// disables transcript logging.
func NewHandler(collab Collaborator, conversationLogger ConversationLogger) *Handler {
	if conversationLogger == nil {
		conversationLogger = noopConversationLogger{}
	}
	return &Handler{
		collab:      collab,
		log:         conversationLogger,
		maxBodySize: defaultMaxRequestBodySize,
	}
}

// RegisterRoutes registers collaborator routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)
	r.Post("/api/coaching", h.HandleCoaching)
	r.Post("/api/generate-scenario", h.HandleGenerateScenario)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// decodeChat validates the shared body of /api/chat and /api/coaching.
func (h *Handler) decodeChat(w http.ResponseWriter, r *http.Request) (ChatRequest, domain.Difficulty, bool) {
	var req ChatRequest
	if !h.decode(w, r, &req) {
		return req, "", false
	}
	if req.Scenario == nil || req.History == nil || req.Difficulty == "" {
		api.Error(w, http.StatusBadRequest, "Missing required fields")
		return req, "", false
	}
	difficulty, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil || !difficulty.IsConcrete() {
		api.Error(w, http.StatusBadRequest, "difficulty must be Basic, Moderate or Advanced")
		return req, "", false
	}
	for _, m := range req.History {
		if !domain.ValidRole(m.Role) {
			api.Error(w, http.StatusBadRequest, "invalid message role")
			return req, "", false
		}
	}
	return req, difficulty, true
}

// HandleChat handles POST /api/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	req, difficulty, ok := h.decodeChat(w, r)
	if !ok {
		return
	}
	reqID := chiMiddleware.GetReqID(r.Context())

	slog.Info("Employee reply request",
		"scenario_id", req.Scenario.ID,
		"difficulty", difficulty,
		"history_length", len(req.History),
	)
	if n := len(req.History); n > 0 && req.History[n-1].Role == domain.RoleUser {
		h.logEvent(reqID, "outbound", "manager_message", req.History[n-1].Content, nil)
	}

	start := time.Now()
	reply, err := h.collab.EmployeeReply(r.Context(), *req.Scenario, req.History, difficulty)
	if err != nil {
		slog.Error("Employee reply failed", "error", err, "request_id", reqID)
		api.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	h.logEvent(reqID, "inbound", "employee_reply", reply, map[string]any{
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	api.JSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// HandleCoaching handles POST /api/coaching.
func (h *Handler) HandleCoaching(w http.ResponseWriter, r *http.Request) {
	req, difficulty, ok := h.decodeChat(w, r)
	if !ok {
		return
	}
	reqID := chiMiddleware.GetReqID(r.Context())

	result, err := h.collab.Coaching(r.Context(), *req.Scenario, req.History, difficulty)
	if err != nil {
		slog.Error("Coaching failed", "error", err, "request_id", reqID)
		api.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	h.logEvent(reqID, "inbound", "coaching_summary", result.Summary, map[string]any{
		"strengths":    len(result.Strengths),
		"improvements": len(result.Improvements),
	})

	api.JSON(w, http.StatusOK, result.Normalized())
}

// HandleGenerateScenario handles POST /api/generate-scenario.
func (h *Handler) HandleGenerateScenario(w http.ResponseWriter, r *http.Request) {
	var req GenerateScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	partial := domain.CustomScenarioDetails{}
	if req.PartialScenario != nil {
		partial = *req.PartialScenario
	}

	filled, err := h.collab.CompleteScenario(r.Context(), partial)
	if err != nil {
		slog.Error("Scenario generation failed", "error", err, "request_id", chiMiddleware.GetReqID(r.Context()))
		api.Error(w, http.StatusInternalServerError, "Failed to generate scenario")
		return
	}
	api.JSON(w, http.StatusOK, filled)
}

func (h *Handler) logEvent(sessionID, direction, eventType, content string, meta map[string]any) {
	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		SessionID:  sessionID,
		Channel:    ChannelChatHTTP,
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta:       meta,
	})
}
