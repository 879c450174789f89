package practice

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/feedback-coach/internal/api"
	"github.com/ashureev/feedback-coach/internal/domain"
)

const maxRequestBodySize = 1 << 20

// Handler exposes practice machines over JSON.
type Handler struct {
	mgr *Manager
}

// NewHandler creates a practice API handler.
func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

// RegisterRoutes registers practice routes. limit, when non-nil, guards the
// routes that call the language model.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Route("/api/practice", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleDelete)
			r.Post("/start", h.HandleStart)
			r.Post("/regenerate", h.HandleRegenerate)
			r.Get("/export", h.HandleExport)
			r.Group(func(r chi.Router) {
				if limit != nil {
					r.Use(limit)
				}
				r.Post("/messages", h.HandleSubmit)
				r.Post("/end", h.HandleEnd)
			})
		})
	})
}

type regenerateRequest struct {
	Difficulty string                       `json:"difficulty"`
	Mode       Mode                         `json:"mode"`
	Custom     domain.CustomScenarioDetails `json:"custom"`
	Confirmed  bool                         `json:"confirmed"`
}

func (req regenerateRequest) options() (RegenerateOptions, error) {
	opts := RegenerateOptions{Mode: req.Mode, Custom: req.Custom, Confirmed: req.Confirmed}
	if req.Difficulty != "" {
		d, err := domain.ParseDifficulty(req.Difficulty)
		if err != nil {
			return opts, err
		}
		opts.Difficulty = d
	}
	return opts, nil
}

type submitRequest struct {
	Content string `json:"content"`
}

type errorResponse struct {
	Error   string    `json:"error"`
	Session *Snapshot `json:"session,omitempty"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeBody(w, r, v, false)
}

// decodeBody decodes JSON into v; an empty body is accepted when optional.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConfirmationRequired),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNotActive),
		errors.Is(err, ErrReplyInFlight),
		errors.Is(err, ErrSessionReset):
		return http.StatusConflict
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrIncompleteCustomScenario),
		errors.Is(err, ErrNoScenario),
		errors.Is(err, ErrInvalidMode),
		errors.Is(err, ErrNothingToExport),
		errors.Is(err, domain.ErrInvalidDifficulty):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps machine errors to status codes. Conflicts carry the
// current snapshot so the client can resync.
func writeError(w http.ResponseWriter, err error, snap *Snapshot) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if errors.Is(err, ErrReplyFailed) {
			msg = ErrReplyFailed.Error()
		} else {
			msg = "Internal Server Error"
		}
	}
	resp := errorResponse{Error: msg}
	if status != http.StatusNotFound {
		resp.Session = snap
	}
	api.JSON(w, status, resp)
}

func (h *Handler) machine(w http.ResponseWriter, r *http.Request) (*Machine, bool) {
	m, err := h.mgr.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return nil, false
	}
	return m, true
}

// HandleCreate handles POST /api/practice.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(w, err, nil)
		return
	}
	_, snap, err := h.mgr.Create(opts)
	if err != nil {
		slog.Error("Failed to create practice session", "error", err)
		writeError(w, err, nil)
		return
	}
	api.JSON(w, http.StatusCreated, snap)
}

// HandleGet handles GET /api/practice/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	api.JSON(w, http.StatusOK, m.Snapshot())
}

// HandleDelete handles DELETE /api/practice/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, err, nil)
		return
	}
	api.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleStart handles POST /api/practice/{id}/start.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	snap, err := m.Start()
	if err != nil {
		writeError(w, err, &snap)
		return
	}
	api.JSON(w, http.StatusOK, snap)
}

// HandleRegenerate handles POST /api/practice/{id}/regenerate.
func (h *Handler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req regenerateRequest
	if !decode(w, r, &req) {
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(w, err, nil)
		return
	}
	snap, err := m.Regenerate(opts)
	if err != nil {
		writeError(w, err, &snap)
		return
	}
	api.JSON(w, http.StatusOK, snap)
}

// HandleSubmit handles POST /api/practice/{id}/messages.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if !decode(w, r, &req) {
		return
	}
	snap, err := m.Submit(r.Context(), req.Content)
	if err != nil {
		writeError(w, err, &snap)
		return
	}
	api.JSON(w, http.StatusOK, snap)
}

// HandleEnd handles POST /api/practice/{id}/end.
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	snap, err := m.End(r.Context())
	if err != nil {
		writeError(w, err, &snap)
		return
	}
	api.JSON(w, http.StatusOK, snap)
}

// HandleExport handles GET /api/practice/{id}/export.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	text, err := Export(m.Snapshot())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="practice-session.txt"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Debug("Failed to write export", "error", err)
	}
}
