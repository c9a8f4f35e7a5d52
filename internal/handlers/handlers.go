// Package handlers expone los flujos de pedidos como API JSON. Es la capa
// fina equivalente a las páginas de la SPA original: toda la lógica vive en
// session, workflow y refdata.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/propiter/FormGodoy/internal/apperrors"
	"github.com/propiter/FormGodoy/internal/logging"
	"github.com/propiter/FormGodoy/internal/refdata"
	"github.com/propiter/FormGodoy/internal/session"
	"github.com/propiter/FormGodoy/internal/workflow"
)

// Handler agrupa las dependencias de la API.
type Handler struct {
	repo     *refdata.Repository
	sessions *session.Manager
	logger   *zap.Logger

	mu    sync.Mutex
	flows map[string]*workflow.CreateFlow // stepper de alta por sesión
}

// New construye el handler.
func New(repo *refdata.Repository, sessions *session.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
		flows:    make(map[string]*workflow.CreateFlow),
	}
}

// Register monta todas las rutas en el mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/refdata/refresh", h.RefreshData)
	mux.HandleFunc("GET /api/catalog", h.Catalog)
	mux.HandleFunc("GET /api/clients/{cif}", h.FindClient)

	mux.HandleFunc("POST /api/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("PUT /api/sessions/{id}/client", h.SetClient)
	mux.HandleFunc("POST /api/sessions/{id}/lines", h.AddLine)
	mux.HandleFunc("PUT /api/sessions/{id}/lines/{index}", h.UpdateLine)
	mux.HandleFunc("DELETE /api/sessions/{id}/lines/{index}", h.RemoveLine)
	mux.HandleFunc("POST /api/sessions/{id}/next", h.StepNext)
	mux.HandleFunc("POST /api/sessions/{id}/back", h.StepBack)
	mux.HandleFunc("POST /api/sessions/{id}/submit", h.SubmitOrder)
	mux.HandleFunc("POST /api/sessions/{id}/search", h.SearchOrder)
	mux.HandleFunc("POST /api/sessions/{id}/update", h.UpdateOrder)
	mux.HandleFunc("POST /api/sessions/{id}/confirmation/close", h.CloseConfirmation)
}

func (h *Handler) flowFor(sessionID string, sess *session.Session) *workflow.CreateFlow {
	h.mu.Lock()
	defer h.mu.Unlock()
	if flow, ok := h.flows[sessionID]; ok {
		return flow
	}
	flow := workflow.NewCreateFlow(sess)
	h.flows[sessionID] = flow
	return flow
}

func (h *Handler) dropFlow(sessionID string) {
	h.mu.Lock()
	delete(h.flows, sessionID)
	h.mu.Unlock()
}

// sessionFrom resuelve la sesión del path o escribe el error y devuelve nil.
func (h *Handler) sessionFrom(w http.ResponseWriter, r *http.Request) (string, *session.Session) {
	id := r.PathValue("id")
	sess, ok := h.sessions.Get(id)
	if !ok {
		h.writeError(w, r, apperrors.ErrNotFound("sesión no encontrada"))
		return "", nil
	}
	return id, sess
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.writeJSON(w, appErr.StatusCode, appErr)
		return
	}
	fields := append(logging.FieldsFromContext(r.Context()),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	h.logger.Error("error no tipado en handler", fields...)
	h.writeJSON(w, http.StatusInternalServerError, map[string]string{
		"message": "Error interno del servidor",
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		h.writeError(w, r, apperrors.ErrValidation("JSON inválido"))
		return false
	}
	return true
}
