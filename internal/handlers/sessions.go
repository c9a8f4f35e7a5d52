package handlers

import (
	"net/http"
	"strconv"

	"github.com/propiter/FormGodoy/internal/apperrors"
	"github.com/propiter/FormGodoy/internal/lineform"
	"github.com/propiter/FormGodoy/internal/session"
	"github.com/propiter/FormGodoy/internal/workflow"
)

// SessionResponse es la vista de una sesión que devuelve la API.
type SessionResponse struct {
	SessionID string        `json:"sessionId"`
	State     session.State `json:"state"`
	Step      int           `json:"step"`
}

func (h *Handler) sessionResponse(id string, sess *session.Session) SessionResponse {
	return SessionResponse{
		SessionID: id,
		State:     sess.Snapshot(),
		Step:      int(h.flowFor(id, sess).Step()),
	}
}

// CreateSession abre una sesión de pedido nueva.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, sess := h.sessions.Create()
	h.writeJSON(w, http.StatusCreated, h.sessionResponse(id, sess))
}

// GetSession devuelve el estado actual de la sesión.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}
	h.writeJSON(w, http.StatusOK, h.sessionResponse(id, sess))
}

// DeleteSession descarta la sesión y su stepper.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.sessions.Remove(id)
	h.dropFlow(id)
	h.writeJSON(w, http.StatusNoContent, nil)
}

type setClientRequest struct {
	CIF string `json:"cif"`
}

// SetClient selecciona el cliente de la sesión resolviéndolo por CIF contra
// el repositorio. CIF vacío limpia la selección.
func (h *Handler) SetClient(w http.ResponseWriter, r *http.Request) {
	id, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}

	var req setClientRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.CIF == "" {
		sess.SetClient(nil)
		h.writeJSON(w, http.StatusOK, h.sessionResponse(id, sess))
		return
	}

	client, ok := h.repo.FindClientByCIF(req.CIF)
	if !ok {
		h.writeError(w, r, apperrors.ErrNotFound("No se encontró ningún cliente con ese CIF."))
		return
	}
	sess.SetClient(&client)
	h.writeJSON(w, http.StatusOK, h.sessionResponse(id, sess))
}

// lineErrorResponse acompaña al 422 de validación de línea con los campos
// marcados, para pintado inline en el formulario.
type lineErrorResponse struct {
	Message string          `json:"message"`
	Fields  lineform.Errors `json:"fields"`
}

// AddLine valida el formulario de línea y la añade al final del pedido.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	id, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}

	var form lineform.Form
	if !h.decode(w, r, &form) {
		return
	}

	line, errs := form.Validate(h.repo)
	if errs.Any() {
		h.writeJSON(w, http.StatusUnprocessableEntity, lineErrorResponse{
			Message: "La línea de producto no es válida.",
			Fields:  errs,
		})
		return
	}

	sess.AddLine(line)
	h.writeJSON(w, http.StatusOK, h.sessionResponse(id, sess))
}

func (h *Handler) lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.writeError(w, r, apperrors.ErrValidation("índice de línea inválido"))
		return 0, false
	}
	return index, true
}

// UpdateLine reemplaza la línea en la posición indicada.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}
	index, ok := h.lineIndex(w, r)
	if !ok {
		return
	}

	var form lineform.Form
	if !h.decode(w, r, &form) {
		return
	}

	line, errs := form.Validate(h.repo)
	if errs.Any() {
		h.writeJSON(w, http.StatusUnprocessableEntity, lineErrorResponse{
			Message: "La línea de producto no es válida.",
			Fields:  errs,
		})
		return
	}

	if err := sess.UpdateLine(index, line); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.sessionResponse(id, sess))
}

// RemoveLine elimina la línea en la posición indicada. Los índices de las
// líneas posteriores cambian: el cliente debe refrescar su vista.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	id, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}
	index, ok := h.lineIndex(w, r)
	if !ok {
		return
	}

	if err := sess.RemoveLine(index); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.sessionResponse(id, sess))
}

// StepNext avanza el stepper de alta si las guardas lo permiten.
func (h *Handler) StepNext(w http.ResponseWriter, r *http.Request) {
	id, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}
	if err := h.flowFor(id, sess).Next(); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.sessionResponse(id, sess))
}

// StepBack retrocede el stepper de alta.
func (h *Handler) StepBack(w http.ResponseWriter, r *http.Request) {
	id, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}
	h.flowFor(id, sess).Back()
	h.writeJSON(w, http.StatusOK, h.sessionResponse(id, sess))
}

// SubmitOrder lanza la ruta de alta.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	_, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}

	order, err := sess.Submit(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"order": order,
		"state": sess.Snapshot(),
	})
}

type searchRequest struct {
	CIF             string `json:"cif"`
	ReceptionNumber string `json:"receptionNumber"`
}

// SearchOrder ejecuta la búsqueda del flujo de edición sobre datos frescos.
func (h *Handler) SearchOrder(w http.ResponseWriter, r *http.Request) {
	_, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}

	var req searchRequest
	if !h.decode(w, r, &req) {
		return
	}

	flow := workflow.NewUpdateFlow(sess, h.repo, h.logger)
	order, err := flow.Search(r.Context(), req.CIF, req.ReceptionNumber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"order": order,
		"state": sess.Snapshot(),
	})
}

// UpdateOrder lanza la ruta de actualización. Por defecto va por el webhook
// de producción; ?legacy=1 usa la ruta directa antigua contra la hoja.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	_, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}

	var (
		err   error
		order any
	)
	if r.URL.Query().Get("legacy") == "1" {
		order, err = sess.UpdateDirect(r.Context())
	} else {
		order, err = sess.UpdateViaWebhook(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"order": order,
		"state": sess.Snapshot(),
	})
}

// CloseConfirmation cierra el recibo del último alta.
func (h *Handler) CloseConfirmation(w http.ResponseWriter, r *http.Request) {
	id, sess := h.sessionFrom(w, r)
	if sess == nil {
		return
	}
	sess.CloseConfirmation()
	h.writeJSON(w, http.StatusOK, h.sessionResponse(id, sess))
}
