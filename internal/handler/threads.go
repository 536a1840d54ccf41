// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hexchat/chat-sync/internal/export"
	"github.com/hexchat/chat-sync/internal/middleware"
	"github.com/hexchat/chat-sync/internal/model"
	"github.com/hexchat/chat-sync/internal/service"
	"github.com/hexchat/chat-sync/pkg/logger"
)

// ThreadHandler handles chat-history endpoints.
type ThreadHandler struct {
	service *service.HistoryService
	logger  *logger.Logger
}

// NewThreadHandler creates a new thread handler.
func NewThreadHandler(svc *service.HistoryService, log *logger.Logger) *ThreadHandler {
	return &ThreadHandler{
		service: svc,
		logger:  log,
	}
}

// Save handles PUT /api/v1/threads/{id}
func (h *ThreadHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SaveThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessages(req.Messages); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	thread, err := h.service.SaveChat(ctx, id, req.Messages)
	if err != nil {
		h.logger.Error("failed to save thread")
		writeError(w, http.StatusInternalServerError, "failed to save thread")
		return
	}

	writeJSON(w, http.StatusOK, thread)
}

// List handles GET /api/v1/threads
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	threads, order, err := h.service.History(r.Context())
	if err != nil {
		h.logger.Error("failed to list threads")
		writeError(w, http.StatusInternalServerError, "failed to list threads")
		return
	}

	writeJSON(w, http.StatusOK, model.HistoryResponse{
		Threads: threads,
		Order:   order,
	})
}

// Get handles GET /api/v1/threads/{id}
func (h *ThreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateThreadID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	thread, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load thread")
		return
	}
	if thread == nil {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}

	writeJSON(w, http.StatusOK, thread)
}

// Delete handles DELETE /api/v1/threads/{id}. Deletion is local-only: the
// thread's global share record, if any, stays resolvable.
func (h *ThreadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateThreadID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	threads, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete thread")
		return
	}

	writeJSON(w, http.StatusOK, model.HistoryResponse{
		Threads: threads,
		Order:   service.SortIDs(threads),
	})
}

// ClearAll handles DELETE /api/v1/threads
func (h *ThreadHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// actionRequest is the wire form of a thread action.
type actionRequest struct {
	Action string `json:"action"`
	Title  string `json:"title,omitempty"`
	Format string `json:"format,omitempty"`
}

// Action handles POST /api/v1/threads/{id}/actions
func (h *ThreadHandler) Action(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	action, err := service.ParseAction(req.Action, req.Title, req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rn, ok := action.(service.Rename); ok {
		if err := middleware.ValidateTitle(rn.Title); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := h.service.Apply(ctx, id, action)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "action failed")
		return
	}

	if res.Export != nil {
		w.Header().Set("Content-Type", res.Export.ContentType)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(res.Export.Body))
		return
	}
	if res.Threads != nil {
		writeJSON(w, http.StatusOK, model.HistoryResponse{
			Threads: res.Threads,
			Order:   service.SortIDs(res.Threads),
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/v1/threads/{id}/export?format=
func (h *ThreadHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateThreadID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.Apply(r.Context(), id, service.Export{Format: format})
	if err != nil {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}

	w.Header().Set("Content-Type", res.Export.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(res.Export.Body))
}
