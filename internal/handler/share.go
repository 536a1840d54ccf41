package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hexchat/chat-sync/internal/middleware"
	"github.com/hexchat/chat-sync/internal/model"
	"github.com/hexchat/chat-sync/internal/service"
	"github.com/hexchat/chat-sync/internal/share"
	"github.com/hexchat/chat-sync/pkg/logger"
)

// ShareHandler handles share-link publishing and resolution.
type ShareHandler struct {
	service  *service.HistoryService
	resolver *share.Resolver
	baseURL  string
	logger   *logger.Logger
}

// NewShareHandler creates a new share handler.
func NewShareHandler(svc *service.HistoryService, resolver *share.Resolver, baseURL string, log *logger.Logger) *ShareHandler {
	return &ShareHandler{
		service:  svc,
		resolver: resolver,
		baseURL:  baseURL,
		logger:   log,
	}
}

// Create handles POST /api/v1/threads/{id}/share. Signed-in users get a
// by-identifier link backed by the global record; anonymous users get an
// inline-payload link, since no server-side record exists to point to.
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	thread, err := h.service.Publish(ctx, id)
	if err != nil {
		h.logger.Error("failed to publish thread")
		writeError(w, http.StatusBadGateway, "failed to publish thread")
		return
	}
	if thread == nil {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}

	if thread.UUID != "" {
		writeJSON(w, http.StatusOK, model.ShareLinkResponse{
			URL:  share.BuildUUIDLink(h.baseURL, thread.UUID),
			UUID: thread.UUID,
		})
		return
	}

	data, err := share.EncodePayload(model.SharePayload{
		Title:     thread.Title,
		Timestamp: thread.Timestamp,
		Messages:  thread.Messages,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode share payload")
		return
	}
	writeJSON(w, http.StatusOK, model.ShareLinkResponse{
		URL: share.BuildInlineLink(h.baseURL, thread.ID, data),
	})
}

// Resolve handles GET /api/v1/share/resolve?uuid=
func (h *ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uuid")
	if err := middleware.ValidateShareUUID(uid); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	shared, err := h.resolver.Resolve(r.Context(), uid)
	if err != nil {
		writeError(w, http.StatusBadGateway, "share resolution unavailable")
		return
	}
	if shared == nil {
		writeError(w, http.StatusNotFound, "unknown share identifier")
		return
	}
	writeJSON(w, http.StatusOK, shared)
}

// Import handles POST /api/v1/share/import. The request carries either a
// share identifier, an inline payload, or a full share link; imports never
// overwrite a local thread that already has content.
func (h *ShareHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A full link is reduced to one of the two direct forms.
	if req.Link != "" {
		link, err := share.ParseLink(req.Link)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.UUID = link.UUID
		req.Data = link.Data
		if req.ChatID == "" {
			req.ChatID = link.ChatID
		}
	}

	if err := middleware.ValidateThreadID(req.ChatID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.UUID != "":
		h.importByUUID(ctx, w, req)
	case req.Data != "":
		h.importInline(ctx, w, req)
	default:
		writeError(w, http.StatusBadRequest, "import requires uuid, data or link")
	}
}

func (h *ShareHandler) importByUUID(ctx context.Context, w http.ResponseWriter, req model.ImportRequest) {
	if err := middleware.ValidateShareUUID(req.UUID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	shared, err := h.resolver.Resolve(ctx, req.UUID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "share resolution unavailable")
		return
	}
	if shared == nil {
		writeError(w, http.StatusNotFound, "unknown share identifier")
		return
	}
	wrote, err := h.resolver.Import(ctx, req.ChatID, shared.Thread)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": wrote, "chatId": req.ChatID})
}

func (h *ShareHandler) importInline(ctx context.Context, w http.ResponseWriter, req model.ImportRequest) {
	wrote, err := h.resolver.ImportPayload(ctx, req.ChatID, req.Data)
	if err != nil {
		if errors.Is(err, share.ErrBadPayload) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": wrote, "chatId": req.ChatID})
}
