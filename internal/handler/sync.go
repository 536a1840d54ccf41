package handler

import (
	"net/http"

	"github.com/hexchat/chat-sync/internal/model"
	"github.com/hexchat/chat-sync/internal/service"
	"github.com/hexchat/chat-sync/internal/syncer"
	"github.com/hexchat/chat-sync/pkg/logger"
)

// SyncHandler triggers pull-and-merge cycles.
type SyncHandler struct {
	service *service.HistoryService
	logger  *logger.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(svc *service.HistoryService, log *logger.Logger) *SyncHandler {
	return &SyncHandler{
		service: svc,
		logger:  log,
	}
}

// Sync handles POST /api/v1/sync. Clients call it right after sign-in and
// read the thread list from the response: the merge is persisted before the
// response is written, so the next list read observes it.
//
// The response distinguishes a failed pull from an empty remote: on
// "failed" the local store was left untouched and the client should keep
// its current view, not treat the user as having no remote chats.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Sync(r.Context())
	if err != nil {
		h.logger.Error("sync failed")
		writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}

	resp := model.HistoryResponse{
		Threads: res.Threads,
		Sync:    string(res.Status),
	}
	if res.Status == syncer.PullOK {
		resp.Order = service.SortIDs(res.Threads)
	}
	writeJSON(w, http.StatusOK, resp)
}
