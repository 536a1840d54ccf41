// Package share publishes threads under globally addressable identifiers
// and resolves those identifiers (or inline payloads) back into the local
// store for link-based import.
package share

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hexchat/chat-sync/internal/model"
	"github.com/hexchat/chat-sync/internal/remote"
	"github.com/hexchat/chat-sync/internal/store"
	"github.com/hexchat/chat-sync/pkg/logger"
	"github.com/hexchat/chat-sync/pkg/metrics"
)

// Resolver resolves share identifiers and imports shared threads.
// Publishing has no separate verb: every sync push refreshes the global
// chats/{uuid} record.
type Resolver struct {
	remote  remote.Store
	local   *store.Store
	logger  *logger.Logger
	timeout time.Duration
}

// NewResolver creates a share resolver.
func NewResolver(r remote.Store, local *store.Store, log *logger.Logger, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{remote: r, local: local, logger: log, timeout: timeout}
}

// Resolve reads the global record for a share identifier. An unknown
// identifier returns (nil, nil), not an error.
func (r *Resolver) Resolve(ctx context.Context, uuid string) (*model.Shared, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.remote.Read(ctx, remote.GlobalChatPath(uuid))
	if err != nil {
		metrics.RecordShareResolution("uuid", "error")
		return nil, fmt.Errorf("resolve %s: %w", uuid, err)
	}
	if raw == nil {
		metrics.RecordShareResolution("uuid", "absent")
		return nil, nil
	}

	var shared model.Shared
	if err := json.Unmarshal(raw, &shared); err != nil {
		metrics.RecordShareResolution("uuid", "error")
		return nil, fmt.Errorf("resolve %s: malformed record: %w", uuid, err)
	}
	metrics.RecordShareResolution("uuid", "ok")
	return &shared, nil
}

// Import writes a resolved or decoded thread into the local store under
// chatID, unless that id already holds messages: a thread the user is
// actively using is never clobbered by an import. Reports whether the
// write happened.
func (r *Resolver) Import(ctx context.Context, chatID string, t model.Thread) (bool, error) {
	existing, err := r.local.Get(ctx, chatID)
	if err != nil {
		return false, err
	}
	if existing != nil && len(existing.Messages) > 0 {
		r.logger.Info("import skipped, thread already has content", zap.String("thread_id", chatID))
		return false, nil
	}

	title := t.Title
	if title == "" {
		title = model.DefaultTitle
	}
	ts := t.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	if err := r.local.Save(ctx, chatID, t.Messages, store.SaveOptions{
		Title:     title,
		UUID:      t.UUID,
		Timestamp: ts,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// ImportPayload decodes an inline payload and imports it. Malformed
// payloads are rejected before the store is touched.
func (r *Resolver) ImportPayload(ctx context.Context, chatID, data string) (bool, error) {
	p, err := DecodePayload(data)
	if err != nil {
		metrics.RecordShareResolution("inline", "error")
		return false, err
	}
	metrics.RecordShareResolution("inline", "ok")
	return r.Import(ctx, chatID, model.Thread{
		Title:     p.Title,
		Timestamp: p.Timestamp,
		Messages:  p.Messages,
	})
}
