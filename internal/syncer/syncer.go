// Package syncer keeps the remote store an eventual superset of what the
// local store produced while signed in, and reconciles remote state into
// the local store on sign-in.
package syncer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hexchat/chat-sync/internal/identity"
	"github.com/hexchat/chat-sync/internal/merge"
	"github.com/hexchat/chat-sync/internal/model"
	"github.com/hexchat/chat-sync/internal/remote"
	"github.com/hexchat/chat-sync/internal/store"
	"github.com/hexchat/chat-sync/pkg/logger"
	"github.com/hexchat/chat-sync/pkg/metrics"
)

// PullStatus distinguishes "remote contributed nothing because it is empty"
// from "remote was unreachable". Callers must not treat a failed pull as an
// empty remote.
type PullStatus string

const (
	PullOK      PullStatus = "ok"
	PullFailed  PullStatus = "failed"
	PullSkipped PullStatus = "skipped" // no signed-in identity
)

// PullResult is the outcome of one pull-and-merge cycle. Threads is the
// full post-merge mapping and is only meaningful when Status is PullOK.
type PullResult struct {
	Status  PullStatus
	Threads map[string]model.Thread
}

// DefaultTimeout bounds individual remote operations so a hung network call
// cannot stall the triggering request indefinitely.
const DefaultTimeout = 5 * time.Second

// Engine orchestrates push and pull-and-merge against the remote store.
type Engine struct {
	remote  remote.Store
	local   *store.Store
	ident   identity.Provider
	logger  *logger.Logger
	timeout time.Duration
}

// New creates a sync engine. A zero timeout falls back to DefaultTimeout.
func New(r remote.Store, local *store.Store, ident identity.Provider, log *logger.Logger, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		remote:  r,
		local:   local,
		ident:   ident,
		logger:  log,
		timeout: timeout,
	}
}

// Push writes the full thread under the signed-in user's namespace and
// under the global share path, assigning a share identifier on first push.
// Both writes are full overwrites. Returns the identifier used so the
// caller can persist it locally; no-op (empty identifier, nil error) when
// nobody is signed in.
func (e *Engine) Push(ctx context.Context, t model.Thread) (string, error) {
	userID, ok := e.ident.CurrentUser(ctx)
	if !ok {
		return "", nil
	}

	if t.UUID == "" {
		t.UUID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := json.Marshal(t)
	if err != nil {
		metrics.RecordPush("error")
		return t.UUID, err
	}
	if err := e.remote.Write(ctx, remote.UserChatPath(userID, t.ID), raw); err != nil {
		metrics.RecordPush("error")
		return t.UUID, err
	}

	shared, err := json.Marshal(model.Shared{Thread: t, UserID: userID})
	if err != nil {
		metrics.RecordPush("error")
		return t.UUID, err
	}
	if err := e.remote.Write(ctx, remote.GlobalChatPath(t.UUID), shared); err != nil {
		metrics.RecordPush("error")
		return t.UUID, err
	}

	metrics.RecordPush("ok")
	return t.UUID, nil
}

// PullAndMerge reads the signed-in user's remote subtree, reconciles each
// remote thread against the local store via the merge policy, keeps
// local-only threads unchanged, and persists the result wholesale. On any
// failure the local store is left untouched and the result is PullFailed.
func (e *Engine) PullAndMerge(ctx context.Context) (PullResult, error) {
	userID, ok := e.ident.CurrentUser(ctx)
	if !ok {
		return PullResult{Status: PullSkipped, Threads: map[string]model.Thread{}}, nil
	}

	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	subtree, err := e.remote.ReadSubtree(rctx, remote.UserChatsPrefix(userID))
	if err != nil {
		e.logger.Warn("pull failed, remote unavailable", zap.String("user_id", userID), zap.Error(err))
		metrics.RecordPull("failed")
		return PullResult{Status: PullFailed}, nil
	}

	local, err := e.local.Load(ctx)
	if err != nil {
		metrics.RecordPull("failed")
		return PullResult{Status: PullFailed}, err
	}

	merged := make(map[string]model.Thread, len(local))
	for id, t := range local {
		merged[id] = t
	}

	for id, raw := range subtree {
		var rt model.Thread
		if err := json.Unmarshal(raw, &rt); err != nil {
			e.logger.Warn("skipping malformed remote thread", zap.String("thread_id", id), zap.Error(err))
			continue
		}
		rt.ID = id

		var lt *model.Thread
		if cur, ok := local[id]; ok {
			cur := cur
			lt = &cur
		}

		winner, outcome := merge.Winner(lt, rt)
		metrics.RecordMerge(string(outcome))
		merged[id] = winner
	}

	if err := e.local.Replace(ctx, merged); err != nil {
		metrics.RecordPull("failed")
		return PullResult{Status: PullFailed}, err
	}

	metrics.RecordPull("ok")
	return PullResult{Status: PullOK, Threads: merged}, nil
}
