// Package service provides business logic for the chat-history store.
package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hexchat/chat-sync/internal/model"
	"github.com/hexchat/chat-sync/internal/store"
	"github.com/hexchat/chat-sync/internal/syncer"
	"github.com/hexchat/chat-sync/internal/title"
	"github.com/hexchat/chat-sync/pkg/logger"
	"github.com/hexchat/chat-sync/pkg/metrics"
)

// titleTimeout caps how long a save waits for title generation before
// falling back. Generation failure never blocks or fails the save.
const titleTimeout = 10 * time.Second

// HistoryService orchestrates the local store, title generation and sync.
type HistoryService struct {
	store  *store.Store
	titler title.Generator // nil disables generation (fallback title only)
	engine *syncer.Engine  // nil disables remote sync
	logger *logger.Logger
}

// NewHistoryService creates a new history service.
func NewHistoryService(st *store.Store, titler title.Generator, engine *syncer.Engine, log *logger.Logger) *HistoryService {
	return &HistoryService{
		store:  st,
		titler: titler,
		engine: engine,
		logger: log,
	}
}

// SaveChat upserts a thread. A thread saved for the first time (or one that
// never got a title) has its title generated from the early messages, with
// model.DefaultTitle as the fallback; once set, the title is frozen until an
// explicit rename or regenerate. After the local save succeeds the thread is
// pushed best-effort: a push failure only delays remote visibility.
func (s *HistoryService) SaveChat(ctx context.Context, id string, messages []model.Message) (*model.Thread, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var newTitle string
	if existing == nil || existing.Title == "" {
		newTitle = s.generateTitle(ctx, messages)
	}

	if err := s.store.Save(ctx, id, messages, store.SaveOptions{
		Title:     newTitle,
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		return nil, err
	}

	saved, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.pushBestEffort(ctx, saved)
	return saved, nil
}

// generateTitle is best-effort and never fails the save.
func (s *HistoryService) generateTitle(ctx context.Context, messages []model.Message) string {
	if s.titler == nil || len(messages) == 0 {
		return model.DefaultTitle
	}
	tctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	t, err := s.titler.Generate(tctx, messages)
	if err != nil {
		s.logger.Warn("title generation failed, using fallback", zap.Error(err))
		return model.DefaultTitle
	}
	return t
}

// pushBestEffort forwards the thread to the sync engine and persists a
// newly assigned share identifier. Push failures are logged and swallowed:
// the local save already succeeded, and the next save retries implicitly.
func (s *HistoryService) pushBestEffort(ctx context.Context, t *model.Thread) {
	if s.engine == nil || t == nil {
		return
	}
	uid, err := s.engine.Push(ctx, *t)
	if err != nil {
		s.logger.Warn("push failed, remote visibility delayed",
			zap.String("thread_id", t.ID), zap.Error(err))
	}
	if uid != "" && t.UUID == "" {
		if err := s.store.SetUUID(ctx, t.ID, uid); err != nil {
			s.logger.Warn("failed to persist share identifier",
				zap.String("thread_id", t.ID), zap.Error(err))
			return
		}
		t.UUID = uid
	}
}

// Publish pushes the thread immediately and persists a newly assigned
// share identifier, returning the updated thread. Unlike the save-time
// push, an explicit publish surfaces failures: the caller asked for a
// share link and needs to know it could not be produced. Returns
// (nil, nil) when the thread does not exist. When nobody is signed in the
// thread is returned unchanged with no identifier, and the caller falls
// back to an inline-payload link.
func (s *HistoryService) Publish(ctx context.Context, id string) (*model.Thread, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || s.engine == nil {
		return t, nil
	}
	uid, err := s.engine.Push(ctx, *t)
	if err != nil {
		return nil, err
	}
	if uid != "" && t.UUID == "" {
		if err := s.store.SetUUID(ctx, t.ID, uid); err != nil {
			return nil, err
		}
		t.UUID = uid
	}
	return t, nil
}

// History returns the full mapping plus the display ordering: pinned
// threads first, then most recently saved first.
func (s *HistoryService) History(ctx context.Context) (map[string]model.Thread, []string, error) {
	threads, err := s.store.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	metrics.SetThreadsStored(len(threads))
	return threads, SortIDs(threads), nil
}

// SortIDs orders thread ids pinned-first, then by timestamp descending,
// with the id as a deterministic tie-break.
func SortIDs(threads map[string]model.Thread) []string {
	ids := make([]string, 0, len(threads))
	for id := range threads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := threads[ids[i]], threads[ids[j]]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		return ids[i] > ids[j]
	})
	return ids
}

// Get returns one thread, or (nil, nil) when absent.
func (s *HistoryService) Get(ctx context.Context, id string) (*model.Thread, error) {
	return s.store.Get(ctx, id)
}

// Delete removes the thread locally and returns the resulting mapping.
// Deletion never retracts the thread from the remote store and never
// invalidates its share identifier.
func (s *HistoryService) Delete(ctx context.Context, id string) (map[string]model.Thread, error) {
	return s.store.Delete(ctx, id)
}

// ClearAll drops the entire local store.
func (s *HistoryService) ClearAll(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}

// Sync runs one pull-and-merge cycle. Callers run this on sign-in, before
// the thread list is next read.
func (s *HistoryService) Sync(ctx context.Context) (syncer.PullResult, error) {
	if s.engine == nil {
		return syncer.PullResult{Status: syncer.PullSkipped, Threads: map[string]model.Thread{}}, nil
	}
	return s.engine.PullAndMerge(ctx)
}
