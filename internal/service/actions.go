package service

import (
	"context"
	"fmt"

	"github.com/hexchat/chat-sync/internal/export"
	"github.com/hexchat/chat-sync/internal/model"
)

// Action is the closed set of per-thread commands from the history menu.
// Each variant has exactly one handler in Apply; a variant without a
// handler fails loudly at dispatch rather than silently.
type Action interface {
	isAction()
}

// Rename overwrites the thread title.
type Rename struct {
	Title string
}

// ToggleFavorite flips the favorite flag.
type ToggleFavorite struct{}

// TogglePin flips the pinned flag.
type TogglePin struct{}

// RegenerateTitle re-runs title generation on demand. This and Rename are
// the only title mutators after first assignment.
type RegenerateTitle struct{}

// Export renders the thread in the given format.
type Export struct {
	Format export.Format
}

// Delete removes the thread locally.
type Delete struct{}

func (Rename) isAction()          {}
func (ToggleFavorite) isAction()  {}
func (TogglePin) isAction()       {}
func (RegenerateTitle) isAction() {}
func (Export) isAction()          {}
func (Delete) isAction()          {}

// ActionResult carries variant-specific output: Export is set by Export,
// Threads (the post-delete mapping) by Delete.
type ActionResult struct {
	Export  *ExportResult
	Threads map[string]model.Thread
}

// ExportResult is a rendered export body.
type ExportResult struct {
	Body        string
	ContentType string
}

// ParseAction maps a wire action name to its variant. Unknown names are an
// error at the boundary, keeping the Action set closed.
func ParseAction(name, titleArg, formatArg string) (Action, error) {
	switch name {
	case "rename":
		return Rename{Title: titleArg}, nil
	case "favorite":
		return ToggleFavorite{}, nil
	case "pin":
		return TogglePin{}, nil
	case "regenerate_title":
		return RegenerateTitle{}, nil
	case "export":
		f, err := export.ParseFormat(formatArg)
		if err != nil {
			return nil, err
		}
		return Export{Format: f}, nil
	case "delete":
		return Delete{}, nil
	}
	return nil, fmt.Errorf("unknown action %q", name)
}

// Apply dispatches one action against one thread. Metadata actions on an
// absent id are no-ops; Export and Delete on an absent id are errors.
func (s *HistoryService) Apply(ctx context.Context, id string, action Action) (ActionResult, error) {
	switch a := action.(type) {
	case Rename:
		return ActionResult{}, s.applyRename(ctx, id, a)
	case ToggleFavorite:
		return ActionResult{}, s.applyToggleFavorite(ctx, id)
	case TogglePin:
		return ActionResult{}, s.applyTogglePin(ctx, id)
	case RegenerateTitle:
		return ActionResult{}, s.applyRegenerateTitle(ctx, id)
	case Export:
		return s.applyExport(ctx, id, a)
	case Delete:
		threads, err := s.store.Delete(ctx, id)
		return ActionResult{Threads: threads}, err
	}
	return ActionResult{}, fmt.Errorf("unhandled action %T", action)
}

func (s *HistoryService) applyRename(ctx context.Context, id string, a Rename) error {
	return s.store.SetTitle(ctx, id, a.Title)
}

func (s *HistoryService) applyToggleFavorite(ctx context.Context, id string) error {
	t, err := s.store.Get(ctx, id)
	if err != nil || t == nil {
		return err
	}
	return s.store.SetFavorite(ctx, id, !t.Favorite)
}

func (s *HistoryService) applyTogglePin(ctx context.Context, id string) error {
	t, err := s.store.Get(ctx, id)
	if err != nil || t == nil {
		return err
	}
	return s.store.SetPinned(ctx, id, !t.Pinned)
}

func (s *HistoryService) applyRegenerateTitle(ctx context.Context, id string) error {
	t, err := s.store.Get(ctx, id)
	if err != nil || t == nil {
		return err
	}
	return s.store.SetTitle(ctx, id, s.generateTitle(ctx, t.Messages))
}

func (s *HistoryService) applyExport(ctx context.Context, id string, a Export) (ActionResult, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return ActionResult{}, err
	}
	if t == nil {
		return ActionResult{}, fmt.Errorf("thread %s not found", id)
	}
	body, err := export.Render(a.Format, *t)
	if err != nil {
		return ActionResult{}, err
	}
	return ActionResult{Export: &ExportResult{
		Body:        body,
		ContentType: a.Format.ContentType(),
	}}, nil
}
