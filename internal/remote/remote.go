// Package remote provides access to the networked per-user chat store: a
// tree-structured key-value store reachable by path.
package remote

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// Store is the tree key-value contract the sync engine and share resolver
// depend on. Read returns (nil, nil) when the path is absent.
type Store interface {
	Write(ctx context.Context, path string, value json.RawMessage) error
	Read(ctx context.Context, path string) (json.RawMessage, error)

	// ReadSubtree returns every value directly under prefix, keyed by the
	// last path segment. An absent subtree yields an empty mapping.
	ReadSubtree(ctx context.Context, prefix string) (map[string]json.RawMessage, error)
}

// UserChatPath is the per-user location of a thread.
func UserChatPath(userID, threadID string) string {
	return "users/" + userID + "/chats/" + threadID
}

// UserChatsPrefix is the root of a user's thread subtree.
func UserChatsPrefix(userID string) string {
	return "users/" + userID + "/chats"
}

// GlobalChatPath is the ownership-agnostic location of a shared thread.
func GlobalChatPath(uuid string) string {
	return "chats/" + uuid
}

// Memory is an in-process Store used by tests and offline runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage

	// FailWrites and FailReads simulate an unavailable remote.
	FailWrites bool
	FailReads  bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]json.RawMessage)}
}

func (m *Memory) Write(_ context.Context, path string, value json.RawMessage) error {
	if m.FailWrites {
		return errUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[path] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *Memory) Read(_ context.Context, path string) (json.RawMessage, error) {
	if m.FailReads {
		return nil, errUnavailable
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[path]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), v...), nil
}

func (m *Memory) ReadSubtree(_ context.Context, prefix string) (map[string]json.RawMessage, error) {
	if m.FailReads {
		return nil, errUnavailable
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]json.RawMessage)
	for p, v := range m.data {
		if !strings.HasPrefix(p, prefix+"/") {
			continue
		}
		rest := strings.TrimPrefix(p, prefix+"/")
		if strings.Contains(rest, "/") {
			continue
		}
		out[rest] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

type unavailableError struct{}

func (unavailableError) Error() string { return "remote store unavailable" }

var errUnavailable = unavailableError{}
