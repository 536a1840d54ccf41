// Package model defines data structures for the chat-history sync service.
package model

// Role represents the sender of a chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Valid reports whether the role is one of the known senders.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleBot
}

// Message is a single turn in a conversation. Order within a thread is
// conversation order and is preserved end-to-end across save/load/sync/export.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Thread is the unit of persistence, sync and export.
//
// ID is the locally generated storage key (callers typically use a
// high-resolution timestamp string). UUID is the public share identifier:
// empty until the thread is first pushed while signed in, then stable for
// the thread's lifetime and never cleared.
type Thread struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	Title     string    `json:"title"`
	Timestamp int64     `json:"timestamp"` // unix ms of the last successful local save
	Favorite  bool      `json:"favorite"`
	Pinned    bool      `json:"pinned"`
	UUID      string    `json:"uuid,omitempty"`
}

// Shared is a thread published under its share identifier at the global
// chats/{uuid} path. UserID tags the owner so share resolution does not
// need to know which user's subtree the thread lives in.
type Shared struct {
	Thread
	UserID string `json:"userId"`
}

// SharePayload is the inline form of a thread carried inside an anonymous
// share link, compressed and base64-encoded for URL transport.
type SharePayload struct {
	Title     string    `json:"title"`
	Timestamp int64     `json:"timestamp"`
	Messages  []Message `json:"messages"`
}

// DefaultTitle is assigned when title generation fails or is skipped.
const DefaultTitle = "Untitled Chat"

// SaveThreadRequest is the request body for saving a thread.
type SaveThreadRequest struct {
	Messages []Message `json:"messages"`
}

// ImportRequest is the request body for importing a shared thread.
// Exactly one of UUID, Data or Link must be set.
type ImportRequest struct {
	ChatID string `json:"chatId"`
	UUID   string `json:"uuid,omitempty"`
	Data   string `json:"data,omitempty"`
	Link   string `json:"link,omitempty"`
}

// ShareLinkResponse is the response after publishing a share link.
type ShareLinkResponse struct {
	URL  string `json:"url"`
	UUID string `json:"uuid,omitempty"`
}

// HistoryResponse is the response for listing chat history.
type HistoryResponse struct {
	Threads map[string]Thread `json:"threads"`
	Order   []string          `json:"order"`
	Sync    string            `json:"sync,omitempty"`
}
