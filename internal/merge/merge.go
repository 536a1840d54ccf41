// Package merge selects a winner between a local and a remote copy of the
// same thread.
//
// The policy is message count: a strictly longer remote copy replaces the
// local one, everything else keeps local. Count is a cheap, monotonic-under-
// append proxy for "more complete conversation"; it is wrong if a thread was
// edited rather than appended on one side, which is an accepted trade-off.
package merge

import (
	"time"

	"github.com/hexchat/chat-sync/internal/model"
)

// Outcome says which side a merge kept.
type Outcome string

const (
	LocalKept   Outcome = "local"
	RemoteTaken Outcome = "remote"
)

// Winner picks between local (nil when the thread does not exist locally)
// and remote. A remote winner gets a fallback title and timestamp when the
// remote record is missing them.
func Winner(local *model.Thread, remote model.Thread) (model.Thread, Outcome) {
	if local == nil || len(remote.Messages) > len(local.Messages) {
		if remote.Title == "" {
			remote.Title = model.DefaultTitle
		}
		if remote.Timestamp == 0 {
			remote.Timestamp = time.Now().UnixMilli()
		}
		return remote, RemoteTaken
	}
	return *local, LocalKept
}
