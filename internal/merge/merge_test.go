package merge

import (
	"testing"

	"github.com/hexchat/chat-sync/internal/model"
)

func msgs(n int) []model.Message {
	out := make([]model.Message, n)
	for i := range out {
		out[i] = model.Message{Role: model.RoleUser, Text: "m"}
	}
	return out
}

func TestWinner_RemoteWinsWhenLocalAbsent(t *testing.T) {
	t.Parallel()

	remote := model.Thread{ID: "a", Title: "Remote", Timestamp: 7, Messages: msgs(1)}
	got, outcome := Winner(nil, remote)
	if outcome != RemoteTaken {
		t.Fatalf("outcome=%q, want remote", outcome)
	}
	if got.Title != "Remote" || got.Timestamp != 7 {
		t.Fatalf("got %+v, want remote record unchanged", got)
	}
}

func TestWinner_Monotonicity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		localLen  int
		remoteLen int
		want      Outcome
	}{
		{"remote longer", 2, 3, RemoteTaken},
		{"equal keeps local", 3, 3, LocalKept},
		{"local longer", 4, 1, LocalKept},
		{"both empty", 0, 0, LocalKept},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			local := &model.Thread{ID: "a", Title: "Local", Messages: msgs(tc.localLen)}
			remote := model.Thread{ID: "a", Title: "Remote", Timestamp: 1, Messages: msgs(tc.remoteLen)}

			got, outcome := Winner(local, remote)
			if outcome != tc.want {
				t.Fatalf("outcome=%q, want %q", outcome, tc.want)
			}
			wantLen := tc.localLen
			if tc.want == RemoteTaken {
				wantLen = tc.remoteLen
			}
			if len(got.Messages) != wantLen {
				t.Fatalf("winner has %d messages, want %d", len(got.Messages), wantLen)
			}
		})
	}
}

func TestWinner_RemoteFallbacks(t *testing.T) {
	t.Parallel()

	got, outcome := Winner(nil, model.Thread{ID: "a", Messages: msgs(1)})
	if outcome != RemoteTaken {
		t.Fatalf("outcome=%q, want remote", outcome)
	}
	if got.Title != model.DefaultTitle {
		t.Fatalf("Title=%q, want fallback %q", got.Title, model.DefaultTitle)
	}
	if got.Timestamp == 0 {
		t.Fatalf("Timestamp not backfilled")
	}
}
