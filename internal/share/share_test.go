package share

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/hexchat/chat-sync/internal/model"
	"github.com/hexchat/chat-sync/internal/remote"
	"github.com/hexchat/chat-sync/internal/store"
	"github.com/hexchat/chat-sync/pkg/logger"
)

func newTestResolver(t *testing.T) (*Resolver, *store.Store, *remote.Memory) {
	t.Helper()
	local, err := store.Open(filepath.Join(t.TempDir(), "history.sqlite"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = local.Close() })
	mem := remote.NewMemory()
	return NewResolver(mem, local, logger.NewNop(), 0), local, mem
}

func TestPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	in := model.SharePayload{
		Title:     "X",
		Timestamp: 1000,
		Messages: []model.Message{
			{Role: model.RoleUser, Text: "hi"},
			{Role: model.RoleBot, Text: "hello there"},
		},
	}
	data, err := EncodePayload(in)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}

	out, err := DecodePayload(data)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if out.Title != in.Title || out.Timestamp != in.Timestamp {
		t.Fatalf("got %+v, want %+v", out, in)
	}
	if len(out.Messages) != 2 || out.Messages[0].Text != "hi" || out.Messages[1].Text != "hello there" {
		t.Fatalf("messages reordered or lost: %+v", out.Messages)
	}
}

func TestDecodePayload_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not base64", "!!not-base64!!"},
		{"not zlib", "aGVsbG8gd29ybGQ="},
		{"missing messages", mustEncodeRaw(t, `{"title":"X","timestamp":1}`)},
		{"bad json", mustEncodeRaw(t, `{not json`)},
		{"bad role", mustEncodeRaw(t, `{"messages":[{"role":"wizard","text":"x"}]}`)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodePayload(tc.data); !errors.Is(err, ErrBadPayload) {
				t.Fatalf("DecodePayload(%s) err = %v, want ErrBadPayload", tc.name, err)
			}
		})
	}
}

// mustEncodeRaw compresses and encodes an arbitrary byte string, bypassing
// the typed encoder so malformed documents can be produced.
func mustEncodeRaw(t *testing.T, raw string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(raw)); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("compress: %v", err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes())
}

func TestParseLink_BothForms(t *testing.T) {
	t.Parallel()

	l, err := ParseLink("https://hex.example/chat?uuid=123e4567-e89b-12d3-a456-426614174000")
	if err != nil {
		t.Fatalf("ParseLink uuid form: %v", err)
	}
	if l.UUID == "" || l.ChatID != "" {
		t.Fatalf("uuid form parsed as %+v", l)
	}

	l, err = ParseLink("https://hex.example/chat?chatId=abc&data=eJzT0yMA")
	if err != nil {
		t.Fatalf("ParseLink inline form: %v", err)
	}
	if l.ChatID != "abc" || l.Data != "eJzT0yMA" || l.UUID != "" {
		t.Fatalf("inline form parsed as %+v", l)
	}

	if _, err := ParseLink("https://hex.example/chat?foo=bar"); err == nil {
		t.Fatalf("ParseLink accepted a link with neither form")
	}
}

func TestLinkBuildersRoundTrip(t *testing.T) {
	t.Parallel()

	l, err := ParseLink(BuildUUIDLink("https://hex.example/chat", "u-1"))
	if err != nil || l.UUID != "u-1" {
		t.Fatalf("uuid link round trip: %+v, %v", l, err)
	}

	data, err := EncodePayload(model.SharePayload{Messages: []model.Message{{Role: model.RoleUser, Text: "hi"}}})
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	l, err = ParseLink(BuildInlineLink("https://hex.example/chat", "abc", data))
	if err != nil || l.ChatID != "abc" || l.Data != data {
		t.Fatalf("inline link round trip: %+v, %v", l, err)
	}
}

func TestResolve_RoundTripAndAbsent(t *testing.T) {
	t.Parallel()

	r, _, mem := newTestResolver(t)
	ctx := context.Background()

	want := model.Shared{
		Thread: model.Thread{
			ID:        "100",
			Title:     "T",
			UUID:      "u-1",
			Timestamp: 5,
			Messages:  []model.Message{{Role: model.RoleUser, Text: "hi"}, {Role: model.RoleBot, Text: "yo"}},
		},
		UserID: "u1",
	}
	raw, _ := json.Marshal(want)
	if err := mem.Write(ctx, remote.GlobalChatPath("u-1"), raw); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := r.Resolve(ctx, "u-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil {
		t.Fatalf("Resolve returned absent for a published uuid")
	}
	if len(got.Messages) != 2 || got.Messages[0].Text != "hi" {
		t.Fatalf("resolved messages differ: %+v", got.Messages)
	}

	absent, err := r.Resolve(ctx, "nope")
	if err != nil {
		t.Fatalf("Resolve unknown uuid errored: %v", err)
	}
	if absent != nil {
		t.Fatalf("Resolve unknown uuid = %+v, want absent", absent)
	}
}

func TestImportPayload_WritesIntoEmptySlot(t *testing.T) {
	t.Parallel()

	r, local, _ := newTestResolver(t)
	ctx := context.Background()

	data, err := EncodePayload(model.SharePayload{
		Title:     "X",
		Timestamp: 1000,
		Messages:  []model.Message{{Role: model.RoleUser, Text: "hi"}},
	})
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}

	wrote, err := r.ImportPayload(ctx, "abc", data)
	if err != nil {
		t.Fatalf("ImportPayload: %v", err)
	}
	if !wrote {
		t.Fatalf("import into empty store skipped")
	}

	m, err := local.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := m["abc"]
	if len(got.Messages) != 1 || got.Messages[0].Text != "hi" || got.Messages[0].Role != model.RoleUser {
		t.Fatalf("imported thread = %+v", got)
	}
	if got.Title != "X" || got.Timestamp != 1000 {
		t.Fatalf("imported metadata = %+v", got)
	}
}

func TestImport_NoClobber(t *testing.T) {
	t.Parallel()

	r, local, _ := newTestResolver(t)
	ctx := context.Background()

	if err := local.Save(ctx, "abc", []model.Message{{Role: model.RoleUser, Text: "mine"}}, store.SaveOptions{Title: "Mine", Timestamp: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	wrote, err := r.Import(ctx, "abc", model.Thread{
		Title:    "Theirs",
		Messages: []model.Message{{Role: model.RoleUser, Text: "theirs"}},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if wrote {
		t.Fatalf("import overwrote an existing non-empty thread")
	}

	th, _ := local.Get(ctx, "abc")
	if th.Title != "Mine" || th.Messages[0].Text != "mine" {
		t.Fatalf("existing thread mutated: %+v", th)
	}
}

func TestImportPayload_BadPayloadLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	r, local, _ := newTestResolver(t)
	ctx := context.Background()

	if _, err := r.ImportPayload(ctx, "abc", "garbage"); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("err = %v, want ErrBadPayload", err)
	}
	m, _ := local.Load(ctx)
	if len(m) != 0 {
		t.Fatalf("bad payload reached the store: %v", m)
	}
}
