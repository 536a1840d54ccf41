package export

import (
	"encoding/json"
	"testing"

	"github.com/hexchat/chat-sync/internal/model"
)

var sample = model.Thread{
	ID:        "100",
	Title:     "T",
	Timestamp: 5,
	Messages: []model.Message{
		{Role: model.RoleUser, Text: "hi"},
		{Role: model.RoleBot, Text: "hello"},
		{Role: model.RoleUser, Text: "bye"},
	},
}

func TestRender_Markdown(t *testing.T) {
	t.Parallel()

	got, err := Render(FormatMarkdown, sample)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "**You**: hi\n\n**Bot**: hello\n\n**You**: bye"
	if got != want {
		t.Fatalf("markdown = %q, want %q", got, want)
	}
}

func TestRender_PDFFallsBackToMarkdown(t *testing.T) {
	t.Parallel()

	md, _ := Render(FormatMarkdown, sample)
	pdf, err := Render(FormatPDF, sample)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if pdf != md {
		t.Fatalf("pdf output differs from markdown fallback")
	}
}

func TestRender_JSONRoundTrips(t *testing.T) {
	t.Parallel()

	out, err := Render(FormatJSON, sample)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var back model.Thread
	if err := json.Unmarshal([]byte(out), &back); err != nil {
		t.Fatalf("unmarshal exported json: %v", err)
	}
	if back.ID != sample.ID || len(back.Messages) != 3 || back.Messages[1].Text != "hello" {
		t.Fatalf("exported record differs: %+v", back)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"json": FormatJSON, "md": FormatMarkdown, "Markdown": FormatMarkdown, "PDF": FormatPDF} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Fatalf("ParseFormat accepted an unknown format")
	}
}
