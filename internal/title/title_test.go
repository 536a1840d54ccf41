package title

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hexchat/chat-sync/internal/llm"
	"github.com/hexchat/chat-sync/internal/model"
)

type stubClient struct {
	content string
	err     error
	lastReq *llm.CompletionRequest
}

func (s *stubClient) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content}, nil
}

func (s *stubClient) Name() string { return "stub" }

func TestGenerate_UsesOnlyEarlyMessages(t *testing.T) {
	t.Parallel()

	stub := &stubClient{content: "Trip Planning"}
	g := NewLLMGenerator(stub)

	msgs := make([]model.Message, 10)
	for i := range msgs {
		msgs[i] = model.Message{Role: model.RoleUser, Text: "msg"}
	}
	msgs[5].Text = "LATE"

	got, err := g.Generate(context.Background(), msgs)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Trip Planning" {
		t.Fatalf("title=%q", got)
	}
	if strings.Contains(stub.lastReq.Messages[0].Content, "LATE") {
		t.Fatalf("prompt includes messages past the sample window")
	}
}

func TestGenerate_CleansModelOutput(t *testing.T) {
	t.Parallel()

	stub := &stubClient{content: "  \"A Title\"\nexplanation line\n"}
	g := NewLLMGenerator(stub)

	got, err := g.Generate(context.Background(), []model.Message{{Role: model.RoleUser, Text: "hi"}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "A Title" {
		t.Fatalf("title=%q, want cleaned single line", got)
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	g := NewLLMGenerator(&stubClient{err: errors.New("boom")})
	if _, err := g.Generate(context.Background(), []model.Message{{Role: model.RoleUser, Text: "hi"}}); err == nil {
		t.Fatalf("Generate swallowed client error")
	}

	g = NewLLMGenerator(&stubClient{content: "   "})
	if _, err := g.Generate(context.Background(), []model.Message{{Role: model.RoleUser, Text: "hi"}}); err == nil {
		t.Fatalf("Generate accepted an empty title")
	}

	g = NewLLMGenerator(nil)
	if _, err := g.Generate(context.Background(), []model.Message{{Role: model.RoleUser, Text: "hi"}}); err == nil {
		t.Fatalf("Generate without a client did not error")
	}
}
