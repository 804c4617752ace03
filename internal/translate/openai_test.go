package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func newOpenAIServer(t *testing.T, content string) *OpenAITranslator {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "French") {
			t.Errorf("unexpected messages %+v", req.Messages)
		}

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAITranslatorWithConfig(cfg, "")
}

func TestOpenAITranslate(t *testing.T) {
	tr := newOpenAIServer(t, "  bonjour monde \n")

	got, err := tr.Translate(context.Background(), "hello world", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "bonjour monde" {
		t.Errorf("Translate = %q", got)
	}
}

func TestOpenAITranslateEmptyAnswer(t *testing.T) {
	tr := newOpenAIServer(t, "   ")

	_, err := tr.Translate(context.Background(), "hello world", "fr")
	if !errors.Is(err, ErrNoTranslation) {
		t.Fatalf("error = %v, want ErrNoTranslation", err)
	}
}

func TestNewOpenAITranslatorRequiresKey(t *testing.T) {
	if _, err := NewOpenAITranslator("", ""); err == nil {
		t.Fatal("expected error for missing API key")
	}
	tr, err := NewOpenAITranslator("key", "")
	if err != nil {
		t.Fatal(err)
	}
	if tr.model != DefaultOpenAIModel {
		t.Errorf("model = %q", tr.model)
	}
}
