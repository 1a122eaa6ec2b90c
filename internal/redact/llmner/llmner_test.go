package llmner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

func llm(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tiny", req.Model)

		resp := map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"content": content},
				"finish_reason": "stop",
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRecognize(t *testing.T) {
	content := "<think>names</think>\n```json\n" +
		`[{"text": "Tan", "label": "person"}, {"text": "Sunnyville Clinic", "label": "ORG"}]` +
		"\n```"
	srv := llm(t, content)

	got, err := New(srv.URL+"/", "tiny").Recognize(context.Background(), "See Dr. Tan at Sunnyville Clinic, Tanjong")
	require.NoError(t, err)
	assert.Equal(t, []redact.Entity{
		{Start: 8, End: 11, Label: "PERSON", Text: "Tan"},
		{Start: 15, End: 32, Label: "ORG", Text: "Sunnyville Clinic"},
	}, got)
}

func TestRecognizeUnparseable(t *testing.T) {
	srv := llm(t, "I could not find anything")

	got, err := New(srv.URL, "tiny").Recognize(context.Background(), "Dear Sir")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocateUsesCharacterOffsets(t *testing.T) {
	got := locate("T\u00ean: L\u00ea V\u0103n", []candidate{{Text: "L\u00ea V\u0103n", Label: "PERSON"}})
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].Start)
	assert.Equal(t, 11, got[0].End)
}

func TestLocateSkipsPartialWords(t *testing.T) {
	got := locate("Tanjong Tan", []candidate{{Text: "Tan", Label: "PERSON"}})
	require.Len(t, got, 1)
	assert.Equal(t, 8, got[0].Start)
}

func TestCleanReply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `[{"text":"Tan","label":"PERSON"}]`, `[{"text":"Tan","label":"PERSON"}]`},
		{"fenced", "```json\n[]\n```", "[]"},
		{"think", "<think>hmm [x]</think> []", "[]"},
		{"unclosed think", "[] <think>rambling", "[]"},
		{"prose around", "Here you go: [] hope it helps", "[]"},
		{"no array", "nothing", "nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanReply(tt.in))
		})
	}
}
