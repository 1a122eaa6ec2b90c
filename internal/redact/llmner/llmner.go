// Package llmner provides a redact.Recognizer backed by a local
// OpenAI-compatible LLM (e.g. Ollama). It stands in for the spaCy sidecar on
// hosts where only an LLM runtime is available.
//
// The model is asked for the entity strings verbatim rather than offsets,
// because small models get offsets wrong. Go code locates every occurrence in
// the original line itself.
package llmner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

const systemPrompt = `Extract named entities from one line of a scanned document. Return a JSON array of objects {"text": "...", "label": "..."} where text is copied exactly from the input and label is one of:
- PERSON: names of people (e.g. Tan Ah Kow, Dr. Jane Lim)
- ORG: organisations, hospitals, clinics, companies
- GPE: countries, cities, states
- LOC: streets, buildings, other locations

Do NOT return titles or roles on their own (Dear, Doctor, Patient, Coordinator), form labels (Name, Address, Date of Birth), numbers or dates.

Return [] if nothing is found. Return ONLY the JSON array. No explanation.

Examples:
Input: "Referred by Dr. Jane Lim, Sunnyville Clinic"
Output: [{"text": "Jane Lim", "label": "PERSON"}, {"text": "Sunnyville Clinic", "label": "ORG"}]

Input: "Patient Particulars"
Output: []`

// Recognizer calls a local LLM to find PERSON and location entities.
type Recognizer struct {
	url   string
	model string
	http  *http.Client
}

// New creates a Recognizer.
// baseURL is the Ollama (or any OpenAI-compatible) server, e.g. "http://ollama:11434".
func New(baseURL, model string) *Recognizer {
	return &Recognizer{
		url:   strings.TrimRight(baseURL, "/") + "/v1/chat/completions",
		model: model,
		http: &http.Client{
			Timeout: 125 * time.Second,
		},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	// Models that ignore this still get their <think> block removed by cleanReply.
	Think bool `json:"think"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type candidate struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Recognize sends text to the LLM and returns entity spans with character
// offsets. It is safe for concurrent use.
func (r *Recognizer) Recognize(ctx context.Context, text string) ([]redact.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	body, err := json.Marshal(chatRequest{
		Model: r.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Line:\n" + text + "\n/no_think"},
		},
		Temperature: 0,
		MaxTokens:   1024,
		Think:       false,
	})
	if err != nil {
		return nil, fmt.Errorf("llmner: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llmner: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		slog.Warn("llmner: LLM unreachable, skipping", "err", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody [512]byte
		n, _ := resp.Body.Read(errBody[:])
		slog.Warn("llmner: unexpected status", "code", resp.StatusCode, "body", string(errBody[:n]))
		return nil, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("llmner: read body", "err", err)
		return nil, nil
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		slog.Warn("llmner: decode response", "err", err)
		return nil, nil
	}
	if len(chat.Choices) == 0 {
		return nil, nil
	}

	choice := chat.Choices[0]
	if choice.FinishReason == "length" {
		slog.Warn("llmner: response truncated by token limit")
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		content = strings.TrimSpace(choice.Message.Reasoning)
	}
	content = cleanReply(content)

	var cands []candidate
	if err := json.Unmarshal([]byte(content), &cands); err != nil {
		slog.Warn("llmner: could not parse LLM output", "content", content, "err", err)
		return nil, nil
	}

	ents := locate(text, cands)
	slog.Debug("llmner: recognized entities", "candidates", len(cands), "entities", len(ents))
	return ents, nil
}

// locate finds every whole-word occurrence of each candidate in text and
// reports it with rune offsets.
func locate(text string, cands []candidate) []redact.Entity {
	var out []redact.Entity
	for _, c := range cands {
		val := strings.TrimSpace(c.Text)
		label := strings.ToUpper(strings.TrimSpace(c.Label))
		if val == "" || label == "" {
			continue
		}
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], val)
			if i < 0 {
				break
			}
			lo, hi := from+i, from+i+len(val)
			from = hi
			if !wordAt(text, lo, hi) {
				continue
			}
			out = append(out, redact.Entity{
				Start: utf8.RuneCountInString(text[:lo]),
				End:   utf8.RuneCountInString(text[:hi]),
				Label: label,
				Text:  val,
			})
		}
	}
	return out
}

// wordAt reports whether text[lo:hi] is not glued to a neighbouring letter
// or digit.
func wordAt(text string, lo, hi int) bool {
	if r, _ := utf8.DecodeLastRuneInString(text[:lo]); lo > 0 && isWordRune(r) {
		return false
	}
	if r, _ := utf8.DecodeRuneInString(text[hi:]); hi < len(text) && isWordRune(r) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

// cleanReply reduces a model reply to its JSON array: reasoning blocks and
// markdown fences are dropped and the outermost [...] is kept.
func cleanReply(s string) string {
	if before, rest, ok := strings.Cut(s, "<think>"); ok {
		_, after, closed := strings.Cut(rest, "</think>")
		if !closed {
			after = ""
		}
		s = before + after
	}
	s = strings.TrimSpace(s)
	if fenced, ok := strings.CutPrefix(s, "```"); ok {
		if _, body, ok := strings.Cut(fenced, "\n"); ok {
			fenced = body
		}
		s, _, _ = strings.Cut(fenced, "```")
	}
	lo, hi := strings.IndexByte(s, '['), strings.LastIndexByte(s, ']')
	if lo < 0 || hi < lo {
		return strings.TrimSpace(s)
	}
	return s[lo : hi+1]
}
