package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// NER backends.
const (
	NERSidecar = "sidecar"
	NERLLM     = "llm"
	NERNone    = "none"
)

// Cfg holds all runtime configuration loaded from environment variables.
type Cfg struct {
	// Server
	ListenAddr    string   // e.g. :8080
	LogLevel      slog.Level
	CORSOrigins   []string // CORS_ORIGINS=https://app.example.com,http://localhost:5173
	MaxUploadSize int64    // bytes, from MAX_UPLOAD_MB

	// Engine
	PolicyFile string // REDACT_POLICY_FILE=/etc/redact/policy.yaml
	Workers    int    // REDACT_WORKERS=4
	Coalesce   bool   // REDACT_COALESCE=true merges overlapping findings

	// NER collaborator
	NERBackend    string   // sidecar | llm | none
	NERBackendSet bool     // NER_BACKEND was given rather than defaulted
	NERURLs       []string // NER_URLS=http://redact-ner:8001,http://redact-ner-2:8001
	NERRate       float64  // NER_RATE=20 (requests/second, 0 = unlimited)
	LLMURL        string   // LLM_URL=http://ollama:11434
	LLMModel      string   // LLM_MODEL=qwen2.5:0.5b

	// OCR collaborator
	OCRLanguages []string // OCR_LANGUAGES=eng,msa
	OCRBinarize  bool     // OCR_BINARIZE=true
	OCRInvert    bool     // OCR_INVERT=true for white-on-dark scans

	// Manifest signing
	AttestKey string // ATTEST_PRIVATE_KEY=hex secp256k1 key (0x optional)
}

// Load reads .env (if present) then environment variables and returns Cfg.
func Load() (*Cfg, error) {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	port := env("PORT", "8080")

	level, err := parseLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	workers, err := envInt("REDACT_WORKERS", 1)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("REDACT_WORKERS must be at least 1, got %d", workers)
	}

	maxUpload, err := envInt("MAX_UPLOAD_MB", 20)
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(env("NER_BACKEND", NERSidecar))
	switch backend {
	case NERSidecar, NERLLM, NERNone:
	default:
		return nil, fmt.Errorf("NER_BACKEND must be one of sidecar, llm, none; got %q", backend)
	}

	var nerRate float64
	if raw := strings.TrimSpace(os.Getenv("NER_RATE")); raw != "" {
		nerRate, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("NER_RATE: %w", err)
		}
	}

	return &Cfg{
		ListenAddr:    ":" + port,
		LogLevel:      level,
		CORSOrigins:   splitList(env("CORS_ORIGINS", "*")),
		MaxUploadSize: int64(maxUpload) << 20,
		PolicyFile:    strings.TrimSpace(os.Getenv("REDACT_POLICY_FILE")),
		Workers:       workers,
		Coalesce:      envBool("REDACT_COALESCE", false),
		NERBackend:    backend,
		NERBackendSet: strings.TrimSpace(os.Getenv("NER_BACKEND")) != "",
		NERURLs:       splitList(env("NER_URLS", "http://redact-ner:8001")),
		NERRate:       nerRate,
		LLMURL:        strings.TrimRight(env("LLM_URL", "http://ollama:11434"), "/"),
		LLMModel:      env("LLM_MODEL", "qwen2.5:0.5b"),
		OCRLanguages:  splitList(env("OCR_LANGUAGES", "eng")),
		OCRBinarize:   envBool("OCR_BINARIZE", true),
		OCRInvert:     envBool("OCR_INVERT", false),
		AttestKey:     strings.TrimSpace(os.Getenv("ATTEST_PRIVATE_KEY")),
	}, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	return raw == "1" || strings.EqualFold(raw, "true")
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

// splitList parses "a,b, c" into its non-empty trimmed parts.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
