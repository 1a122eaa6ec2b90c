package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/gonkalabs/gonka-redact-go/internal/attest"
	"github.com/gonkalabs/gonka-redact-go/internal/config"
	"github.com/gonkalabs/gonka-redact-go/internal/ocr"
	"github.com/gonkalabs/gonka-redact-go/internal/ocr/tesseract"
	"github.com/gonkalabs/gonka-redact-go/internal/redact"
	"github.com/gonkalabs/gonka-redact-go/internal/redact/llmner"
	"github.com/gonkalabs/gonka-redact-go/internal/redact/ner"
)

// FromConfig wires a Processor from runtime configuration: policy file,
// NER backend, Tesseract and the optional manifest signer.
func FromConfig(cfg *config.Cfg) (*Processor, error) {
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.EngineOptions(policy)
	if err != nil {
		return nil, err
	}

	rec, err := Recognizer(cfg)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		opts = append(opts, redact.WithRecognizer(rec))
	}

	p := &Processor{
		OCR: tesseract.New(ocr.Options{
			Languages: cfg.OCRLanguages,
			Preprocess: ocr.Preprocess{
				Binarize: cfg.OCRBinarize,
				Invert:   cfg.OCRInvert,
			},
		}),
		Engine: redact.New(opts...),
	}

	if cfg.AttestKey != "" {
		s, err := attest.NewSigner(cfg.AttestKey)
		if err != nil {
			return nil, err
		}
		p.Signer = s
		slog.Info("attest: manifest signing enabled", "signer", s.KeyID())
	}
	return p, nil
}

// Recognizer builds the configured NER collaborator, or nil for "none".
func Recognizer(cfg *config.Cfg) (redact.Recognizer, error) {
	switch cfg.NERBackend {
	case config.NERSidecar:
		c, err := ner.New(cfg.NERURLs, ner.WithRate(cfg.NERRate))
		if err != nil {
			return nil, err
		}
		slog.Info("ner: sidecar backend enabled", "urls", cfg.NERURLs, "rate", cfg.NERRate)
		return c, nil
	case config.NERLLM:
		slog.Info("ner: llm backend enabled", "url", cfg.LLMURL, "model", cfg.LLMModel)
		return llmner.New(cfg.LLMURL, cfg.LLMModel), nil
	case config.NERNone, "":
		slog.Warn("ner: no backend, PERSON findings disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("pipeline: unknown NER backend %q", cfg.NERBackend)
	}
}
