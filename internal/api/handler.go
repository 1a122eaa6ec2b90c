package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gonkalabs/gonka-redact-go/internal/pipeline"
	"github.com/gonkalabs/gonka-redact-go/internal/redact"
	"github.com/gonkalabs/gonka-redact-go/internal/render"
)

// Response headers set by /v1/redact.
const (
	HeaderRegions   = "X-Redaction-Regions"
	HeaderJob       = "X-Redaction-Job"
	HeaderSignature = "X-Redaction-Signature"
	HeaderSigner    = "X-Redaction-Signer"
)

// Handler implements all HTTP endpoints.
type Handler struct {
	proc      *pipeline.Processor
	maxUpload int64
}

// New creates a Handler around a shared processor.
func New(proc *pipeline.Processor, maxUpload int64) *Handler {
	return &Handler{proc: proc, maxUpload: maxUpload}
}

// Attach mounts routes on r.
func (h *Handler) Attach(r chi.Router) {
	r.Get("/health", h.health)
	r.Get("/v1/categories", h.categories)
	r.Post("/v1/regions", h.regions)
	r.Post("/v1/redact", h.redact)
}

// Router builds the full HTTP handler with CORS for the given origins.
func Router(h *Handler, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{HeaderRegions, HeaderJob, HeaderSignature, HeaderSigner},
		MaxAge:         300,
	}))
	h.Attach(r)
	return r
}

// ---------- endpoints ----------

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"ocr":    h.proc.OCR.Name(),
	})
}

func (h *Handler) categories(w http.ResponseWriter, _ *http.Request) {
	type ruleEntry struct {
		Category redact.Category `json:"category"`
		Gated    bool            `json:"gated"`
	}
	rules := make([]ruleEntry, 0, len(h.proc.Engine.Rules()))
	for _, r := range h.proc.Engine.Rules() {
		rules = append(rules, ruleEntry{Category: r.Category, Gated: r.Gated()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": redact.KnownCategories,
		"rules":      rules,
	})
}

type regionsRequest struct {
	Categories []string               `json:"categories"`
	Lines      []redact.AnnotatedLine `json:"lines"`
}

// regions runs only the core on lines the caller already recognized. Lines
// that carry entities use them instead of the configured NER collaborator.
func (h *Handler) regions(w http.ResponseWriter, r *http.Request) {
	var req regionsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUpload)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	regions, err := h.proc.Engine.CompileAnnotated(r.Context(), req.Lines, redact.NewCategorySet(req.Categories...))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if regions == nil {
		regions = []redact.Region{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": regions})
}

// redact accepts a multipart upload with a "file" part, an optional
// "categories" field holding a JSON array and an optional "format" (png or
// pdf), and answers with the redacted page.
func (h *Handler) redact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeErr(w, http.StatusBadRequest, "empty filename")
		return
	}

	raw := r.FormValue("categories")
	if raw == "" {
		raw = "[]"
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		writeErr(w, http.StatusBadRequest, "categories must be a JSON array of strings")
		return
	}

	format, err := render.ParseFormat(r.FormValue("format"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "format must be png or pdf")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "failed to read file: "+err.Error())
		return
	}

	out, err := h.proc.Run(r.Context(), header.Filename, data, redact.NewCategorySet(names...), format)
	if err != nil {
		slog.Error("api: redact failed", "file", header.Filename, "err", err)
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	setRegionsHeader(w, out.Regions)
	w.Header().Set(HeaderJob, out.JobID)
	if out.Signature != "" {
		w.Header().Set(HeaderSignature, out.Signature)
		w.Header().Set(HeaderSigner, out.SignerID)
	}
	w.Header().Set("Content-Type", out.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", out.Format.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Image)
}

// ---------- helpers ----------

// setRegionsHeader encodes the region list into X-Redaction-Regions. The JSON
// is base64-encoded so labels survive header transmission.
func setRegionsHeader(w http.ResponseWriter, regions []redact.Region) {
	if regions == nil {
		regions = []redact.Region{}
	}
	b, err := json.Marshal(regions)
	if err != nil {
		return
	}
	w.Header().Set(HeaderRegions, base64.StdEncoding.EncodeToString(b))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

