package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/gonka-redact-go/internal/config"
	"github.com/gonkalabs/gonka-redact-go/internal/pipeline"
	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

// linesDoc is the input of the lines command. Entities, when present on a
// line, stand in for the NER collaborator on that line.
type linesDoc struct {
	Categories []string               `json:"categories"`
	Lines      []redact.AnnotatedLine `json:"lines"`
}

// linesRecognizer returns the NER collaborator for the lines command. The
// input usually carries its own entities, so a collaborator is only built
// when NER_BACKEND is set explicitly.
func linesRecognizer(cfg *config.Cfg) (redact.Recognizer, error) {
	if !cfg.NERBackendSet {
		return nil, nil
	}
	return pipeline.Recognizer(cfg)
}

func newLinesCmd() *cobra.Command {
	var categories string
	cmd := &cobra.Command{
		Use:   "lines <doc.json>",
		Short: "Compute redaction regions for already recognized lines",
		Long: "Reads {categories, lines:[{text, quad, confidence, entities?}]} and prints " +
			"{regions:[{quad, label}]} without running OCR or rendering. Use - for stdin.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if args[0] == "-" {
				raw, err = readAll(cmd)
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			var doc linesDoc
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("%w: %s: %v", errUsage, args[0], err)
			}
			if categories != "" {
				doc.Categories = splitComma(categories)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			policy, err := config.LoadPolicy(cfg.PolicyFile)
			if err != nil {
				return err
			}
			opts, err := cfg.EngineOptions(policy)
			if err != nil {
				return err
			}
			rec, err := linesRecognizer(cfg)
			if err != nil {
				return err
			}
			if rec != nil {
				opts = append(opts, redact.WithRecognizer(rec))
			}

			regions, err := redact.New(opts...).CompileAnnotated(cmd.Context(), doc.Lines, redact.NewCategorySet(doc.Categories...))
			if err != nil {
				return err
			}
			if regions == nil {
				regions = []redact.Region{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"regions": regions})
		},
	}
	cmd.Flags().StringVarP(&categories, "categories", "c", "", "override the document's categories (comma-separated)")
	return cmd
}
