package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/gonka-redact-go/internal/config"
	"github.com/gonkalabs/gonka-redact-go/internal/pipeline"
	"github.com/gonkalabs/gonka-redact-go/internal/redact"
	"github.com/gonkalabs/gonka-redact-go/internal/render"
)

func newFileCmd() *cobra.Command {
	var (
		categories string
		outPath    string
		manifest   string
		formatName string
	)
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "OCR and redact a scanned page or document",
		Long: "Redacts the requested categories on a PNG, JPEG, GIF, TIFF, BMP, WebP, PDF (first page), " +
			".docx or .txt file and writes the result as PNG or PDF.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(formatName)
			if err != nil {
				return fmt.Errorf("%w: --format must be png or pdf", errUsage)
			}
			in := args[0]
			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			proc, err := pipeline.FromConfig(cfg)
			if err != nil {
				return err
			}

			out, err := proc.Run(cmd.Context(), filepath.Base(in), data, redact.NewCategorySet(splitComma(categories)...), format)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = strings.TrimSuffix(in, filepath.Ext(in)) + ".redacted." + string(format)
			}
			if err := os.WriteFile(outPath, out.Image, 0o644); err != nil {
				return err
			}
			if manifest != "" {
				raw, err := json.MarshalIndent(out.Manifest, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(manifest, raw, 0o644); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "job:       %s\n", out.JobID)
			fmt.Fprintf(w, "lines:     %d\n", len(out.Lines))
			fmt.Fprintf(w, "regions:   %d\n", len(out.Regions))
			fmt.Fprintf(w, "output:    %s\n", outPath)
			if out.Signature != "" {
				fmt.Fprintf(w, "signer:    %s\n", out.SignerID)
				fmt.Fprintf(w, "signature: %s\n", out.Signature)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&categories, "categories", "c", "", "comma-separated categories to redact (e.g. PERSON,EMAIL)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default <input>.redacted.<format>)")
	cmd.Flags().StringVarP(&formatName, "format", "f", "png", "output format: png or pdf")
	cmd.Flags().StringVar(&manifest, "manifest", "", "write the redaction manifest as JSON to this path")
	return cmd
}
