package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/gonka-redact-go/internal/attest"
)

func newVerifyCmd() *cobra.Command {
	var signature, signer string
	cmd := &cobra.Command{
		Use:   "verify <manifest.json>",
		Short: "Check a redaction manifest against its signature",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if signature == "" || signer == "" {
				return fmt.Errorf("%w: --signature and --signer are required", errUsage)
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var m attest.Manifest
			if err := json.Unmarshal(raw, &m); err != nil {
				return fmt.Errorf("%w: %s: %v", errUsage, args[0], err)
			}
			if err := attest.Verify(m, signature, signer); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: job %s, %d regions, signed by %s\n", m.JobID, len(m.Regions), signer)
			return nil
		},
	}
	cmd.Flags().StringVar(&signature, "signature", "", "hex signature (X-Redaction-Signature)")
	cmd.Flags().StringVar(&signer, "signer", "", "signer key ID (X-Redaction-Signer)")
	return cmd
}

func readAll(cmd *cobra.Command) ([]byte, error) {
	return io.ReadAll(cmd.InOrStdin())
}
