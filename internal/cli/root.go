// Package cli implements the redact command line tool.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/gonka-redact-go/internal/attest"
	"github.com/gonkalabs/gonka-redact-go/internal/config"
	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

const version = "0.3.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitRuntimeError = 1
	ExitUsageError   = 2
	ExitBadSignature = 3
)

// Run executes the root command with os.Args and returns an exit code.
func Run() int {
	return execute(newRootCmd(), os.Args[1:])
}

func execute(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, attest.ErrBadSignature):
		return ExitBadSignature
	case errors.Is(err, errUsage):
		return ExitUsageError
	default:
		return ExitRuntimeError
	}
}

var errUsage = errors.New("usage")

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "redact",
		Short:        "Find and mask sensitive text on scanned documents",
		Long:         "redact runs OCR over a document, detects personal data per line and paints redaction boxes over it.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log detection details to stderr")

	root.AddCommand(
		newFileCmd(),
		newLinesCmd(),
		newVerifyCmd(),
		newCategoriesCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print redact version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "redact version %s\n", version)
		},
	}
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories that can be requested",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			policy, err := config.LoadPolicy(cfg.PolicyFile)
			if err != nil {
				return err
			}
			rules, err := policy.RuleSet()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range redact.KnownCategories {
				source := "ner"
				if r, ok := rules.Lookup(c); ok {
					source = "pattern"
					if r.Gated() {
						source = "pattern, context gated"
					}
				} else if c == redact.CategoryAddress {
					source = "heuristic, ner"
				}
				fmt.Fprintf(out, "%-10s %s\n", c, source)
			}
			return nil
		},
	}
}

// splitComma splits a comma-separated flag value, dropping empty parts.
func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
