package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/analysis/pipeline"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/internal/provider"
)

// newAnalyzeCommand analyzes a local file (or stdin) without any backing
// services; useful for inspection and scripting.
func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	var (
		providerKind string
		servingURL   string
		compact      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a document from a file or stdin and print the report as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				content []byte
				err     error
			)
			if len(args) == 1 && args[0] != "-" {
				content, err = os.ReadFile(args[0])
			} else {
				content, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			prov, err := provider.New(config.ProviderConfig{
				Kind:       providerKind,
				ServingURL: servingURL,
			}, logging.NewNopLogger())
			if err != nil {
				return err
			}

			report, err := pipeline.New(prov, logging.NewNopLogger()).
				AnalyzeDocument(cmd.Context(), string(content))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&providerKind, "provider", "heuristic", "text provider (heuristic|serving)")
	cmd.Flags().StringVar(&servingURL, "serving-url", "", "model serving base URL (provider=serving)")
	cmd.Flags().BoolVar(&compact, "compact", false, "emit compact JSON")
	return cmd
}
