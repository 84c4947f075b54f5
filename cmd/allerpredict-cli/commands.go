package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allerpredict/allerpredict/internal/usecase/analysis"
	healthuc "github.com/allerpredict/allerpredict/internal/usecase/health"
)

func analyzeCmd(flags *globalFlags) *cobra.Command {
	var reportOnly bool

	cmd := &cobra.Command{
		Use:     "analyze <product name or id>",
		Short:   "Analyze a catalog product for allergens and ethics",
		Example: "  allerpredict-cli analyze \"Peanut Butter Cookies\"\n  allerpredict-cli analyze 3 --json",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := flags.bootstrap(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			res := a.Analysis.Analyze(ctx, strings.Join(args, " "))
			switch {
			case flags.jsonOutput:
				return printJSON(res.Result)
			case reportOnly:
				fmt.Print(analysis.FormatReport(res))
				return nil
			default:
				fmt.Println(renderAnalysis(res))
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&reportOnly, "plain", false, "Print the plain text report without styling")
	return cmd
}

func askCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "ask <question>",
		Short:   "Ask a free-form question about the catalog",
		Example: "  allerpredict-cli ask \"Which snacks are safe for a peanut allergy?\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := flags.bootstrap(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			ans, err := a.Analysis.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return printJSON(map[string]any{"answer": ans.Text, "context": ans.Context})
			}
			fmt.Println(renderAnswer(ans))
			return nil
		},
	}
}

func productsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := flags.bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			products := a.Analysis.ListProducts()
			if flags.jsonOutput {
				return printJSON(products)
			}
			fmt.Println(renderProducts(products))
			return nil
		},
	}
}

func healthCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the catalog, embedding provider, generation backend and cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := flags.bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			report := a.Health.Check(cmd.Context())
			if flags.jsonOutput {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				fmt.Println(renderHealth(report))
			}
			if report.Status != healthuc.Healthy {
				return fmt.Errorf("status %s", report.Status)
			}
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
