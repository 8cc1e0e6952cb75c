package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mshogin/fastslow/internal/domain/models"
)

func init() {
	solveCmd.Flags().StringP("strategy", "s", "", "Force a strategy (FAST, SLOW, FAST_THEN_SLOW, PARALLEL, ITERATIVE)")
	solveCmd.Flags().Bool("analyze", false, "Only analyze the problem and print the recommended strategy")
}

var solveCmd = &cobra.Command{
	Use:   "solve <problem>",
	Short: "Solve a single problem and print the result as JSON",
	Example: `
# Let the pipeline pick the strategy
fastslow solve "Solve 2x + 3 = 7"

# Force deliberate reasoning
fastslow solve --strategy SLOW "What is 25 × 4?"
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}

		strategy, _ := cmd.Flags().GetString("strategy")
		req := models.SolveRequest{
			Problem:  strings.Join(args, " "),
			Strategy: models.Strategy(strings.ToUpper(strategy)),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var out interface{}
		if analyze, _ := cmd.Flags().GetBool("analyze"); analyze {
			out, err = a.svc.Analyze(ctx, req)
		} else {
			out, err = a.svc.Solve(ctx, req)
		}
		if err != nil {
			return fmt.Errorf("solve failed: %w", err)
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	},
}
