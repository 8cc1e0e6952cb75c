package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mshogin/fastslow/internal/application/services"
)

func init() {
	evalCmd.Flags().StringP("problems", "p", "", "Problem feed (overrides evaluation.problems_file)")
	evalCmd.Flags().IntP("workers", "w", 0, "Concurrent solves (overrides evaluation.workers)")
	evalCmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate the pipeline against a problem feed",
	Long:  "Solves every problem of a JSON feed, scores the answers and prints a report with per-problem results and aggregate metrics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}

		path := a.cfg.Evaluation.ProblemsFile
		if p, _ := cmd.Flags().GetString("problems"); p != "" {
			path = p
		}
		if path == "" {
			return fmt.Errorf("no problem feed given: use --problems or evaluation.problems_file")
		}
		workers := a.cfg.Evaluation.Workers
		if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
			workers = w
		}

		problems, err := services.LoadProblems(path)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		evaluator := services.NewEvaluator(a.svc, services.EvaluationOptions{
			Workers:    workers,
			PerProblem: a.cfg.Evaluation.PerProblem,
		}, a.logger, a.exporter)

		report, err := evaluator.Run(ctx, problems)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if out, _ := cmd.Flags().GetString("output"); out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create report file: %w", err)
			}
			defer f.Close()
			w = f
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	},
}
