package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mshogin/fastslow/internal/application/services"
	"github.com/mshogin/fastslow/internal/infrastructure/config"
	"github.com/mshogin/fastslow/internal/infrastructure/logging"
	"github.com/mshogin/fastslow/internal/infrastructure/metrics"
	"github.com/mshogin/fastslow/internal/infrastructure/oracle"
	"github.com/mshogin/fastslow/internal/infrastructure/symbolic"
)

var rootCmd = &cobra.Command{
	Use:   "fastslow",
	Short: "Adaptive fast/slow math reasoning",
	Long:  "Solves math problems by choosing between a fast and a slow reasoning strategy based on problem complexity.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env")
		// A missing .env file is not an error
		_ = godotenv.Load(envFile)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (defaults apply when empty)")
	rootCmd.PersistentFlags().String("env", ".env", "Path to an env file loaded before the configuration")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(serveCmd, solveCmd, evalCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the components shared by every subcommand.
type app struct {
	cfg       *config.Config
	logger    *logging.StructuredLogger
	exporter  *metrics.Exporter
	collector *metrics.Collector
	svc       *services.SolveService
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires the solve service. The exporter gets its own registry with
// the Go and process collectors. Commands that print results to stdout pass
// logToStderr so logs stay off the report.
func newApp(cmd *cobra.Command, logToStderr bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if logToStderr {
		cfg.Logging.Output = "stderr"
	}

	logger, err := logging.NewFromConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	exporter := metrics.NewExporter(nil)
	collector := metrics.NewCollector()
	orc := oracle.New(cfg.Oracle)

	logger.Info("pipeline initialized", map[string]interface{}{
		"oracle":       orc.Name(),
		"oracle_model": cfg.Oracle.Model,
	})

	svc := services.NewSolveService(cfg.PipelineConfig(), orc, symbolic.NewEngine(), logger,
		services.WithExporter(exporter),
		services.WithCollector(collector),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		exporter:  exporter,
		collector: collector,
		svc:       svc,
	}, nil
}
