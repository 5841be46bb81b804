package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datasleuth/datasleuth/internal/pipeline"
	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/logger"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "datasleuth",
		Short: "DataSleuth - automated analysis of tabular data files",
		Long: `DataSleuth ingests a CSV or JSON file and emits one JSON analytical report:
column profiling, descriptive statistics, correlations, trends, segmentation,
anomaly detection, temporal analysis, and prioritized recommendations.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("DataSleuth v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	var configFile, executionID, logLevel string
	var pretty bool

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a tabular data file",
		Long: `Analyze a CSV or JSON file and print the full report as a single JSON
object on stdout. Analytical failures (unreadable file, undecodable bytes)
still produce a report with success=false and exit code 0; only usage errors
exit nonzero.

Example:
  datasleuth analyze sales.csv --execution-id run-42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runAnalysis(cmd.Context(), args[0], configFile, executionID, logLevel, pretty)
		},
	}
	analyzeCmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML configuration file (defaults apply when omitted)")
	analyzeCmd.Flags().StringVar(&executionID, "execution-id", "", "caller-supplied run identifier (generated when omitted)")
	analyzeCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	analyzeCmd.Flags().BoolVar(&pretty, "pretty", false, "indent the report JSON")
	root.AddCommand(analyzeCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalysis(ctx context.Context, path, configFile, executionID, logLevel string, pretty bool) error {
	if err := logger.Init(logger.Config{Level: logLevel, Encoding: "json"}); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.FromEnv()
	}

	if executionID == "" {
		executionID = uuid.New().String()
	}

	ctx = context.WithValue(ctx, logger.ExecutionIDKey, executionID)
	log := logger.WithContext(ctx)
	rep := pipeline.New(cfg, log).Run(ctx, path, executionID)

	var out []byte
	var err error
	if pretty {
		out, err = gojson.MarshalIndent(rep, "", "  ")
	} else {
		out, err = rep.Render()
	}
	if err != nil {
		// NaN or Inf escaping the stage guards would land here. Emit a
		// minimal failure document so callers still get valid JSON.
		log.Error("report marshaling failed", zap.Error(err))
		out = []byte(fmt.Sprintf(`{"success":false,"execution_id":%q,"error":"report marshaling failed"}`, executionID))
	}

	fmt.Println(string(out))
	return nil
}
