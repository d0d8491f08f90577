package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/credit-scorer/internal/config"
	"github.com/jonathan/credit-scorer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the credit scoring HTTP server",
	Long: `Starts the HTTP API server with endpoints for scoring applications,
launching training runs, and browsing runs and recorded assessments.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runServe,
}

var (
	serveConfigPath  string
	servePort        int
	serveDatabaseURL string
	serveModelPath   string
	serveModelType   string
)

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	serveCmd.Flags().StringVar(&serveModelPath, "model-path", "", "Path to the trained model bundle")
	serveCmd.Flags().StringVarP(&serveModelType, "model-type", "m", "", "Model family for training runs")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(serveConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		if cmd.Flags().Changed("db-url") {
			cfg.DatabaseURL = serveDatabaseURL
		}
		if cmd.Flags().Changed("model-path") {
			cfg.ModelPath = serveModelPath
		}
		if cmd.Flags().Changed("model-type") {
			cfg.ModelType = serveModelType
		}
	})
	if err != nil {
		return err
	}

	s, err := server.New(server.Config{
		Port:          cfg.Port,
		DatabaseURL:   cfg.DatabaseURL,
		ModelPath:     cfg.ModelPath,
		ModelType:     cfg.ModelType,
		CVFolds:       cfg.CVFolds,
		RandomState:   cfg.RandomState,
		AltDataWeight: cfg.AltDataWeight,
	})
	if err != nil {
		return err
	}

	return s.Start()
}
