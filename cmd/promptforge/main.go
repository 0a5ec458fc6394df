package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"promptforge/internal/config"
	"promptforge/internal/engine"
	"promptforge/internal/llm"
	"promptforge/internal/logging"
	"promptforge/internal/project"
)

var (
	// Global flags
	verbose     bool
	projectPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "promptforge",
	Short: "promptforge - iterative additive/reductive prompt refinement",
	Long: `promptforge drives an LLM through an alternating refinement loop:
each iteration runs an additive step that enriches the current output, then a
reductive step that tightens it. Project state, templates and the full step
history live in a single JSON document.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.Options{Debug: verbose, Name: "promptforge"})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&projectPath, "project", "p", "project.json", "path to the project document")
}

// loadProject reads the project document named by --project.
func loadProject() (engine.ProjectState, error) {
	return project.Load(projectPath)
}

// saveProject writes the state back to the --project path.
func saveProject(state engine.ProjectState) error {
	return project.Save(state, projectPath)
}

// buildBackend wires configuration into an LLM client.
func buildBackend() (*llm.Client, config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.AppConfig{}, err
	}
	client := llm.NewClient(llm.Options{
		APIKey:                 cfg.APIKey,
		PremiumModel:           cfg.PremiumModel,
		BudgetModel:            cfg.BudgetModel,
		PremiumReasoningEffort: cfg.PremiumReasoningEffort,
		BudgetReasoningEffort:  cfg.BudgetReasoningEffort,
		Verbose:                cfg.VerboseLLMLogging,
		VerboseMaxChars:        cfg.VerboseLogMaxChars,
		Logger:                 logger,
	})
	return client, cfg, nil
}

// buildEngine wires the backend into a refinement engine.
func buildEngine() (*engine.Engine, error) {
	client, cfg, err := buildBackend()
	if err != nil {
		return nil, err
	}
	return engine.New(client, engine.Config{
		AdditiveTemperature:  cfg.AdditiveTemperature,
		ReductiveTemperature: cfg.ReductiveTemperature,
		Logger:               logger,
	}), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
