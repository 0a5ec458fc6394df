package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"promptforge/internal/engine"
	"promptforge/internal/llm"
	"promptforge/internal/validate"
)

var (
	runIterations int
	runTier       string
)

// initCmd creates a fresh project document.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new project document with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(projectPath); err == nil {
			return fmt.Errorf("%s already exists", projectPath)
		}
		state := engine.NewProjectState()
		if err := saveProject(state); err != nil {
			return err
		}
		fmt.Printf("Created %s (schema version %d)\n", projectPath, state.SchemaVersion)
		return nil
	},
}

// runCmd executes full iterations (one additive plus one reductive step each).
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run refinement iterations against the project",
	Long: `Runs the configured number of iterations. Each iteration is one additive
step followed by one reductive step; Ctrl-C stops cleanly at the next step
boundary without losing the in-flight step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadProject()
		if err != nil {
			return err
		}
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		opts := engine.RunOptions{}
		if cmd.Flags().Changed("iterations") {
			opts.IterationsOverride = &runIterations
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		result, err := eng.RunIterations(ctx, state, opts, stepOptions(), nil)
		if result.StepsCompleted > 0 {
			if saveErr := saveProject(result.State); saveErr != nil {
				return saveErr
			}
		}
		if err != nil {
			return err
		}
		if result.Cancelled {
			logger.Warn("run cancelled", zap.Int("steps_completed", result.StepsCompleted))
			fmt.Printf("Cancelled after %d step(s); progress saved.\n", result.StepsCompleted)
			return nil
		}
		fmt.Printf("Completed %d step(s).\n", result.StepsCompleted)
		return nil
	},
}

// stepCmd executes exactly one phase step.
var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Run the single next phase step",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadProject()
		if err != nil {
			return err
		}
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		planned := engine.NextStep(state)
		next, err := eng.RunNextStep(cmd.Context(), state, stepOptions())
		if err != nil {
			return err
		}
		if err := saveProject(next); err != nil {
			return err
		}
		fmt.Printf("Completed %s phase step %d (iteration %d).\n",
			planned.PhaseName, planned.PhaseStepIndex, planned.IterationIndex)
		return nil
	},
}

// planCmd prints the upcoming step sequence without calling any model.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the planned step sequence for a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadProject()
		if err != nil {
			return err
		}
		opts := engine.RunOptions{}
		if cmd.Flags().Changed("iterations") {
			opts.IterationsOverride = &runIterations
		}
		plan, err := engine.BuildRunPlan(state, opts)
		if err != nil {
			return err
		}
		for _, step := range plan.Steps {
			fmt.Printf("step %2d  iteration %d  %s\n",
				step.PhaseStepIndex, step.IterationIndex, step.PhaseName)
		}
		return nil
	},
}

// validateCmd checks the current output against the project's format.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current output for the project's format",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadProject()
		if err != nil {
			return err
		}
		status, message := validate.DescribeStatus(state.CurrentOutput, state.OutputFormat)
		fmt.Printf("%s: %s\n", status, message)
		return nil
	},
}

// stepOptions maps the --tier flag onto step options.
func stepOptions() engine.StepOptions {
	return engine.StepOptions{TierOverride: llm.Tier(runTier)}
}

func init() {
	runCmd.Flags().IntVarP(&runIterations, "iterations", "n", 0, "override the project's iteration count")
	planCmd.Flags().IntVarP(&runIterations, "iterations", "n", 0, "override the project's iteration count")
	runCmd.Flags().StringVar(&runTier, "tier", "", "force a model tier (budget or premium) for every step")
	stepCmd.Flags().StringVar(&runTier, "tier", "", "force a model tier (budget or premium) for this step")

	rootCmd.AddCommand(initCmd, runCmd, stepCmd, planCmd, validateCmd)
}
