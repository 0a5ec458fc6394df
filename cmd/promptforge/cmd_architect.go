package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"promptforge/internal/architect"
	"promptforge/internal/engine"
)

var (
	architectAdditive  bool
	architectReductive bool
)

// architectCmd regenerates the phase prompt templates.
var architectCmd = &cobra.Command{
	Use:   "architect",
	Short: "Generate phase prompt templates from the project brief",
	Long: `Generates additive and/or reductive prompt templates at the premium tier.
A degraded backend or low-quality output falls back to a deterministic
template, so this command always leaves the project runnable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadProject()
		if err != nil {
			return err
		}
		client, cfg, err := buildBackend()
		if err != nil {
			return err
		}
		eng := engine.New(client, engine.Config{
			AdditiveTemperature:  cfg.AdditiveTemperature,
			ReductiveTemperature: cfg.ReductiveTemperature,
			Logger:               logger,
		})
		arch := architect.New(client, logger)

		req := architect.Request{Additive: architectAdditive, Reductive: architectReductive}
		if !req.Additive && !req.Reductive {
			req = architect.Request{Additive: true, Reductive: true}
		}

		result, err := arch.GenerateTemplates(cmd.Context(), state, req)
		if err != nil {
			return err
		}

		next := state.Clone()
		if req.Additive && result.Additive != "" {
			next.AdditiveTemplate = result.Additive
		}
		if req.Reductive && result.Reductive != "" {
			next.ReductiveTemplate = result.Reductive
		}
		next = eng.RecordPromptArchitect(next, result.ModelUsed, result.Notes)
		if err := saveProject(next); err != nil {
			return err
		}

		if result.Degraded {
			fmt.Println("Templates generated (degraded to fallback for at least one phase).")
		} else {
			fmt.Println("Templates generated.")
		}
		if result.Notes != "" {
			fmt.Println("Notes:", result.Notes)
		}
		return nil
	},
}

func init() {
	architectCmd.Flags().BoolVar(&architectAdditive, "additive", false, "generate the additive template")
	architectCmd.Flags().BoolVar(&architectReductive, "reductive", false, "generate the reductive template")
	rootCmd.AddCommand(architectCmd)
}
