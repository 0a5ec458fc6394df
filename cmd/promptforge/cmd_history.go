package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"promptforge/internal/diffview"
	"promptforge/internal/engine"
)

// historyCmd lists every history record with its label and metadata header.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the project's history records",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadProject()
		if err != nil {
			return err
		}
		if len(state.History) == 0 {
			fmt.Println("No history yet.")
			return nil
		}
		for i, record := range state.History {
			fmt.Printf("%3d  %s\n", i+1, engine.FormatHistoryLabel(record))
			fmt.Printf("     %s\n", engine.FormatHistoryHeader(record))
			if record.NoteSummary != "" {
				fmt.Printf("     note: %s\n", record.NoteSummary)
			}
			if record.ChangeSummary != "" {
				fmt.Printf("     changes: %s\n", record.ChangeSummary)
			}
		}
		return nil
	},
}

// diffCmd shows what a history entry changed relative to the prior snapshot.
var diffCmd = &cobra.Command{
	Use:   "diff [entry]",
	Short: "Diff a history entry's snapshot against the previous snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadProject()
		if err != nil {
			return err
		}
		index, err := historyIndex(args[0], state)
		if err != nil {
			return err
		}
		selected := state.History[index].OutputSnapshot

		previous := ""
		previousLabel := "previous (none)"
		for i := index - 1; i >= 0; i-- {
			if state.History[i].OutputSnapshot != "" {
				previous = state.History[i].OutputSnapshot
				previousLabel = fmt.Sprintf("previous (entry %d)", i+1)
				break
			}
		}

		fmt.Print(diffview.Unified(
			previousLabel,
			fmt.Sprintf("selected (entry %d)", index+1),
			previous,
			selected))
		return nil
	},
}

// restoreCmd adopts a history entry's snapshot as the current output.
var restoreCmd = &cobra.Command{
	Use:   "restore [entry]",
	Short: "Restore the current output from a history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadProject()
		if err != nil {
			return err
		}
		index, err := historyIndex(args[0], state)
		if err != nil {
			return err
		}
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		next, err := eng.Restore(state, index)
		if err != nil {
			return err
		}
		if err := saveProject(next); err != nil {
			return err
		}
		fmt.Printf("Restored current output from history entry %d.\n", index+1)
		return nil
	},
}

// summarizeCmd fills in the change summary for one history entry.
var summarizeCmd = &cobra.Command{
	Use:   "summarize [entry]",
	Short: "Generate a change summary for a history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadProject()
		if err != nil {
			return err
		}
		index, err := historyIndex(args[0], state)
		if err != nil {
			return err
		}
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		next, err := eng.GenerateChangeSummary(cmd.Context(), state, index)
		if err != nil {
			return err
		}
		if err := saveProject(next); err != nil {
			return err
		}
		fmt.Println(next.History[index].ChangeSummary)
		return nil
	},
}

// historyIndex parses a 1-based entry number, matching the numbering the
// history command prints, and returns the 0-based index.
func historyIndex(arg string, state engine.ProjectState) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid history entry %q: %w", arg, err)
	}
	if n < 1 || n > len(state.History) {
		return 0, fmt.Errorf("history entry %d out of range (1-%d)", n, len(state.History))
	}
	return n - 1, nil
}

func init() {
	rootCmd.AddCommand(historyCmd, diffCmd, restoreCmd, summarizeCmd)
}
