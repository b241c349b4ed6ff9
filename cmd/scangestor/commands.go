package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"scangestor/internal/ingest"
	"scangestor/internal/tui"
)

func ingestCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index new and updated markdown documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if root == "" {
				root = a.cfg.Docs.Root
			}
			sum, err := a.ingester().Ingest(cmd.Context(), root)
			if err != nil {
				return err
			}
			printSummary(cmd, sum)
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "documents root (default: docs.root from config)")
	return cmd
}

func askCmd() *cobra.Command {
	var showCategory, showSources bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")
			fmt.Fprintln(cmd.OutOrStdout(), orch.Answer(cmd.Context(), question, showCategory, showSources))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showCategory, "show-category", false, "prefix the answer with how the question was routed")
	cmd.Flags().BoolVar(&showSources, "show-sources", false, "list the documents consulted")
	return cmd
}

func chatCmd() *cobra.Command {
	var ingestFirst bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			banner := fmt.Sprintf("docs: %s  index: %s", a.cfg.Docs.Root, a.cfg.VectorStore.Type)
			if ingestFirst {
				sum, err := a.ingester().Ingest(cmd.Context(), a.cfg.Docs.Root)
				if err != nil {
					return err
				}
				banner += fmt.Sprintf("  ingested: %d processed, %d skipped", sum.Processed, sum.Skipped)
			}
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}
			m := tui.New(cmd.Context(), orch, banner)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&ingestFirst, "ingest", false, "run an ingestion pass before starting the chat")
	return cmd
}

func printSummary(cmd *cobra.Command, sum ingest.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, strings.Repeat("=", 40))
	fmt.Fprintln(out, "SUMMARY:")
	fmt.Fprintf(out, "   - Processed and indexed: %d\n", sum.Processed)
	fmt.Fprintf(out, "   - Skipped (already indexed, excluded or failed): %d\n", sum.Skipped)
	fmt.Fprintf(out, "   - Updated documents: %d (%d old chunks deleted)\n", sum.Updated, sum.Deleted)
	fmt.Fprintln(out, strings.Repeat("=", 40))
}
