package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/engine"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest shopping list items from purchase history",
		RunE:  runSuggest,
	}

	cmd.Flags().Int("history", 50, "number of recent products to consider")

	return cmd
}

func runSuggest(cmd *cobra.Command, args []string) error {
	historyLimit, _ := cmd.Flags().GetInt("history")

	ctx := cmd.Context()
	storage, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	generator, err := initGenerator()
	if err != nil {
		return err
	}

	suggester := engine.NewSuggester(storage, generator)
	suggestions, err := suggester.Suggest(ctx, historyLimit)
	if err != nil {
		if errors.Is(err, common.ErrUpstreamUnavailable) {
			cmd.Println("Suggestions are unavailable right now. Configure a generator API key or try again later.")
			return nil
		}
		return err
	}

	if len(suggestions) == 0 {
		cmd.Println("Nothing to suggest yet. Record some purchases first.")
		return nil
	}

	for _, s := range suggestions {
		cmd.Printf("%-30s %.0f%%  %s\n", s.Name, s.Confidence*100, s.Reason)
	}
	return nil
}
