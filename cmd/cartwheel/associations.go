package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cartwheel-app/cartwheel/internal/insights"
)

func associationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "associations <product-id>",
		Short: "Show products frequently bought together with a product",
		Args:  cobra.ExactArgs(1),
		RunE:  runAssociations,
	}

	cmd.Flags().Float64("min-confidence", 0.3, "minimum association confidence")
	cmd.Flags().Int("limit", 10, "maximum results")

	return cmd
}

func runAssociations(cmd *cobra.Command, args []string) error {
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
	limit, _ := cmd.Flags().GetInt("limit")

	ctx := cmd.Context()
	storage, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	associated, err := insights.NewMiner(storage).Associated(ctx, args[0], minConfidence, limit)
	if err != nil {
		return err
	}

	if len(associated) == 0 {
		cmd.Println("No associations above the confidence threshold.")
		return nil
	}

	for _, a := range associated {
		cmd.Println(fmt.Sprintf("%-30s confidence %.2f  (bought together %d times)",
			a.Product.Name, a.Confidence, a.CoPurchaseCount))
	}
	return nil
}
