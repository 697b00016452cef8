package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cartwheel-app/cartwheel/internal/cli"
	"github.com/cartwheel-app/cartwheel/internal/insights"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict which products are due for repurchase",
		RunE:  runPredict,
	}

	cmd.Flags().Int("days-ahead", 7, "forward-looking window (reserved, currently unused)")
	cmd.Flags().Float64("min-confidence", 0.5, "minimum prediction confidence")

	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	daysAhead, _ := cmd.Flags().GetInt("days-ahead")
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")

	ctx := cmd.Context()
	storage, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	predictions, err := insights.NewPredictor(storage).PredictNeeded(ctx, daysAhead, minConfidence)
	if err != nil {
		return err
	}

	if len(predictions) == 0 {
		cmd.Println("Nothing looks due for repurchase right now.")
		return nil
	}

	cmd.Println(cli.FormatTitle("Needed soon"))
	for _, p := range predictions {
		detail := fmt.Sprintf("(%.1f days since purchase, usually every %.1f)",
			p.DaysSincePurchase, p.ExpectedDays)
		cmd.Printf("%-30s confidence %.2f  %s\n",
			p.Product.Name, p.Confidence, cli.StyleSubtle(detail))
	}
	return nil
}
