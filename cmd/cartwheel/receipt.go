package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cartwheel-app/cartwheel/internal/engine"
	"github.com/cartwheel-app/cartwheel/internal/insights"
)

func parseReceiptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse-receipt [file]",
		Short: "Parse OCR'd receipt text into structured items",
		Long: `Parse receipt text into structured items using the configured
generator, falling back to heuristic extraction when no generator is
available. Reads from the given file, or stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runParseReceipt,
	}

	cmd.Flags().Bool("record", false, "record the parsed items as purchases")

	return cmd
}

func runParseReceipt(cmd *cobra.Command, args []string) error {
	record, _ := cmd.Flags().GetBool("record")

	var text []byte
	var err error
	if len(args) == 1 {
		text, err = os.ReadFile(args[0])
	} else {
		text, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read receipt text: %w", err)
	}

	ctx := cmd.Context()
	generator, err := initGenerator()
	if err != nil {
		return err
	}

	processor := engine.NewProcessor(generator)
	result, err := processor.ProcessReceipt(ctx, string(text))
	if err != nil {
		return err
	}

	receipt := result.Receipt
	cmd.Printf("Parsed via %s in %s (confidence %.2f)\n", result.Method, result.Elapsed.Round(time.Millisecond), receipt.ParsingConfidence)
	if receipt.StoreName != "" {
		cmd.Printf("Store: %s\n", receipt.StoreName)
	}
	if receipt.Date != "" {
		cmd.Printf("Date:  %s\n", receipt.Date)
	}
	for _, item := range receipt.Items {
		line := fmt.Sprintf("  %-40s", item.Name)
		if item.Price != nil {
			line += fmt.Sprintf(" $%.2f", *item.Price)
		}
		cmd.Println(line)
	}
	if receipt.Total != nil {
		cmd.Printf("Total: $%.2f\n", *receipt.Total)
	}

	if !record || len(receipt.Items) == 0 {
		return nil
	}

	storage, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	reqs := make([]insights.PurchaseRequest, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		reqs = append(reqs, insights.PurchaseRequest{
			ProductID: insights.UnknownProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			StoreName: receipt.StoreName,
		})
	}

	recorder := engine.NewRecorder(insights.NewTracker(storage), insights.NewMiner(storage))
	events, err := recorder.RecordBasket(ctx, reqs)
	if err != nil {
		return err
	}

	cmd.Printf("Recorded %d purchases.\n", len(events))
	return nil
}
