package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cartwheel-app/cartwheel/internal/cli"
	"github.com/cartwheel-app/cartwheel/internal/engine"
	"github.com/cartwheel-app/cartwheel/internal/insights"
)

func recordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a purchase (or a whole basket)",
		Long: `Record one or more purchase events. Each item updates the product's
running statistics; baskets with more than one item also update the
co-purchase associations between the products.

Items are given as repeated --item flags of the form NAME[:PRICE[:QTY]]:

  cartwheel record --item "Milk:3.50" --item "Bread:2.20:2" --store "Corner Shop"`,
		RunE: runRecord,
	}

	cmd.Flags().StringArray("item", nil, "item to record, NAME[:PRICE[:QTY]] (repeatable)")
	cmd.Flags().String("store", "", "store label for all items")
	cmd.Flags().String("date", "", "purchase date (RFC3339, default now)")

	return cmd
}

func runRecord(cmd *cobra.Command, _ []string) error {
	items, _ := cmd.Flags().GetStringArray("item")
	if len(items) == 0 {
		return fmt.Errorf("at least one --item is required")
	}
	store, _ := cmd.Flags().GetString("store")
	dateStr, _ := cmd.Flags().GetString("date")

	var purchaseDate time.Time
	if dateStr != "" {
		var err error
		purchaseDate, err = time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	reqs := make([]insights.PurchaseRequest, 0, len(items))
	for _, raw := range items {
		req, err := parseItemFlag(raw)
		if err != nil {
			return err
		}
		req.StoreName = store
		req.PurchaseDate = purchaseDate
		reqs = append(reqs, req)
	}

	ctx := cmd.Context()
	storage, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	recorder := engine.NewRecorder(insights.NewTracker(storage), insights.NewMiner(storage))
	events, err := recorder.RecordBasket(ctx, reqs)
	if err != nil {
		return err
	}

	for _, event := range events {
		line := fmt.Sprintf("recorded %s x%.1f", event.ProductID, event.Quantity)
		if event.Price != nil {
			line += fmt.Sprintf(" @ %.2f", *event.Price)
		}
		cmd.Println(cli.FormatSuccess(line))
	}
	return nil
}

// parseItemFlag parses NAME[:PRICE[:QTY]]. The name may not contain colons.
func parseItemFlag(raw string) (insights.PurchaseRequest, error) {
	req := insights.PurchaseRequest{ProductID: insights.UnknownProductID}

	parts := strings.SplitN(raw, ":", 3)
	req.Name = strings.TrimSpace(parts[0])
	if req.Name == "" {
		return req, fmt.Errorf("invalid --item %q: empty name", raw)
	}

	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		price, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return req, fmt.Errorf("invalid --item %q: bad price: %w", raw, err)
		}
		req.Price = &price
	}

	if len(parts) > 2 {
		qty, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return req, fmt.Errorf("invalid --item %q: bad quantity: %w", raw, err)
		}
		req.Quantity = qty
	}

	return req, nil
}
