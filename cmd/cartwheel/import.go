package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cartwheel-app/cartwheel/internal/cli"
	"github.com/cartwheel-app/cartwheel/internal/engine"
	"github.com/cartwheel-app/cartwheel/internal/insights"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Bulk import purchase history from a CSV file",
		Long: `Import purchase history from a CSV file with the columns:

  name,price,quantity,store,date

The header row is required. price, quantity, store and date may be empty;
date is RFC 3339 or YYYY-MM-DD. Rows from the same date and store are
treated as one basket for association mining.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Bool("dry-run", false, "parse and report without writing anything")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() { _ = file.Close() }()

	baskets, total, err := readImportFile(file)
	if err != nil {
		return err
	}
	if total == 0 {
		cmd.Println("Nothing to import.")
		return nil
	}
	if dryRun {
		cmd.Printf("Would import %d purchases in %d baskets.\n", total, len(baskets))
		return nil
	}

	interrupts := cli.NewInterruptHandler(cmd.OutOrStdout())
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Purchases recorded so far are kept.")

	storage, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	recorder := engine.NewRecorder(insights.NewTracker(storage), insights.NewMiner(storage))

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.OutOrStdout()),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing purchases..."),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.OutOrStdout())
		}),
	)

	imported := 0
	for _, basket := range baskets {
		if ctx.Err() != nil {
			break
		}
		events, err := recorder.RecordBasket(ctx, basket)
		if err != nil {
			slog.Warn("failed to import basket", "size", len(basket), "error", err)
			continue
		}
		imported += len(events)
		_ = bar.Add(len(basket))
	}

	if interrupts.WasInterrupted() {
		cmd.Println(cli.FormatWarning(fmt.Sprintf("Import stopped after %d of %d purchases.", imported, total)))
		return nil
	}
	cmd.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d of %d purchases.", imported, total)))
	return nil
}

// readImportFile parses the CSV and groups rows into baskets keyed by
// (date, store), preserving first-seen order.
func readImportFile(r io.Reader) ([][]insights.PurchaseRequest, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 5

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), "name") {
		return nil, 0, fmt.Errorf("unexpected CSV header %q: want name,price,quantity,store,date", header[0])
	}

	var keys []string
	grouped := make(map[string][]insights.PurchaseRequest)
	total := 0

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		req, err := parseImportRow(record)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid CSV line %d: %w", line, err)
		}

		key := req.PurchaseDate.Format("2006-01-02") + "|" + req.StoreName
		if _, seen := grouped[key]; !seen {
			keys = append(keys, key)
		}
		grouped[key] = append(grouped[key], req)
		total++
	}

	baskets := make([][]insights.PurchaseRequest, 0, len(keys))
	for _, key := range keys {
		baskets = append(baskets, grouped[key])
	}
	return baskets, total, nil
}

func parseImportRow(record []string) (insights.PurchaseRequest, error) {
	req := insights.PurchaseRequest{
		ProductID: insights.UnknownProductID,
		Name:      strings.TrimSpace(record[0]),
		StoreName: strings.TrimSpace(record[3]),
		Quantity:  1,
	}
	if req.Name == "" {
		return req, fmt.Errorf("empty product name")
	}

	if raw := strings.TrimSpace(record[1]); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("bad price %q: %w", raw, err)
		}
		req.Price = &price
	}

	if raw := strings.TrimSpace(record[2]); raw != "" {
		quantity, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("bad quantity %q: %w", raw, err)
		}
		req.Quantity = quantity
	}

	if raw := strings.TrimSpace(record[4]); raw != "" {
		date, err := parseImportDate(raw)
		if err != nil {
			return req, err
		}
		req.PurchaseDate = date
	}

	return req, nil
}

func parseImportDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad date %q: want RFC 3339 or YYYY-MM-DD", raw)
}
