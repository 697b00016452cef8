package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cartwheel-app/cartwheel/internal/model"
	"github.com/cartwheel-app/cartwheel/internal/service"
)

func productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage the product catalog",
	}

	cmd.AddCommand(productsListCmd())
	cmd.AddCommand(productsAddCmd())
	cmd.AddCommand(productsShowCmd())
	cmd.AddCommand(productsUpdateCmd())
	cmd.AddCommand(productsDeleteCmd())
	cmd.AddCommand(productsSearchCmd())

	return cmd
}

func productsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := cmd.Context()
			storage, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			products, err := storage.GetAllProducts(ctx, service.ProductFilter{
				Category: category,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			printProducts(cmd, products)
			return nil
		},
	}

	cmd.Flags().String("category", "", "filter by category")
	cmd.Flags().Int("limit", 50, "maximum results")

	return cmd
}

func productsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a product to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			price, _ := cmd.Flags().GetFloat64("price")

			ctx := cmd.Context()
			storage, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			var typicalPrice *float64
			if cmd.Flags().Changed("price") {
				typicalPrice = &price
			}

			product := model.NewProduct(args[0], category, typicalPrice)
			if err := storage.CreateProduct(ctx, product); err != nil {
				return err
			}

			cmd.Printf("Added %q (%s)\n", product.Name, product.ID)
			return nil
		},
	}

	cmd.Flags().String("category", "", "product category")
	cmd.Flags().Float64("price", 0, "typical price")

	return cmd
}

func productsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show a product's details and purchase history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			storage, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			product, err := storage.GetProduct(ctx, args[0])
			if err != nil {
				return err
			}

			cmd.Printf("Name:     %s\n", product.Name)
			cmd.Printf("Category: %s\n", product.Category)
			cmd.Printf("Bought:   %d times\n", product.PurchaseCount)
			if product.TypicalPrice != nil {
				cmd.Printf("Price:    $%.2f\n", *product.TypicalPrice)
			}
			if product.AvgDaysBetween != nil {
				cmd.Printf("Cadence:  every %.1f days\n", *product.AvgDaysBetween)
			}
			if product.LastPurchasedDate != nil {
				cmd.Printf("Last:     %s\n", product.LastPurchasedDate.Format("2006-01-02"))
			}

			events, err := storage.GetRecentPurchases(ctx, product.ID, 10)
			if err != nil {
				return err
			}
			if len(events) > 0 {
				cmd.Println("\nRecent purchases:")
				for _, e := range events {
					line := fmt.Sprintf("  %s", e.PurchaseDate.Format("2006-01-02"))
					if e.Price != nil {
						line += fmt.Sprintf("  $%.2f", *e.Price)
					}
					if e.StoreName != "" {
						line += fmt.Sprintf("  %s", e.StoreName)
					}
					cmd.Println(line)
				}
			}
			return nil
		},
	}
}

func productsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Update a product's name, category, or typical price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			storage, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			var update model.ProductUpdate
			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				update.Name = &name
			}
			if cmd.Flags().Changed("category") {
				category, _ := cmd.Flags().GetString("category")
				update.Category = &category
			}
			if cmd.Flags().Changed("price") {
				price, _ := cmd.Flags().GetFloat64("price")
				update.TypicalPrice = &price
			}

			product, err := storage.UpdateProduct(ctx, args[0], update)
			if err != nil {
				return err
			}

			cmd.Printf("Updated %q\n", product.Name)
			return nil
		},
	}

	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("category", "", "new category")
	cmd.Flags().Float64("price", 0, "new typical price")

	return cmd
}

func productsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <product-id>",
		Short: "Delete a product and its purchase history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			storage, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			if err := storage.DeleteProduct(ctx, args[0]); err != nil {
				return err
			}
			cmd.Println("Deleted.")
			return nil
		},
	}
}

func productsSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search products by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := cmd.Context()
			storage, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			products, err := storage.SearchProducts(ctx, strings.Join(args, " "), category, limit)
			if err != nil {
				return err
			}

			printProducts(cmd, products)
			return nil
		},
	}

	cmd.Flags().String("category", "", "filter by category")
	cmd.Flags().Int("limit", 20, "maximum results")

	return cmd
}

func printProducts(cmd *cobra.Command, products []model.Product) {
	if len(products) == 0 {
		cmd.Println("No products found.")
		return
	}
	for _, p := range products {
		line := fmt.Sprintf("%-36s  %-30s %-15s x%d", p.ID, p.Name, p.Category, p.PurchaseCount)
		if p.TypicalPrice != nil {
			line += fmt.Sprintf("  $%.2f", *p.TypicalPrice)
		}
		cmd.Println(line)
	}
}
