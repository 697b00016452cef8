package main

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cartwheel-app/cartwheel/internal/model"
)

func listsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage shopping lists",
	}

	cmd.AddCommand(listsCreateCmd())
	cmd.AddCommand(listsShowCmd())
	cmd.AddCommand(listsAddItemCmd())
	cmd.AddCommand(listsDeleteCmd())

	return cmd
}

func listsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeName, _ := cmd.Flags().GetString("store")

			ctx := cmd.Context()
			storage, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			list := model.NewShoppingList(args[0], storeName)
			if err := storage.CreateList(ctx, list); err != nil {
				return err
			}
			cmd.Printf("Created %q (%s)\n", list.Name, list.ID)
			return nil
		},
	}

	cmd.Flags().String("store", "", "store this list is for")

	return cmd
}

func listsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <list-id>",
		Short: "Show a shopping list and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			storage, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			list, err := storage.GetList(ctx, args[0])
			if err != nil {
				return err
			}
			items, err := storage.GetListItems(ctx, list.ID)
			if err != nil {
				return err
			}

			header := list.Name
			if list.StoreName != "" {
				header += " @ " + list.StoreName
			}
			cmd.Println(header)
			for _, item := range items {
				mark := " "
				if item.IsPurchased {
					mark = "x"
				}
				line := "  [" + mark + "] " + item.Name
				if item.Quantity > 1 {
					line += " x" + strconv.FormatFloat(item.Quantity, 'g', -1, 64)
				}
				cmd.Println(line)
			}
			return nil
		},
	}
}

func listsAddItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-item <list-id> <name>",
		Short: "Add an item to a shopping list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, _ := cmd.Flags().GetFloat64("quantity")
			category, _ := cmd.Flags().GetString("category")

			ctx := cmd.Context()
			storage, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			list, err := storage.GetList(ctx, args[0])
			if err != nil {
				return err
			}

			item := &model.ShoppingItem{
				ID:       uuid.NewString(),
				ListID:   list.ID,
				Name:     args[1],
				Category: category,
				Quantity: quantity,
			}
			if err := storage.SaveListItem(ctx, item); err != nil {
				return err
			}
			cmd.Printf("Added %q to %q\n", item.Name, list.Name)
			return nil
		},
	}

	cmd.Flags().Float64("quantity", 1, "item quantity")
	cmd.Flags().String("category", "", "item category")

	return cmd
}

func listsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a shopping list and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			storage, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			if err := storage.DeleteList(ctx, args[0]); err != nil {
				return err
			}
			cmd.Println("Deleted.")
			return nil
		},
	}
}
