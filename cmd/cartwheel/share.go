package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cartwheel-app/cartwheel/internal/model"
	"github.com/cartwheel-app/cartwheel/internal/share"
	"github.com/cartwheel-app/cartwheel/internal/storage"
)

func shareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Create and inspect shopping list share links",
	}

	cmd.AddCommand(shareCreateCmd())
	cmd.AddCommand(shareShowCmd())
	cmd.AddCommand(shareRevokeCmd())

	return cmd
}

func shareCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <list-id>",
		Short: "Create a share link for a shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			permission, _ := cmd.Flags().GetString("permission")
			days, _ := cmd.Flags().GetInt("days")

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			list, err := store.GetList(ctx, args[0])
			if err != nil {
				return err
			}
			items, err := store.GetListItems(ctx, list.ID)
			if err != nil {
				return err
			}

			shares := storage.NewShareStore(store)
			link, err := share.CreateLink(ctx, shares, list, items, model.SharePermission(permission), days, time.Now().UTC())
			if err != nil {
				return err
			}

			cmd.Printf("Share ID:   %s\n", link.ShareID)
			cmd.Printf("Permission: %s\n", link.Permission)
			cmd.Printf("Expires:    %s\n", link.ExpiresAt.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().String("permission", string(model.PermissionEdit), "view or edit")
	cmd.Flags().Int("days", 7, "days until the link expires")

	return cmd
}

func shareShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <share-id>",
		Short: "Show the list snapshot behind a share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			link, err := storage.NewShareStore(store).Get(ctx, share.NormalizeID(args[0]))
			if err != nil {
				return err
			}

			cmd.Printf("%s (%s, expires %s)\n", link.ListName, link.Permission, link.ExpiresAt.Format("2006-01-02"))
			for _, item := range link.Items {
				mark := " "
				if item.IsPurchased {
					mark = "x"
				}
				cmd.Printf("  [%s] %s\n", mark, item.Name)
			}
			return nil
		},
	}
}

func shareRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <share-id>",
		Short: "Revoke a share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := storage.NewShareStore(store).Delete(ctx, share.NormalizeID(args[0])); err != nil {
				return err
			}
			cmd.Println("Revoked.")
			return nil
		},
	}
}
