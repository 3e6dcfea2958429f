package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Istiyak4099/Airdrop/models"
)

func newPageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Manage connected Facebook pages",
	}
	cmd.AddCommand(newPageSetCmd(a))
	return cmd
}

func newPageSetCmd(a *app) *cobra.Command {
	var cred models.PageCredential

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the access token and owner of a page",
		Long: `Store the access token and owning account of a Facebook page so the
webhook can answer its messages.

Examples:
  airdropctl page set --page-id 1234567890 --token EAAB... --owner u1
  airdropctl page set --page-id 1234567890 --token EAAB... --owner u1 --name "Acme Shop"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if err := a.pages.Save(cmd.Context(), cred); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored credentials for page %s (owner %s)\n", cred.PageID, cred.OwnerAccountID)
			return nil
		},
	}

	cmd.Flags().StringVar(&cred.PageID, "page-id", "", "Facebook page id")
	cmd.Flags().StringVar(&cred.PageAccessToken, "token", "", "page access token")
	cmd.Flags().StringVar(&cred.OwnerAccountID, "owner", "", "owning account id")
	cmd.Flags().StringVar(&cred.PageName, "name", "", "page display name")
	_ = cmd.MarkFlagRequired("page-id")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
