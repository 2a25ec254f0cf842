package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func productsCmd() *cobra.Command {
	productsRoot := &cobra.Command{
		Use:   "products",
		Short: "Manage tracked products",
	}

	productsRoot.AddCommand(
		productsTrackCmd(),
		productsListCmd(),
		productsGetCmd(),
		productsUntrackCmd(),
	)

	return productsRoot
}

func productsTrackCmd() *cobra.Command {
	var (
		title  string
		image  string
		amount int64
	)

	cmd := &cobra.Command{
		Use:   "track <url>",
		Short: "Track a product for price drops",
		Example: `  pscout products track https://www.example.com/widget \
    --title "Widget Deluxe" \
    --image https://www.example.com/widget.jpg \
    --amount 1099`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			p, err := c.TrackProduct(context.Background(), args[0], title, image, amount)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(p)
			}

			fmt.Printf("Tracking %s (%s)\n", p.Title, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "product title")
	cmd.Flags().StringVar(&image, "image", "", "product image URL")
	cmd.Flags().Int64Var(&amount, "amount", 0, "observed price in minor units")
	cobra.CheckErr(cmd.MarkFlagRequired("title"))
	cobra.CheckErr(cmd.MarkFlagRequired("image"))
	cobra.CheckErr(cmd.MarkFlagRequired("amount"))

	return cmd
}

func productsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked products",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListProducts(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Products) == 0 {
				fmt.Println("No products tracked.")
				return nil
			}

			return printProductsTable(resp.Products)
		},
	}
}

func productsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Short:   "Show product details",
		Example: `  pscout products get 9b2d1c34-5a6f-5e21-8c37-0d94a1b2c3d4`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			p, err := c.GetProduct(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(p)
			}

			return printProductDetail(p)
		},
	}
}

func productsUntrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untrack <id>",
		Short: "Stop tracking a product and delete its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.UntrackProduct(context.Background(), args[0]); err != nil {
				return err
			}

			fmt.Println("Untracked", args[0])
			return nil
		},
	}
}
