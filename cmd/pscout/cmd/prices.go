package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apiclient "github.com/pricescout/pricescout/internal/api/client"
)

func pricesCmd() *cobra.Command {
	pricesRoot := &cobra.Command{
		Use:   "prices",
		Short: "Inspect and record price history",
	}

	pricesRoot.AddCommand(
		pricesListCmd(),
		pricesRecordCmd(),
	)

	return pricesRoot
}

func pricesListCmd() *cobra.Command {
	var (
		since  string
		until  string
		limit  int
		offset int
		order  string
	)

	cmd := &cobra.Command{
		Use:   "list <product-id>",
		Short: "List a product's price history",
		Example: `  # Full history, newest first
  pscout prices list 9b2d1c34-5a6f-5e21-8c37-0d94a1b2c3d4

  # Last month, oldest first
  pscout prices list 9b2d1c34-5a6f-5e21-8c37-0d94a1b2c3d4 \
    --since 2026-08-01T00:00:00Z --order asc`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			resp, err := c.ListPrices(context.Background(), args[0], &apiclient.ListPricesParams{
				Since:  since,
				Until:  until,
				Limit:  limit,
				Offset: offset,
				Order:  order,
			})
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Prices) == 0 {
				fmt.Println("No price entries found.")
				return nil
			}

			return printPricesTable(resp.Prices)
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "window start (RFC 3339)")
	cmd.Flags().StringVar(&until, "until", "", "window end (RFC 3339)")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset")
	cmd.Flags().StringVar(&order, "order", "", "sort order (asc, desc)")

	return cmd
}

func pricesRecordCmd() *cobra.Command {
	var observedAt string

	cmd := &cobra.Command{
		Use:   "record <product-id> <amount>",
		Short: "Record a price observation in minor units",
		Example: `  pscout prices record 9b2d1c34-5a6f-5e21-8c37-0d94a1b2c3d4 999`,
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			c := newClient()
			resp, err := c.RecordPrice(context.Background(), args[0], amount, observedAt)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if !resp.Recorded {
				fmt.Println("Price unchanged, observation dropped.")
				return nil
			}

			fmt.Printf("Recorded %s at %s\n",
				resp.Entry.Amount,
				resp.Entry.Date.Format("2006-01-02 15:04:05"),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&observedAt, "observed-at", "", "observation time (RFC 3339, default now)")

	return cmd
}
