package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func alertsCmd() *cobra.Command {
	alertsRoot := &cobra.Command{
		Use:   "alerts",
		Short: "Manage price-drop alerts",
	}

	alertsRoot.AddCommand(
		alertsListCmd(),
		alertsGetCmd(),
		alertsAckCmd(),
	)

	return alertsRoot
}

func alertsListCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List price-drop alerts",
		Example: `  # All alerts
  pscout alerts list

  # Only alerts awaiting acknowledgement
  pscout alerts list --active`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListAlerts(context.Background(), activeOnly)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Alerts) == 0 {
				fmt.Println("No alerts found.")
				return nil
			}

			return printAlertsTable(resp.Alerts)
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active alerts")

	return cmd
}

func alertsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show alert details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			a, err := c.GetAlert(context.Background(), args[0])
			if err != nil {
				return err
			}

			return outputJSON(a)
		},
	}
}

func alertsAckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ack <id>",
		Short: "Acknowledge an alert",
		Long: "Marks the alert as seen and deactivates it. A fresh high-water\n" +
			"window opens so only a further qualifying drop re-alerts.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.AcknowledgeAlert(context.Background(), args[0]); err != nil {
				return err
			}

			fmt.Println("Acknowledged", args[0])
			return nil
		},
	}
}
