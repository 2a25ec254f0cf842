package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func extractCmd() *cobra.Command {
	var htmlFile string

	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract a product from a page via the API",
		Long: "Runs the server-side extraction cascade against a page and prints\n" +
			"the result. Pass --html-file to extract from a saved page instead of\n" +
			"letting the server load it.",
		Example: `  # Server loads the page with its headless browser
  pscout extract https://www.example.com/widget

  # Extract from a saved snapshot
  pscout extract https://www.example.com/widget --html-file page.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var html string
			if htmlFile != "" {
				f, err := os.Open(htmlFile)
				if err != nil {
					return fmt.Errorf("opening html file: %w", err)
				}
				defer f.Close()

				data, err := io.ReadAll(f)
				if err != nil {
					return fmt.Errorf("reading html file: %w", err)
				}
				html = string(data)
			}

			c := newClient()
			resp, err := c.Extract(context.Background(), args[0], html)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			p := resp.Product
			fmt.Printf("Method: %s\nTitle:  %s\nImage:  %s\nPrice:  %s\n",
				resp.Method, p.Title, p.Image, p.Price)
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlFile, "html-file", "", "extract from saved HTML instead of loading the page")

	return cmd
}
