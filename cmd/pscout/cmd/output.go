package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	domain "github.com/pricescout/pricescout/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printProductsTable(products []domain.Product) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tTITLE\tURL\tTRACKED SINCE\n")
	for i := range products {
		p := &products[i]
		tw.writef("%s\t%s\t%s\t%s\n",
			p.ID,
			truncate(p.Title, 40),
			truncate(p.URL, 60),
			p.CreatedAt.Format("2006-01-02"),
		)
	}
	return tw.finish()
}

func printProductDetail(p *domain.Product) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", p.ID)
	tw.writef("Title:\t%s\n", p.Title)
	tw.writef("URL:\t%s\n", p.URL)
	tw.writef("Image:\t%s\n", p.Image)
	tw.writef("Tracked Since:\t%s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	return tw.finish()
}

func printPricesTable(entries []domain.PriceEntry) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("OBSERVED\tPRICE\n")
	for i := range entries {
		e := &entries[i]
		tw.writef("%s\t%s\n",
			e.Date.Format("2006-01-02 15:04:05"),
			e.Amount,
		)
	}
	return tw.finish()
}

func printAlertsTable(alerts []domain.PriceAlert) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tPRODUCT\tWAS\tACTIVE\tSHOWN\tCREATED\n")
	for i := range alerts {
		a := &alerts[i]
		tw.writef("%s\t%s\t%s\t%t\t%t\t%s\n",
			a.ID,
			a.ProductID,
			a.HighPriceAmount,
			a.Active,
			a.Shown,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
