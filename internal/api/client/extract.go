package client

import (
	"context"

	domain "github.com/pricescout/pricescout/pkg/types"
)

// ExtractResponse wraps an extraction result.
type ExtractResponse struct {
	Product *domain.ExtractedProduct `json:"product"`
	Method  domain.ExtractionMethod  `json:"method"`
}

// Extract runs the extraction cascade against a product page. HTML may be
// empty when the server has a headless browser configured.
func (c *Client) Extract(ctx context.Context, pageURL, html string) (*ExtractResponse, error) {
	body := map[string]string{"url": pageURL}
	if html != "" {
		body["html"] = html
	}

	var resp ExtractResponse
	if err := c.post(ctx, "/api/v1/extract", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
