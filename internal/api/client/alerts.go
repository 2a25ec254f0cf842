package client

import (
	"context"

	domain "github.com/pricescout/pricescout/pkg/types"
)

// AlertsResponse wraps an alert listing response.
type AlertsResponse struct {
	Alerts []domain.PriceAlert `json:"alerts"`
	Total  int                 `json:"total"`
}

// ListAlerts returns alerts, optionally restricted to active ones.
func (c *Client) ListAlerts(ctx context.Context, activeOnly bool) (*AlertsResponse, error) {
	path := "/api/v1/alerts"
	if activeOnly {
		path += "?active=true"
	}

	var resp AlertsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAlert returns a single alert by ID.
func (c *Client) GetAlert(ctx context.Context, id string) (*domain.PriceAlert, error) {
	var a domain.PriceAlert
	if err := c.get(ctx, "/api/v1/alerts/"+id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// AcknowledgeAlert marks an alert as seen and deactivates it.
func (c *Client) AcknowledgeAlert(ctx context.Context, id string) error {
	return c.post(ctx, "/api/v1/alerts/"+id+"/ack", nil, nil)
}
