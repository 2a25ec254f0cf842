package client

import (
	"context"
	"net/url"
	"strconv"

	domain "github.com/pricescout/pricescout/pkg/types"
)

// trackRequest is the body the API accepts for tracking a product.
type trackRequest struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Image  string `json:"image"`
	Amount int64  `json:"amount"`
}

// ProductsResponse wraps a product listing response.
type ProductsResponse struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
}

// TrackProduct registers a product for price tracking.
func (c *Client) TrackProduct(
	ctx context.Context,
	pageURL, title, image string,
	amount int64,
) (*domain.Product, error) {
	req := trackRequest{URL: pageURL, Title: title, Image: image, Amount: amount}

	var created domain.Product
	if err := c.post(ctx, "/api/v1/products", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListProducts returns all tracked products.
func (c *Client) ListProducts(ctx context.Context) (*ProductsResponse, error) {
	var resp ProductsResponse
	if err := c.get(ctx, "/api/v1/products", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProduct returns a single tracked product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.get(ctx, "/api/v1/products/"+id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UntrackProduct removes a product together with its history and alerts.
func (c *Client) UntrackProduct(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/products/"+id, nil)
}

// PricesResponse wraps a price-history response.
type PricesResponse struct {
	ProductID string              `json:"product_id"`
	Prices    []domain.PriceEntry `json:"prices"`
}

// ListPricesParams defines query parameters for price-history queries.
type ListPricesParams struct {
	Since  string
	Until  string
	Limit  int
	Offset int
	Order  string
}

// ListPrices returns a product's price history.
func (c *Client) ListPrices(
	ctx context.Context,
	productID string,
	params *ListPricesParams,
) (*PricesResponse, error) {
	q := url.Values{}
	if params != nil {
		if params.Since != "" {
			q.Set("since", params.Since)
		}
		if params.Until != "" {
			q.Set("until", params.Until)
		}
		if params.Limit > 0 {
			q.Set("limit", strconv.Itoa(params.Limit))
		}
		if params.Offset > 0 {
			q.Set("offset", strconv.Itoa(params.Offset))
		}
		if params.Order != "" {
			q.Set("order", params.Order)
		}
	}

	path := "/api/v1/products/" + productID + "/prices"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp PricesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordPriceResponse reports whether an observation was recorded.
type RecordPriceResponse struct {
	Recorded bool               `json:"recorded"`
	Entry    *domain.PriceEntry `json:"entry,omitempty"`
}

// RecordPrice submits a price observation for a tracked product.
func (c *Client) RecordPrice(
	ctx context.Context,
	productID string,
	amount int64,
	observedAt string,
) (*RecordPriceResponse, error) {
	body := map[string]any{"amount": amount}
	if observedAt != "" {
		body["observed_at"] = observedAt
	}

	var resp RecordPriceResponse
	if err := c.post(ctx, "/api/v1/products/"+productID+"/prices", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
