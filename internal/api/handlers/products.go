package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pricescout/pricescout/internal/history"
	"github.com/pricescout/pricescout/internal/store"
	"github.com/pricescout/pricescout/pkg/money"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// ProductsHandler handles tracked-product endpoints.
type ProductsHandler struct {
	store   store.Store
	history *history.Engine
}

// NewProductsHandler creates a new ProductsHandler.
func NewProductsHandler(s store.Store, h *history.Engine) *ProductsHandler {
	return &ProductsHandler{store: s, history: h}
}

// --- Input/Output types ---

// TrackProductInput is the request body for tracking a product.
type TrackProductInput struct {
	Body struct {
		URL    string `json:"url"    minLength:"1" doc:"Product page URL"               example:"https://www.example.com/widget"`
		Title  string `json:"title"  minLength:"1" doc:"Product title"                  example:"Widget Deluxe"`
		Image  string `json:"image"  minLength:"1" doc:"Product image URL"              example:"https://www.example.com/widget.jpg"`
		Amount int64  `json:"amount" minimum:"1"   doc:"Observed price in minor units"  example:"1099"`
	}
}

// TrackProductOutput is the response for tracking a product.
type TrackProductOutput struct {
	Body domain.Product
}

// ListProductsOutput is the response for listing tracked products.
type ListProductsOutput struct {
	Body struct {
		Products []domain.Product `json:"products"`
		Total    int              `json:"total"`
	}
}

// GetProductInput is the input for getting a single product.
type GetProductInput struct {
	ID string `path:"id" doc:"Product UUID"`
}

// GetProductOutput is the response for getting a single product.
type GetProductOutput struct {
	Body domain.Product
}

// UntrackProductInput is the input for untracking a product.
type UntrackProductInput struct {
	ID string `path:"id" doc:"Product UUID"`
}

// UntrackProductOutput is the response for untracking a product.
type UntrackProductOutput struct {
	Body StatusResponse
}

// --- Handlers ---

// Track registers a product for price tracking and records its first
// observation. Tracking the same URL again refreshes the stored title and
// image and folds the price into the existing history.
func (h *ProductsHandler) Track(
	ctx context.Context,
	input *TrackProductInput,
) (*TrackProductOutput, error) {
	extracted := &domain.ExtractedProduct{
		Title: input.Body.Title,
		Image: input.Body.Image,
		Price: money.Cents(input.Body.Amount),
		URL:   input.Body.URL,
		Date:  time.Now().UTC(),
	}

	product, err := h.history.Track(ctx, extracted)
	if err != nil {
		return nil, huma.Error500InternalServerError("tracking product: " + err.Error())
	}

	return &TrackProductOutput{Body: *product}, nil
}

// List returns all tracked products.
func (h *ProductsHandler) List(
	ctx context.Context,
	_ *struct{},
) (*ListProductsOutput, error) {
	products, err := h.store.ListProducts(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing products: " + err.Error())
	}

	resp := &ListProductsOutput{}
	resp.Body.Products = products
	resp.Body.Total = len(products)
	return resp, nil
}

// Get returns a single tracked product by ID.
func (h *ProductsHandler) Get(
	ctx context.Context,
	input *GetProductInput,
) (*GetProductOutput, error) {
	product, err := h.store.GetProduct(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("product not found")
		}
		return nil, huma.Error500InternalServerError("fetching product: " + err.Error())
	}

	return &GetProductOutput{Body: *product}, nil
}

// Untrack removes a product together with its price history and alerts.
func (h *ProductsHandler) Untrack(
	ctx context.Context,
	input *UntrackProductInput,
) (*UntrackProductOutput, error) {
	if _, err := h.store.GetProduct(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("product not found")
		}
		return nil, huma.Error500InternalServerError("fetching product: " + err.Error())
	}

	if err := h.history.Untrack(ctx, input.ID); err != nil {
		return nil, huma.Error500InternalServerError("untracking product: " + err.Error())
	}

	return &UntrackProductOutput{Body: StatusResponse{Status: "deleted"}}, nil
}

// RegisterProductRoutes registers product endpoints with the Huma API.
func RegisterProductRoutes(api huma.API, h *ProductsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "track-product",
		Method:      http.MethodPost,
		Path:        "/api/v1/products",
		Summary:     "Track a product",
		Description: "Registers a product for price tracking and records its first price observation.",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.Track)

	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List tracked products",
		Tags:        []string{"products"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-product",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}",
		Summary:     "Get a product by ID",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "untrack-product",
		Method:      http.MethodDelete,
		Path:        "/api/v1/products/{id}",
		Summary:     "Untrack a product",
		Description: "Removes a product together with its price history and alerts.",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound},
	}, h.Untrack)
}
