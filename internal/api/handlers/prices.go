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

// PricesHandler handles price-history endpoints.
type PricesHandler struct {
	store   store.Store
	history *history.Engine
}

// NewPricesHandler creates a new PricesHandler.
func NewPricesHandler(s store.Store, h *history.Engine) *PricesHandler {
	return &PricesHandler{store: s, history: h}
}

// --- Input/Output types ---

// ListPricesInput is the input for listing a product's price history.
type ListPricesInput struct {
	ProductID string `path:"id"     doc:"Product UUID"`
	Since     string `query:"since" doc:"Only entries observed at or after this RFC 3339 time"`
	Until     string `query:"until" doc:"Only entries observed before this RFC 3339 time"`
	Limit     int    `query:"limit" doc:"Number of results (default 100)"                      minimum:"0" maximum:"1000"`
	Offset    int    `query:"offset" doc:"Pagination offset"                                   minimum:"0"`
	Order     string `query:"order" doc:"Sort order by observation time"                       enum:"asc,desc,"`
}

// ListPricesOutput is the response for listing price history.
type ListPricesOutput struct {
	Body struct {
		ProductID string              `json:"product_id"`
		Prices    []domain.PriceEntry `json:"prices"`
		Limit     int                 `json:"limit"`
		Offset    int                 `json:"offset"`
	}
}

// RecordPriceInput is the request for recording a price observation.
type RecordPriceInput struct {
	ProductID string `path:"id" doc:"Product UUID"`
	Body      struct {
		Amount     int64  `json:"amount"                minimum:"1" doc:"Observed price in minor units" example:"1099"`
		ObservedAt string `json:"observed_at,omitempty"             doc:"Observation time, RFC 3339; defaults to now"`
	}
}

// RecordPriceOutput is the response for recording a price observation.
// Recorded is false when the amount equals the latest stored entry and
// the observation was dropped.
type RecordPriceOutput struct {
	Body struct {
		Recorded bool               `json:"recorded"`
		Entry    *domain.PriceEntry `json:"entry,omitempty"`
	}
}

// --- Handlers ---

// List returns a product's price history, newest first by default.
func (h *PricesHandler) List(
	ctx context.Context,
	input *ListPricesInput,
) (*ListPricesOutput, error) {
	if _, err := h.store.GetProduct(ctx, input.ProductID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("product not found")
		}
		return nil, huma.Error500InternalServerError("fetching product: " + err.Error())
	}

	q := &store.EntryQuery{
		Limit:  input.Limit,
		Offset: input.Offset,
		Order:  input.Order,
	}

	if input.Since != "" {
		since, err := time.Parse(time.RFC3339, input.Since)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid since: " + err.Error())
		}
		q.Since = &since
	}

	if input.Until != "" {
		until, err := time.Parse(time.RFC3339, input.Until)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid until: " + err.Error())
		}
		q.Until = &until
	}

	entries, err := h.store.ListPriceEntries(ctx, input.ProductID, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing prices: " + err.Error())
	}

	resp := &ListPricesOutput{}
	resp.Body.ProductID = input.ProductID
	resp.Body.Prices = entries
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset
	return resp, nil
}

// Record folds one price observation into the product's history. Amounts
// equal to the latest stored entry are dropped and reported back with
// recorded=false.
func (h *PricesHandler) Record(
	ctx context.Context,
	input *RecordPriceInput,
) (*RecordPriceOutput, error) {
	if _, err := h.store.GetProduct(ctx, input.ProductID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("product not found")
		}
		return nil, huma.Error500InternalServerError("fetching product: " + err.Error())
	}

	observedAt := time.Now().UTC()
	if input.Body.ObservedAt != "" {
		parsed, err := time.Parse(time.RFC3339, input.Body.ObservedAt)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid observed_at: " + err.Error())
		}
		observedAt = parsed
	}

	entry, err := h.history.RecordObservation(
		ctx,
		input.ProductID,
		money.Cents(input.Body.Amount),
		observedAt,
	)
	if err != nil {
		return nil, huma.Error500InternalServerError("recording observation: " + err.Error())
	}

	resp := &RecordPriceOutput{}
	resp.Body.Recorded = entry != nil
	resp.Body.Entry = entry
	return resp, nil
}

// RegisterPriceRoutes registers price-history endpoints with the Huma API.
func RegisterPriceRoutes(api huma.API, h *PricesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-prices",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}/prices",
		Summary:     "List a product's price history",
		Description: "Returns the product's price entries with optional time-window filters and pagination.",
		Tags:        []string{"prices"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "record-price",
		Method:      http.MethodPost,
		Path:        "/api/v1/products/{id}/prices",
		Summary:     "Record a price observation",
		Description: "Appends a price observation to the product's history and evaluates price-drop alerts. " +
			"Observations equal to the latest stored amount are dropped.",
		Tags:   []string{"prices"},
		Errors: []int{http.StatusBadRequest, http.StatusNotFound},
	}, h.Record)
}
