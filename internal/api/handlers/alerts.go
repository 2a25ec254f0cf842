package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pricescout/pricescout/internal/history"
	"github.com/pricescout/pricescout/internal/store"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// AlertsHandler handles price-drop alert endpoints.
type AlertsHandler struct {
	store   store.Store
	history *history.Engine
}

// NewAlertsHandler creates a new AlertsHandler.
func NewAlertsHandler(s store.Store, h *history.Engine) *AlertsHandler {
	return &AlertsHandler{store: s, history: h}
}

// --- Input/Output types ---

// ListAlertsInput is the input for listing alerts.
type ListAlertsInput struct {
	Active bool `query:"active" doc:"Only return active alerts"`
}

// ListAlertsOutput is the response for listing alerts.
type ListAlertsOutput struct {
	Body struct {
		Alerts []domain.PriceAlert `json:"alerts"`
		Total  int                 `json:"total"`
	}
}

// GetAlertInput is the input for getting a single alert.
type GetAlertInput struct {
	ID string `path:"id" doc:"Alert UUID"`
}

// GetAlertOutput is the response for getting a single alert.
type GetAlertOutput struct {
	Body domain.PriceAlert
}

// AckAlertInput is the input for acknowledging an alert.
type AckAlertInput struct {
	ID string `path:"id" doc:"Alert UUID"`
}

// AckAlertOutput is the response for acknowledging an alert.
type AckAlertOutput struct {
	Body StatusResponse
}

// --- Handlers ---

// List returns alerts, optionally restricted to active ones.
func (h *AlertsHandler) List(
	ctx context.Context,
	input *ListAlertsInput,
) (*ListAlertsOutput, error) {
	alerts, err := h.store.ListAlerts(ctx, input.Active)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing alerts: " + err.Error())
	}

	resp := &ListAlertsOutput{}
	resp.Body.Alerts = alerts
	resp.Body.Total = len(alerts)
	return resp, nil
}

// Get returns a single alert by ID.
func (h *AlertsHandler) Get(
	ctx context.Context,
	input *GetAlertInput,
) (*GetAlertOutput, error) {
	alert, err := h.store.GetAlert(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("alert not found")
		}
		return nil, huma.Error500InternalServerError("fetching alert: " + err.Error())
	}

	return &GetAlertOutput{Body: *alert}, nil
}

// Acknowledge marks an alert as seen and deactivates it, opening a fresh
// high-water window for future alerts on the product.
func (h *AlertsHandler) Acknowledge(
	ctx context.Context,
	input *AckAlertInput,
) (*AckAlertOutput, error) {
	if _, err := h.store.GetAlert(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("alert not found")
		}
		return nil, huma.Error500InternalServerError("fetching alert: " + err.Error())
	}

	if err := h.history.AcknowledgeAlert(ctx, input.ID); err != nil {
		return nil, huma.Error500InternalServerError("acknowledging alert: " + err.Error())
	}

	return &AckAlertOutput{Body: StatusResponse{Status: "acknowledged"}}, nil
}

// RegisterAlertRoutes registers alert endpoints with the Huma API.
func RegisterAlertRoutes(api huma.API, h *AlertsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-alerts",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts",
		Summary:     "List price-drop alerts",
		Tags:        []string{"alerts"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-alert",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts/{id}",
		Summary:     "Get an alert by ID",
		Tags:        []string{"alerts"},
		Errors:      []int{http.StatusNotFound},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "acknowledge-alert",
		Method:      http.MethodPost,
		Path:        "/api/v1/alerts/{id}/ack",
		Summary:     "Acknowledge an alert",
		Description: "Marks the alert as seen and deactivates it. A fresh high-water window " +
			"opens at the acknowledgement time.",
		Tags:   []string{"alerts"},
		Errors: []int{http.StatusNotFound},
	}, h.Acknowledge)
}
