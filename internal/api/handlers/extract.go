package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pricescout/pricescout/internal/dom"
	"github.com/pricescout/pricescout/internal/extract"
	"github.com/pricescout/pricescout/internal/fetch"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// ExtractHandler runs the extraction cascade against product pages.
type ExtractHandler struct {
	pipeline *extract.Pipeline
	loader   fetch.Loader
}

// NewExtractHandler creates a new ExtractHandler. The loader may be nil,
// in which case callers must supply pre-fetched HTML.
func NewExtractHandler(p *extract.Pipeline, l fetch.Loader) *ExtractHandler {
	return &ExtractHandler{pipeline: p, loader: l}
}

// ExtractInput is the request body for the extract endpoint.
type ExtractInput struct {
	Body struct {
		URL  string `json:"url"            minLength:"1" doc:"Product page URL"                                                            example:"https://www.example.com/widget"`
		HTML string `json:"html,omitempty"               doc:"Pre-fetched page HTML; when empty the page is loaded with the headless browser"`
	}
}

// ExtractOutput is the response body for the extract endpoint.
type ExtractOutput struct {
	Body struct {
		Product *domain.ExtractedProduct `json:"product" doc:"Fully populated extraction result"`
		Method  domain.ExtractionMethod  `json:"method"  doc:"Extraction method that produced the result" example:"site_selector"`
	}
}

// Extract runs the selector, ruleset, and Open Graph methods in order
// against the page and returns the first complete product.
func (h *ExtractHandler) Extract(ctx context.Context, input *ExtractInput) (*ExtractOutput, error) {
	var (
		doc *dom.Document
		err error
	)

	switch {
	case input.Body.HTML != "":
		doc, err = dom.Parse(strings.NewReader(input.Body.HTML), input.Body.URL)
		if err != nil {
			return nil, huma.Error400BadRequest("parsing html: " + err.Error())
		}
	case h.loader != nil:
		doc, err = h.loader.Load(ctx, input.Body.URL)
		if err != nil {
			return nil, huma.Error502BadGateway("loading page: " + err.Error())
		}
	default:
		return nil, huma.Error400BadRequest("html is required when no page loader is configured")
	}

	product, err := h.pipeline.Extract(ctx, doc)
	if err != nil {
		return nil, huma.Error500InternalServerError("extraction failed: " + err.Error())
	}
	if product == nil {
		return nil, huma.Error422UnprocessableEntity("no complete product could be extracted")
	}

	resp := &ExtractOutput{}
	resp.Body.Product = product
	resp.Body.Method = product.Method
	return resp, nil
}

// RegisterExtractRoutes registers extract endpoints with the Huma API.
func RegisterExtractRoutes(api huma.API, h *ExtractHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "extract-product",
		Method:      http.MethodPost,
		Path:        "/api/v1/extract",
		Summary:     "Extract a product from a page",
		Description: "Runs the extraction cascade (site selectors, scoring ruleset, " +
			"Open Graph) against the page and returns the first complete product.",
		Tags: []string{"extract"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnprocessableEntity,
			http.StatusBadGateway,
			http.StatusInternalServerError,
		},
	}, h.Extract)
}
