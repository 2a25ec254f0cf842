package extract

import (
	"github.com/pricescout/pricescout/internal/dom"
	"github.com/pricescout/pricescout/pkg/money"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// Open Graph meta properties read by the fallback extractor.
const (
	ogTitle       = "og:title"
	ogImage       = "og:image"
	ogPriceAmount = "og:price:amount"
)

// OpenGraph is the lowest-precision fallback: it reads three fixed meta
// tags. Missing any one of them fails the whole extraction.
type OpenGraph struct{}

// NewOpenGraph creates the Open Graph extractor.
func NewOpenGraph() *OpenGraph {
	return &OpenGraph{}
}

// Name implements Method.
func (o *OpenGraph) Name() domain.ExtractionMethod {
	return domain.MethodOpenGraph
}

// Extract implements Method.
func (o *OpenGraph) Extract(doc *dom.Document) (*domain.ExtractedProduct, error) {
	title := metaContent(doc, ogTitle)
	image := metaContent(doc, ogImage)
	priceRaw := metaContent(doc, ogPriceAmount)

	if title == "" || image == "" || priceRaw == "" {
		return nil, nil
	}

	price := money.Parse([]string{priceRaw})
	if !price.Valid() {
		return nil, nil
	}

	return &domain.ExtractedProduct{
		Title: title,
		Image: resolveURL(doc, image),
		Price: price,
	}, nil
}

func metaContent(doc *dom.Document, property string) string {
	sel := doc.Selection(`meta[property="` + property + `"]`)
	content, _ := sel.First().Attr("content")
	return content
}
