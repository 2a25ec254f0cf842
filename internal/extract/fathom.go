package extract

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/pricescout/pricescout/internal/dom"
	"github.com/pricescout/pricescout/pkg/money"
	"github.com/pricescout/pricescout/pkg/ruleset"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// Ruleset adapts the generic scoring engine to the Method interface. It is
// the middle of the cascade: no site knowledge required, but a threshold
// gate keeps low-confidence winners out.
type Ruleset struct {
	cfg ruleset.Config
}

// NewRuleset creates the scoring-engine extraction method.
func NewRuleset(cfg ruleset.Config) *Ruleset {
	return &Ruleset{cfg: cfg}
}

// Name implements Method.
func (r *Ruleset) Name() domain.ExtractionMethod {
	return domain.MethodRuleset
}

// Extract implements Method. Scoring state is private to the pass; only
// the winning elements' literal values escape.
func (r *Ruleset) Extract(doc *dom.Document) (*domain.ExtractedProduct, error) {
	result, err := ruleset.Run(doc, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("running ruleset: %w", err)
	}
	if !result.Complete() {
		return nil, nil
	}

	imageNode, _ := result.Winner(ruleset.FeatureImage)
	titleNode, _ := result.Winner(ruleset.FeatureTitle)
	priceNode, _ := result.Winner(ruleset.FeaturePrice)

	image := imageValue(imageNode)
	title := dom.Text(titleNode)
	price := money.Parse(dom.ChildTextTokens(priceNode))

	if image == "" || title == "" || !price.Valid() {
		return nil, nil
	}

	return &domain.ExtractedProduct{
		Title: title,
		Image: resolveURL(doc, image),
		Price: price,
	}, nil
}

// imageValue reads the winning image element's URL: the src attribute for
// img elements, the computed background-image URL otherwise.
func imageValue(n *html.Node) string {
	if n.Data == "img" {
		return dom.Attr(n, "src")
	}
	if bg, ok := dom.BackgroundImageURL(n); ok {
		return bg
	}
	return ""
}
