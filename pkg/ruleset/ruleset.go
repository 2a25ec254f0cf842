// Package ruleset scores DOM elements with weighted heuristic signals to
// identify a page's product image, title, and price without site-specific
// markup knowledge.
//
// A pass is a pure function of (document, coefficients, biases): candidates
// are generated per feature, pruned by eligibility predicates, scored by
// the signal registry, and gated by per-feature thresholds. All scoring
// state lives in an explicit per-pass map keyed by element identity and is
// discarded when the pass ends; DOM nodes are never mutated.
package ruleset

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/pricescout/pricescout/internal/dom"
)

// Feature is one of the product attributes the engine competes for.
type Feature string

// Feature constants.
const (
	FeatureImage Feature = "image"
	FeatureTitle Feature = "title"
	FeaturePrice Feature = "price"
)

// priceBandBuffer is how far above the product image's top edge a price or
// title candidate may sit and still be considered part of the product area.
const priceBandBuffer = 150

// candidate is one element competing for a feature during a pass.
type candidate struct {
	node  *html.Node
	rect  dom.Rect
	order int
}

// pass holds the transient state of one scoring pass.
type pass struct {
	cfg            Config
	viewportHeight float64
	image          *candidate

	// scores is keyed by element identity, rebuilt fresh every pass.
	scores map[*html.Node]map[Feature]float64
}

// Result reports the per-feature winners of one pass.
type Result struct {
	winners map[Feature]*candidate
	scores  map[*html.Node]map[Feature]float64
}

// Winner returns the winning element for a feature, if one passed the
// threshold gate.
func (r *Result) Winner(f Feature) (*html.Node, bool) {
	c, ok := r.winners[f]
	if !ok {
		return nil, false
	}
	return c.node, true
}

// Score returns the total score a node earned for a feature during the pass.
func (r *Result) Score(n *html.Node, f Feature) float64 {
	return r.scores[n][f]
}

// Complete reports whether every feature has an accepted winner.
func (r *Result) Complete() bool {
	for _, f := range []Feature{FeatureImage, FeatureTitle, FeaturePrice} {
		if _, ok := r.winners[f]; !ok {
			return false
		}
	}
	return true
}

// Run executes one scoring pass over the document.
//
// The image competition resolves first: title and price proximity signals
// need the winning image's geometry. Ties break by document encounter
// order, so repeated passes over the same snapshot are deterministic.
func Run(doc *dom.Document, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ruleset config: %w", err)
	}

	p := &pass{
		cfg:            cfg,
		viewportHeight: doc.ViewportHeight(),
		scores:         make(map[*html.Node]map[Feature]float64),
	}

	result := &Result{
		winners: make(map[Feature]*candidate),
		scores:  p.scores,
	}

	// Image first; everything else is positioned relative to it.
	images := imageCandidates(doc)
	if winner := p.compete(FeatureImage, images); winner != nil {
		p.image = winner
		result.winners[FeatureImage] = winner
	}

	if winner := p.compete(FeatureTitle, titleCandidates(doc, p.image)); winner != nil {
		result.winners[FeatureTitle] = winner
	}

	if winner := p.compete(FeaturePrice, priceCandidates(doc, p.image)); winner != nil {
		result.winners[FeaturePrice] = winner
	}

	return result, nil
}

// compete scores all candidates for a feature and returns the accepted
// winner, or nil when no candidate clears the threshold.
func (p *pass) compete(f Feature, candidates []*candidate) *candidate {
	var best *candidate
	var bestScore float64

	for _, c := range candidates {
		score := p.cfg.Biases[f]
		for i, s := range signalRegistry {
			if s.feature != f {
				continue
			}
			score += p.cfg.Coefficients[i] * s.score(c, p)
		}

		if p.scores[c.node] == nil {
			p.scores[c.node] = make(map[Feature]float64)
		}
		p.scores[c.node][f] = score

		// Strict greater-than keeps the first candidate in document
		// order on ties.
		if best == nil || score > bestScore {
			best, bestScore = c, score
		}
	}

	if best == nil || bestScore < p.cfg.Thresholds[f] {
		return nil
	}
	return best
}

// imageCandidates selects visible img elements and background-image divs
// that have a layout box.
func imageCandidates(doc *dom.Document) []*candidate {
	var out []*candidate
	order := 0

	for _, n := range doc.Find("img") {
		if dom.Attr(n, "src") == "" || !dom.Visible(n) {
			continue
		}
		r, ok := dom.BoundingRect(n)
		if !ok {
			continue
		}
		out = append(out, &candidate{node: n, rect: r, order: order})
		order++
	}

	for _, n := range doc.Find("div") {
		if _, ok := dom.BackgroundImageURL(n); !ok {
			continue
		}
		if !dom.Visible(n) {
			continue
		}
		r, ok := dom.BoundingRect(n)
		if !ok {
			continue
		}
		out = append(out, &candidate{node: n, rect: r, order: order})
		order++
	}

	return out
}

// titleCandidates selects visible h1 elements inside the product band.
func titleCandidates(doc *dom.Document, image *candidate) []*candidate {
	var out []*candidate
	for i, n := range doc.Find("h1") {
		if !dom.Visible(n) {
			continue
		}
		r, _ := dom.BoundingRect(n)
		c := &candidate{node: n, rect: r, order: i}
		if !inProductBand(c, image) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// priceCandidates selects visible span and h2 elements whose own text is
// not duplicated by a direct child, inside the product band.
func priceCandidates(doc *dom.Document, image *candidate) []*candidate {
	var out []*candidate
	for i, n := range doc.Find("span, h2") {
		if !dom.Visible(n) {
			continue
		}
		if duplicatesChildText(n) {
			continue
		}
		r, _ := dom.BoundingRect(n)
		c := &candidate{node: n, rect: r, order: i}
		if !inProductBand(c, image) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// duplicatesChildText reports whether the element's text equals the text of
// any of its direct child elements. Nested wrappers repeating the same
// price would otherwise be counted twice.
func duplicatesChildText(n *html.Node) bool {
	text := dom.Text(n)
	if text == "" {
		return true
	}
	for _, child := range dom.ChildElements(n) {
		if dom.Text(child) == text {
			return true
		}
	}
	return false
}

// inProductBand checks the vertical eligibility band relative to the
// winning image: a fixed buffer above the image's top edge is allowed, but
// nothing below its bottom edge. Without an image winner the band is open.
func inProductBand(c *candidate, image *candidate) bool {
	if image == nil {
		return true
	}
	if c.rect.Y < image.rect.Y-priceBandBuffer {
		return false
	}
	return c.rect.Y <= image.rect.Bottom()
}
