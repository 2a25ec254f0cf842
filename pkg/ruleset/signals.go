package ruleset

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/pricescout/pricescout/internal/dom"
)

// Signal score bounds. Signals saturate asymptotically inside this range
// rather than flipping binary, so no single rule can dominate the sum.
const (
	minSignal = 0.08
	maxSignal = 0.9
)

// defaultFontSizePx stands in when a candidate carries no font annotation.
const defaultFontSizePx = 16

// signal is one independent heuristic. Score maps a candidate to
// [minSignal, maxSignal]; the registry slot index picks its coefficient.
type signal struct {
	name    string
	feature Feature
	score   func(c *candidate, p *pass) float64
}

var signalRegistry = []signal{
	{name: "image_area", feature: FeatureImage, score: imageArea},
	{name: "image_square_aspect", feature: FeatureImage, score: imageSquareAspect},
	{name: "image_no_background_id", feature: FeatureImage, score: imageNoBackgroundID},
	{name: "image_above_fold", feature: FeatureImage, score: aboveFold},
	{name: "title_font_size", feature: FeatureTitle, score: fontSize},
	{name: "title_above_fold", feature: FeatureTitle, score: aboveFold},
	{name: "title_near_image", feature: FeatureTitle, score: nearImageVertical},
	{name: "price_font_size", feature: FeaturePrice, score: fontSize},
	{name: "price_currency_symbol", feature: FeaturePrice, score: currencySymbol},
	{name: "price_id_class_hint", feature: FeaturePrice, score: priceIDClassHint},
	{name: "price_above_fold", feature: FeaturePrice, score: aboveFold},
	{name: "price_near_image", feature: FeaturePrice, score: nearImageEuclidean},
	{name: "price_cents_pattern", feature: FeaturePrice, score: centsPattern},
}

// SignalNames returns the registry signal names in coefficient-slot order.
func SignalNames() []string {
	names := make([]string, len(signalRegistry))
	for i, s := range signalRegistry {
		names[i] = s.name
	}
	return names
}

// saturating maps x >= 0 into [minSignal, maxSignal), approaching the
// ceiling asymptotically with characteristic scale k.
func saturating(x, k float64) float64 {
	if x <= 0 {
		return minSignal
	}
	return minSignal + (maxSignal-minSignal)*(1-math.Exp(-x/k))
}

// ratio maps t in [0, 1] linearly into [minSignal, maxSignal].
func ratio(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	return minSignal + (maxSignal-minSignal)*t
}

// boolean collapses a predicate to the signal floor or ceiling.
func boolean(ok bool) float64 {
	if ok {
		return maxSignal
	}
	return minSignal
}

// imageArea rewards larger images on a saturating ramp. Tiny boxes pin to
// the floor so sprites and icons never compete.
func imageArea(c *candidate, _ *pass) float64 {
	const minUsefulArea = 500
	area := c.rect.Area()
	if area < minUsefulArea {
		return minSignal
	}
	return saturating(area, 200000)
}

// imageSquareAspect rewards boxes close to square; banners score low.
func imageSquareAspect(c *candidate, _ *pass) float64 {
	w, h := c.rect.W, c.rect.H
	if w <= 0 || h <= 0 {
		return minSignal
	}
	return ratio(math.Min(w, h) / math.Max(w, h))
}

// imageNoBackgroundID penalizes decorative images by id.
func imageNoBackgroundID(c *candidate, _ *pass) float64 {
	id := strings.ToLower(dom.Attr(c.node, "id"))
	return boolean(!strings.Contains(id, "background"))
}

// aboveFold ramps confidence by vertical position: full within one viewport
// height of the top, floor beyond two viewport heights, linear between.
func aboveFold(c *candidate, p *pass) float64 {
	vh := p.viewportHeight
	y := c.rect.Y
	switch {
	case y <= vh:
		return maxSignal
	case y >= 2*vh:
		return minSignal
	default:
		return ratio(1 - (y-vh)/vh)
	}
}

// fontSize rewards larger computed font sizes on a saturating ramp.
func fontSize(c *candidate, _ *pass) float64 {
	fs, ok := dom.FontSize(c.node)
	if !ok {
		fs = defaultFontSizePx
	}
	return saturating(fs, 32)
}

// nearImageVertical rewards candidates vertically close to the winning
// product image.
func nearImageVertical(c *candidate, p *pass) float64 {
	if p.image == nil {
		return minSignal
	}
	dist := math.Abs(c.rect.CenterY() - p.image.rect.CenterY())
	return ratio(1 - dist/(2*p.viewportHeight))
}

// nearImageEuclidean rewards candidates close to the winning product image
// by straight-line distance between box centers.
func nearImageEuclidean(c *candidate, p *pass) float64 {
	if p.image == nil {
		return minSignal
	}
	dx := c.rect.CenterX() - p.image.rect.CenterX()
	dy := c.rect.CenterY() - p.image.rect.CenterY()
	dist := math.Hypot(dx, dy)
	return ratio(1 - dist/(2*p.viewportHeight))
}

// currencySymbol checks the candidate's text for a dollar sign.
func currencySymbol(c *candidate, _ *pass) float64 {
	return boolean(strings.Contains(dom.Text(c.node), "$"))
}

// priceIDClassHint checks the id and class of the candidate and its
// ancestors for the substring "price".
func priceIDClassHint(c *candidate, _ *pass) float64 {
	for n := c.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		hint := strings.ToLower(dom.Attr(n, "id") + " " + dom.Attr(n, "class"))
		if strings.Contains(hint, "price") {
			return maxSignal
		}
	}
	return minSignal
}

var centsRegexp = regexp.MustCompile(`\d+\.\d{2}(\D|$)`)

// centsPattern checks for a dollars-and-cents numeric pattern in the text.
func centsPattern(c *candidate, _ *pass) float64 {
	return boolean(centsRegexp.MatchString(dom.Text(c.node)))
}
