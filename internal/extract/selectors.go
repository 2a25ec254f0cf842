package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/pricescout/pricescout/internal/dom"
	"github.com/pricescout/pricescout/pkg/money"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// AccessorKind says how to pull a value out of a matched element.
type AccessorKind int

// Accessor kinds.
const (
	// AccessorText reads the element's full subtree text.
	AccessorText AccessorKind = iota
	// AccessorAttr reads a named attribute.
	AccessorAttr
	// AccessorChildText reads each direct child node's text as a separate
	// token; price features route the tokens through money.Parse.
	AccessorChildText
)

// Accessor is a tagged value accessor for a selector rule.
type Accessor struct {
	Kind AccessorKind
	Attr string // attribute name, for AccessorAttr
}

// SelectorRule pairs a CSS selector with a value accessor.
type SelectorRule struct {
	Selector string
	Accessor Accessor
}

// FeatureRules holds the ordered selector rules for each feature.
type FeatureRules struct {
	Title []SelectorRule
	Image []SelectorRule
	Price []SelectorRule
}

// SelectorTable maps a recognized domain to its extraction rules.
type SelectorTable map[string]FeatureRules

// DefaultSelectorTable returns the shipped per-site rules. Rules are tried
// in order; the first one yielding a usable value wins.
func DefaultSelectorTable() SelectorTable {
	return SelectorTable{
		"amazon.com": {
			Title: []SelectorRule{
				{Selector: "#productTitle", Accessor: Accessor{Kind: AccessorText}},
				{Selector: "#title", Accessor: Accessor{Kind: AccessorText}},
			},
			Image: []SelectorRule{
				{Selector: "#landingImage", Accessor: Accessor{Kind: AccessorAttr, Attr: "src"}},
				{Selector: "#imgBlkFront", Accessor: Accessor{Kind: AccessorAttr, Attr: "src"}},
			},
			Price: []SelectorRule{
				{Selector: "#priceblock_ourprice", Accessor: Accessor{Kind: AccessorChildText}},
				{Selector: "#priceblock_dealprice", Accessor: Accessor{Kind: AccessorChildText}},
				{Selector: "#price_inside_buybox", Accessor: Accessor{Kind: AccessorChildText}},
			},
		},
		"bestbuy.com": {
			Title: []SelectorRule{
				{Selector: ".sku-title h1", Accessor: Accessor{Kind: AccessorText}},
			},
			Image: []SelectorRule{
				{Selector: "img.primary-image", Accessor: Accessor{Kind: AccessorAttr, Attr: "src"}},
			},
			Price: []SelectorRule{
				{Selector: ".priceView-customer-price span", Accessor: Accessor{Kind: AccessorChildText}},
			},
		},
		"ebay.com": {
			Title: []SelectorRule{
				{Selector: "#itemTitle", Accessor: Accessor{Kind: AccessorChildText}},
				{Selector: ".x-item-title__mainTitle", Accessor: Accessor{Kind: AccessorText}},
			},
			Image: []SelectorRule{
				{Selector: "#icImg", Accessor: Accessor{Kind: AccessorAttr, Attr: "src"}},
				{Selector: ".ux-image-carousel-item img", Accessor: Accessor{Kind: AccessorAttr, Attr: "src"}},
			},
			Price: []SelectorRule{
				{Selector: "#prcIsum", Accessor: Accessor{Kind: AccessorChildText}},
				{Selector: ".x-price-primary span", Accessor: Accessor{Kind: AccessorChildText}},
			},
		},
		"walmart.com": {
			Title: []SelectorRule{
				{Selector: "h1[itemprop=name]", Accessor: Accessor{Kind: AccessorText}},
			},
			Image: []SelectorRule{
				{Selector: "img[data-testid=hero-image]", Accessor: Accessor{Kind: AccessorAttr, Attr: "src"}},
			},
			Price: []SelectorRule{
				{Selector: "span[itemprop=price]", Accessor: Accessor{Kind: AccessorChildText}},
			},
		},
		"homedepot.com": {
			Title: []SelectorRule{
				{Selector: "h1.product-details__title", Accessor: Accessor{Kind: AccessorText}},
			},
			Image: []SelectorRule{
				{Selector: "#mainImage", Accessor: Accessor{Kind: AccessorAttr, Attr: "src"}},
			},
			Price: []SelectorRule{
				{Selector: ".price-format__large", Accessor: Accessor{Kind: AccessorChildText}},
			},
		},
	}
}

// SiteSelector extracts products from recognized domains using hand-written
// CSS selector rules. It is the highest-precision, lowest-coverage method.
type SiteSelector struct {
	table SelectorTable
}

// NewSiteSelector creates a SiteSelector over the given rule table.
func NewSiteSelector(table SelectorTable) *SiteSelector {
	return &SiteSelector{table: table}
}

// Name implements Method.
func (s *SiteSelector) Name() domain.ExtractionMethod {
	return domain.MethodSiteSelector
}

// Extract implements Method. A hostname with no table entry, or any feature
// with no usable value, yields a nil result.
func (s *SiteSelector) Extract(doc *dom.Document) (*domain.ExtractedProduct, error) {
	rules, ok := s.lookup(doc.Hostname())
	if !ok {
		return nil, nil
	}

	title, err := firstText(doc, rules.Title)
	if err != nil {
		return nil, err
	}

	image, err := firstText(doc, rules.Image)
	if err != nil {
		return nil, err
	}

	price, err := firstPrice(doc, rules.Price)
	if err != nil {
		return nil, err
	}

	if title == "" || image == "" || !price.Valid() {
		return nil, nil
	}

	return &domain.ExtractedProduct{
		Title: title,
		Image: resolveURL(doc, image),
		Price: price,
	}, nil
}

// lookup matches the hostname against the table, tolerating a leading
// "www." or other subdomain prefix.
func (s *SiteSelector) lookup(hostname string) (FeatureRules, bool) {
	host := strings.ToLower(hostname)
	if rules, ok := s.table[host]; ok {
		return rules, true
	}
	for domainKey, rules := range s.table {
		if strings.HasSuffix(host, "."+domainKey) {
			return rules, true
		}
	}
	return FeatureRules{}, false
}

// firstText applies rules in order and returns the first non-empty string
// value.
func firstText(doc *dom.Document, rules []SelectorRule) (string, error) {
	for _, rule := range rules {
		nodes := doc.Find(rule.Selector)
		if len(nodes) == 0 {
			continue
		}
		value, err := textValue(nodes[0], rule.Accessor)
		if err != nil {
			return "", err
		}
		if value != "" {
			return value, nil
		}
	}
	return "", nil
}

// firstPrice applies rules in order and returns the first valid amount.
func firstPrice(doc *dom.Document, rules []SelectorRule) (money.Cents, error) {
	for _, rule := range rules {
		nodes := doc.Find(rule.Selector)
		if len(nodes) == 0 {
			continue
		}
		tokens, err := priceTokens(nodes[0], rule.Accessor)
		if err != nil {
			return money.Invalid, err
		}
		if amount := money.Parse(tokens); amount.Valid() {
			return amount, nil
		}
	}
	return money.Invalid, nil
}

func textValue(n *html.Node, a Accessor) (string, error) {
	switch a.Kind {
	case AccessorText:
		return dom.Text(n), nil
	case AccessorAttr:
		return dom.Attr(n, a.Attr), nil
	case AccessorChildText:
		return strings.Join(dom.ChildTextTokens(n), " "), nil
	default:
		return "", fmt.Errorf("unrecognized accessor kind %d", a.Kind)
	}
}

func priceTokens(n *html.Node, a Accessor) ([]string, error) {
	switch a.Kind {
	case AccessorText:
		return []string{dom.Text(n)}, nil
	case AccessorAttr:
		return []string{dom.Attr(n, a.Attr)}, nil
	case AccessorChildText:
		return dom.ChildTextTokens(n), nil
	default:
		return nil, fmt.Errorf("unrecognized accessor kind %d", a.Kind)
	}
}
