// Package dom wraps a parsed HTML document in a queryable snapshot with
// layout annotations.
//
// Extraction never runs against a live browser DOM. Instead the page loader
// bakes computed layout into data attributes (data-scout-rect,
// data-scout-font, data-scout-bg, data-scout-hidden, data-scout-viewport on
// the root element) before the HTML is captured, and this package reads
// them back. Static fixtures can carry the same attributes directly.
package dom

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Snapshot annotation attribute names.
const (
	AttrRect     = "data-scout-rect"
	AttrFont     = "data-scout-font"
	AttrBg       = "data-scout-bg"
	AttrHidden   = "data-scout-hidden"
	AttrViewport = "data-scout-viewport"
)

const defaultViewportHeight = 768

// Document is one consistent DOM snapshot of a product page.
type Document struct {
	doc *goquery.Document
	url *url.URL

	viewportW float64
	viewportH float64
}

// Parse reads an HTML snapshot and its page URL into a Document.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML snapshot: %w", err)
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL %q: %w", pageURL, err)
	}

	d := &Document{doc: gq, url: u, viewportH: defaultViewportHeight}

	if vp, ok := gq.Find("html").Attr(AttrViewport); ok {
		if w, h, ok := parseViewport(vp); ok {
			d.viewportW, d.viewportH = w, h
		}
	}

	return d, nil
}

// Find returns the nodes matching a CSS selector, in document order.
func (d *Document) Find(selector string) []*html.Node {
	return d.doc.Find(selector).Nodes
}

// Selection exposes the underlying goquery selection for a CSS selector.
func (d *Document) Selection(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// URL returns the page URL the snapshot was taken from.
func (d *Document) URL() string {
	return d.url.String()
}

// Hostname returns the page's resolved hostname.
func (d *Document) Hostname() string {
	return d.url.Hostname()
}

// ViewportHeight returns the snapshot viewport height in pixels.
func (d *Document) ViewportHeight() float64 {
	return d.viewportH
}

func parseViewport(s string) (w, h float64, ok bool) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.ParseFloat(parts[0], 64)
	h, errH := strconv.ParseFloat(parts[1], 64)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

// Rect is an element's layout box in page coordinates.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Area returns the box area in square pixels.
func (r Rect) Area() float64 { return r.W * r.H }

// Bottom returns the Y coordinate of the box's bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// CenterX returns the X coordinate of the box center.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the Y coordinate of the box center.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Attr returns the value of a named attribute, or "" when absent.
func Attr(n *html.Node, name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present.
func HasAttr(n *html.Node, name string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// BoundingRect returns the element's annotated layout box.
func BoundingRect(n *html.Node) (Rect, bool) {
	raw := Attr(n, AttrRect)
	if raw == "" {
		return Rect{}, false
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return Rect{}, false
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Rect{}, false
		}
		vals[i] = v
	}
	return Rect{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, true
}

// FontSize returns the element's annotated computed font size in pixels.
func FontSize(n *html.Node) (float64, bool) {
	raw := Attr(n, AttrFont)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var bgURLPattern = regexp.MustCompile(`url\(['"]?([^'")]+)['"]?\)`)

// BackgroundImageURL returns the element's background image URL, from the
// snapshot annotation or from an inline style declaration.
func BackgroundImageURL(n *html.Node) (string, bool) {
	if bg := Attr(n, AttrBg); bg != "" && bg != "none" {
		if m := bgURLPattern.FindStringSubmatch(bg); m != nil {
			return m[1], true
		}
		return bg, true
	}
	if m := bgURLPattern.FindStringSubmatch(styleProperty(n, "background-image")); m != nil {
		return m[1], true
	}
	return "", false
}

// Visible reports whether the element is rendered: neither it nor any
// ancestor is hidden via display, visibility, opacity, the snapshot hidden
// marker, or a zero-size layout box.
func Visible(n *html.Node) bool {
	if r, ok := BoundingRect(n); ok && (r.W == 0 || r.H == 0) {
		return false
	}
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if hiddenByStyle(cur) {
			return false
		}
	}
	return true
}

func hiddenByStyle(n *html.Node) bool {
	// The annotation script writes "true"; "1" is accepted for
	// hand-written fixtures.
	if v := Attr(n, AttrHidden); v == "true" || v == "1" {
		return true
	}
	if HasAttr(n, "hidden") {
		return true
	}
	if strings.EqualFold(styleProperty(n, "display"), "none") {
		return true
	}
	if strings.EqualFold(styleProperty(n, "visibility"), "hidden") {
		return true
	}
	if op := styleProperty(n, "opacity"); op != "" {
		if v, err := strconv.ParseFloat(op, 64); err == nil && v == 0 {
			return true
		}
	}
	return false
}

func styleProperty(n *html.Node, prop string) string {
	style := Attr(n, "style")
	if style == "" {
		return ""
	}
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if strings.TrimSpace(strings.ToLower(name)) == prop {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// Text returns the concatenated text of the element's entire subtree,
// whitespace-trimmed.
func Text(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b)
	return strings.TrimSpace(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// OwnText returns the concatenated text of the element's direct child text
// nodes only, excluding descendant elements.
func OwnText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// ChildTextTokens returns the trimmed text content of each direct child
// node, in order, dropping empty entries. Price fragments split across
// sibling nodes surface here as separate tokens.
func ChildTextTokens(n *html.Node) []string {
	var tokens []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		var t string
		switch c.Type {
		case html.TextNode:
			t = strings.TrimSpace(c.Data)
		case html.ElementNode:
			t = Text(c)
		}
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// ChildElements returns the element's direct child elements.
func ChildElements(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}
