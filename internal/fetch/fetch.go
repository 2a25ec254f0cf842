// Package fetch loads product pages in a headless browser and turns them
// into annotated DOM snapshots. The annotation script bakes layout geometry
// (bounding rects, font sizes, computed visibility, background images) into
// data attributes so the scoring ruleset can read it from static HTML.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/pricescout/pricescout/internal/dom"
	"github.com/pricescout/pricescout/internal/metrics"
)

// Loader fetches a page and returns its annotated DOM snapshot.
type Loader interface {
	Load(ctx context.Context, url string) (*dom.Document, error)
}

// annotationScript runs inside the loaded page just before capture.
// It writes the layout facts the scoring signals need onto every element.
const annotationScript = `() => {
	const vw = window.innerWidth;
	const vh = window.innerHeight;
	document.documentElement.setAttribute('data-scout-viewport', vw + 'x' + vh);

	for (const el of document.querySelectorAll('*')) {
		const r = el.getBoundingClientRect();
		el.setAttribute('data-scout-rect', [
			Math.round(r.left + window.scrollX),
			Math.round(r.top + window.scrollY),
			Math.round(r.width),
			Math.round(r.height),
		].join(','));

		const cs = window.getComputedStyle(el);
		const font = Math.round(parseFloat(cs.fontSize));
		if (font > 0) {
			el.setAttribute('data-scout-font', String(font));
		}
		if (cs.display === 'none' || cs.visibility === 'hidden' ||
			parseFloat(cs.opacity) === 0) {
			el.setAttribute('data-scout-hidden', 'true');
		}
		if (cs.backgroundImage && cs.backgroundImage !== 'none') {
			el.setAttribute('data-scout-bg', cs.backgroundImage);
		}
	}
}`

const defaultPageTimeout = 30 * time.Second

// BrowserLoader implements Loader with a shared headless Chromium instance.
// Loads are serialized: only one page is open at a time, and every page is
// torn down after a fixed delay whether or not extraction completed, so a
// stuck load cannot grow resource usage.
type BrowserLoader struct {
	browser *rod.Browser
	log     *slog.Logger
	timeout time.Duration

	mu sync.Mutex
}

// BrowserOption configures a BrowserLoader.
type BrowserOption func(*BrowserLoader)

// WithPageTimeout bounds each page load and its teardown delay.
func WithPageTimeout(d time.Duration) BrowserOption {
	return func(l *BrowserLoader) {
		l.timeout = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) BrowserOption {
	return func(l *BrowserLoader) {
		l.log = log
	}
}

// NewBrowserLoader launches a headless browser and connects to it.
func NewBrowserLoader(opts ...BrowserOption) (*BrowserLoader, error) {
	l := &BrowserLoader{
		log:     slog.Default(),
		timeout: defaultPageTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}

	controlURL, err := launcher.New().
		Headless(true).
		NoSandbox(true).
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	l.browser = browser
	return l, nil
}

// Close shuts the browser down.
func (l *BrowserLoader) Close() error {
	return l.browser.Close()
}

// Load fetches one page, annotates it, and parses the captured HTML.
// Only one load runs at a time.
func (l *BrowserLoader) Load(ctx context.Context, url string) (*dom.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	metrics.PageLoadsTotal.Inc()

	loadCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	page, err := l.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("opening page %s: %w", url, err)
	}

	// Tear the page down after the timeout no matter what; a page stuck in
	// a never-finishing load must not outlive its slot.
	teardown := time.AfterFunc(l.timeout, func() {
		if closeErr := page.Close(); closeErr != nil {
			l.log.Debug("late page teardown", "url", url, "error", closeErr)
		}
	})
	defer func() {
		teardown.Stop()
		if closeErr := page.Close(); closeErr != nil {
			l.log.Debug("page close", "url", url, "error", closeErr)
		}
	}()

	page = page.Context(loadCtx)

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for page load %s: %w", url, err)
	}

	if _, err := page.Eval(annotationScript); err != nil {
		return nil, fmt.Errorf("annotating page %s: %w", url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("capturing page HTML %s: %w", url, err)
	}

	doc, err := dom.Parse(strings.NewReader(html), url)
	if err != nil {
		return nil, fmt.Errorf("parsing page %s: %w", url, err)
	}
	return doc, nil
}
