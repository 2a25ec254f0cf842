package fetch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricescout/pricescout/internal/dom"
)

// The annotation script is the writer side of the attribute contract the
// dom package reads; the names must stay in sync.
func TestAnnotationScriptWritesKnownAttributes(t *testing.T) {
	t.Parallel()

	for _, attr := range []string{
		dom.AttrRect,
		dom.AttrFont,
		dom.AttrBg,
		dom.AttrHidden,
		dom.AttrViewport,
	} {
		assert.Contains(t, annotationScript, attr)
	}
}

// The hidden marker the script writes must be a value dom.Visible
// recognizes, or stylesheet-hidden elements come back as visible.
func TestAnnotationHiddenMarkerRoundTrips(t *testing.T) {
	t.Parallel()

	assert.Contains(t, annotationScript, `setAttribute('`+dom.AttrHidden+`', 'true')`)

	page := `<html><body>
		<div ` + dom.AttrHidden + `="true"><span id="hidden">$5.00</span></div>
		<span id="shown">$9.99</span>
	</body></html>`

	d, err := dom.Parse(strings.NewReader(page), "https://example.com/p")
	require.NoError(t, err)

	hidden := d.Find("#hidden")
	require.Len(t, hidden, 1)
	assert.False(t, dom.Visible(hidden[0]))

	shown := d.Find("#shown")
	require.Len(t, shown, 1)
	assert.True(t, dom.Visible(shown[0]))
}
