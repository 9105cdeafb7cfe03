package report

// Page geometry in millimeters.
const (
	margin      = 20.0
	imageHeight = 80.0
	sectionGap  = 10.0
	footerRise  = 30.0 // footer baseline above the bottom edge
	bodySize    = 12.0
	headingSize = 14.0
	titleSize   = 18.0
	footerSize  = 10.0
)

// lineAdvance is the vertical step after a line of text at size pt.
func lineAdvance(size float64) float64 {
	return size*0.5 + 5
}

// cursor tracks the baseline of the next line on the current page.
type cursor struct {
	y          float64
	pageHeight float64
}

func newCursor(pageHeight float64) *cursor {
	return &cursor{y: margin, pageHeight: pageHeight}
}

func (c *cursor) line(size float64) float64 {
	y := c.y
	c.y += lineAdvance(size)
	return y
}

func (c *cursor) gap() { c.y += sectionGap }

// fits reports whether a block of height h starting at the cursor stays
// above the bottom margin.
func (c *cursor) fits(h float64) bool {
	return c.y+h <= c.pageHeight-margin
}

func (c *cursor) newPage() { c.y = margin }

func (c *cursor) footerY() float64 { return c.pageHeight - footerRise }
