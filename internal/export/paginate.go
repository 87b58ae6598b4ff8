// Package export lays out and persists the recognized document as plain text
// or as a paginated PDF with the source images embedded on dedicated pages.
package export

import (
	"math"
	"strings"

	"scantext/pkg/models"
)

// lineAdvance is the extra spacing between consecutive text lines, added to
// the font size when stepping the baseline.
const lineAdvance = 5

// Geometry is the fixed page layout used for PDF export. Dimensions are in
// points.
type Geometry struct {
	PageWidth         float64
	PageHeight        float64
	FontSize          float64
	VerticalPadding   float64
	HorizontalPadding float64
}

// DefaultGeometry returns the layout the original capture pipeline used: an
// A4-shaped 794x1123 page with 24pt text.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:         794,
		PageHeight:        1123,
		FontSize:          24,
		VerticalPadding:   24,
		HorizontalPadding: 20,
	}
}

// PageKind distinguishes image pages from text pages.
type PageKind int

const (
	KindImage PageKind = iota
	KindText
)

// Page is one laid-out output page: either a single source image scaled to
// fit, or the subset of document lines the page holds. Pages exist only
// between pagination and rendering.
type Page struct {
	Index int
	Kind  PageKind

	// Image is set for image pages.
	Image *models.AcquiredImage

	// Lines is set for text pages.
	Lines []string
}

// Paginate lays the document out: one page per source image, in input order,
// followed by the text split greedily across as many pages as it needs.
//
// Text packing starts each page at VerticalPadding+FontSize from the top and
// advances FontSize+5 per line; a line that would pass
// PageHeight-VerticalPadding opens a new page. Lines wider than the printable
// width are not wrapped: they render unmodified at the fixed left margin.
func Paginate(text string, images []models.AcquiredImage, geom Geometry) []Page {
	var pages []Page

	for i := range images {
		pages = append(pages, Page{
			Index: len(pages),
			Kind:  KindImage,
			Image: &images[i],
		})
	}

	for _, lines := range splitTextPages(text, geom) {
		pages = append(pages, Page{
			Index: len(pages),
			Kind:  KindText,
			Lines: lines,
		})
	}

	return pages
}

// PagesNeeded is the estimation pass: it predicts, without laying anything
// out, how many pages Paginate will produce for the text alone. It applies
// the same baseline arithmetic as the rendering pass, so the two can never
// disagree on page boundaries.
func PagesNeeded(text string, geom Geometry) int {
	pages := 1
	placed := 0
	y := geom.VerticalPadding + geom.FontSize

	for range strings.SplitSeq(text, "\n") {
		if y+geom.FontSize > geom.PageHeight-geom.VerticalPadding && placed > 0 {
			pages++
			placed = 0
			y = geom.VerticalPadding + geom.FontSize
		}
		placed++
		y += geom.FontSize + lineAdvance
	}

	return pages
}

// splitTextPages packs document lines onto pages greedily. The first line of
// a page is always placed, even when the geometry is too tight for it, so
// pathological page sizes degrade to one line per page instead of looping.
func splitTextPages(text string, geom Geometry) [][]string {
	var result [][]string
	var current []string
	y := geom.VerticalPadding + geom.FontSize

	for _, line := range strings.Split(text, "\n") {
		if y+geom.FontSize > geom.PageHeight-geom.VerticalPadding && len(current) > 0 {
			result = append(result, current)
			current = nil
			y = geom.VerticalPadding + geom.FontSize
		}
		current = append(current, line)
		y += geom.FontSize + lineAdvance
	}

	return append(result, current)
}

// FitRect scales an image of the given pixel dimensions uniformly to the
// largest size that fits the page and centers it, returning the placement
// rectangle. Aspect ratio is preserved exactly.
func FitRect(width, height int, geom Geometry) (x, y, w, h float64) {
	scale := math.Min(
		geom.PageWidth/float64(width),
		geom.PageHeight/float64(height),
	)
	w = float64(width) * scale
	h = float64(height) * scale
	x = (geom.PageWidth - w) / 2
	y = (geom.PageHeight - h) / 2
	return x, y, w, h
}
