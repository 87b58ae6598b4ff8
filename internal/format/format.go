// Package format assembles per-image recognition results into the single
// document text the user edits and exports.
package format

import (
	"fmt"
	"strings"

	"scantext/pkg/models"
)

// Document concatenates recognition results, in ordinal order, into one text
// buffer.
//
// A single result is returned verbatim with no page marker. For multi-image
// batches every image contributes a section: a 1-based page header, a blank
// line, the recognized text (possibly empty for a failed recognition), and a
// blank separator line. The output depends only on the input, so identical
// batches always format to byte-identical documents.
func Document(results []models.RecognitionResult) string {
	if len(results) == 0 {
		return ""
	}
	if len(results) == 1 {
		return results[0].Text
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "*** Image %d ***\n\n%s\n\n", r.Ordinal+1, r.Text)
	}
	return b.String()
}
