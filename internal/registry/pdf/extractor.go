// Package pdf extracts plain text from uploaded legal-act documents.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	e "github.com/gartstein/registo/internal/registry/errors"
	"github.com/ledongthuc/pdf"
)

// Extractor pulls the plain text out of a PDF document. It is stateless and
// keeps no cache: calling it twice on the same bytes redoes the work.
type Extractor struct{}

// NewExtractor constructs an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the concatenated text of every page in document order.
// Page boundaries are not marked; a page with no extractable text
// contributes an empty string. Corrupt or non-PDF input fails as a whole
// with ErrExtraction — there is no partial result.
func (x *Extractor) ExtractText(data []byte) (text string, err error) {
	// The underlying reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", e.ErrExtraction, r)
		}
	}()

	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty input", e.ErrExtraction)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", e.ErrExtraction, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", e.ErrExtraction, i, err)
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}
