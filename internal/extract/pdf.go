package extract

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
)

// maxPDFPages bounds how many pages of a PDF are sent to the vision
// model. Receipts and invoices rarely need more than the first page;
// two covers multi-page invoices without ballooning token costs.
const maxPDFPages = 2

// renderPDFPages rasterizes the leading pages of a PDF into JPEG images
// suitable for the vision API.
func renderPDFPages(data []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if pages > maxPDFPages {
		pages = maxPDFPages
	}

	images := make([][]byte, 0, pages)
	for n := 0; n < pages; n++ {
		img, err := doc.Image(n)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", n+1, err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", n+1, err)
		}
		images = append(images, buf.Bytes())
	}

	return images, nil
}
