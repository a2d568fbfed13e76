package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// ErrNoImage means the document produced no renderable page.
var ErrNoImage = errors.New("no image produced")

// FitzConverter renders the first page of a PDF to a PNG raster image.
type FitzConverter struct {
	dpi float64
}

// NewFitzConverter builds a converter. dpi <= 0 selects a default suitable
// for on-screen preview.
func NewFitzConverter(dpi float64) *FitzConverter {
	if dpi <= 0 {
		dpi = 144
	}
	return &FitzConverter{dpi: dpi}
}

// Convert turns raw PDF bytes into PNG bytes. It performs no retries.
func (c *FitzConverter) Convert(ctx context.Context, pdf []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, ErrNoImage
	}

	img, err := doc.ImageDPI(0, c.dpi)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNoImage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
