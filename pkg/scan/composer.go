package scan

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Composer assembles captured page images into a single PDF document.
type Composer struct {
	maxPages int
}

// NewComposer constructs a composer. maxPages caps the number of page images
// accepted per document; zero or negative means the default of 30.
func NewComposer(maxPages int) *Composer {
	if maxPages <= 0 {
		maxPages = 30
	}
	return &Composer{maxPages: maxPages}
}

// Compose renders each image as one full-bleed PDF page, preserving the
// image's aspect ratio, and returns the document bytes.
func (c *Composer) Compose(pages [][]byte) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page images provided")
	}
	if len(pages) > c.maxPages {
		return nil, fmt.Errorf("too many pages: %d exceeds limit of %d", len(pages), c.maxPages)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	for i, page := range pages {
		imageType, err := detectImageType(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page-%d", i+1)
		opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
		info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(page))
		if pdf.Err() {
			return nil, fmt.Errorf("register page %d: %s", i+1, pdf.Error())
		}
		w, h := info.Extent()
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("page %d has invalid dimensions", i+1)
		}
		orientation := "P"
		if w > h {
			orientation = "L"
		}
		pdf.AddPageFormat(orientation, gofpdf.SizeType{Wd: w, Ht: h})
		pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render scanned pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
)

func detectImageType(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return "JPG", nil
	case bytes.HasPrefix(data, pngMagic):
		return "PNG", nil
	default:
		return "", fmt.Errorf("unsupported image format")
	}
}
