//go:build mupdf

package bbox

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"pdfcropmargins/types"
)

// muPDFEngine renders pages in-process through MuPDF, the same renderer the
// original tool uses by default.
type muPDFEngine struct{}

func newMuPDFEngine() (Engine, error) { return muPDFEngine{}, nil }

func newMuPDFRenderer() (Renderer, error) { return muPDFEngine{}, nil }

func (muPDFEngine) RenderPage(ctx context.Context, pdfPath string, pageNr, dpi int) (image.Image, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening document with mupdf: %w", err)
	}
	defer doc.Close()
	return doc.ImageDPI(pageNr-1, float64(dpi))
}

func (muPDFEngine) Name() string { return "mupdf" }

func (muPDFEngine) BoundingBoxes(ctx context.Context, pdfPath string, pages []PageGeom, opts *types.Options) ([]types.Rect, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening document with mupdf: %w", err)
	}
	defer doc.Close()

	if n := doc.NumPage(); n != len(pages) {
		return nil, fmt.Errorf("mupdf sees %d pages, expected %d", n, len(pages))
	}

	ropts := rasterOpts(opts)
	boxes := make([]types.Rect, len(pages))
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// go-fitz renders a single DPI for both axes, so --res-y has no
		// effect here; the pixel-to-point mapping in rasterBBox derives its
		// scale from the actual image size either way. Use the Ghostscript
		// render engine for anisotropic resolutions.
		img, err := doc.ImageDPI(i, float64(opts.ResX))
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}
		boxes[i] = rasterBBox(img, pages[i].Render, pages[i].Full, ropts)
	}
	return boxes, nil
}
