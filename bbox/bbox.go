// Package bbox computes per-page content bounding boxes. Rendering and page
// inspection are delegated to external libraries and programs (MuPDF,
// Ghostscript); this package owns only the engine plumbing and the raster
// analysis of rendered pages.
package bbox

import (
	"context"
	"fmt"

	"pdfcropmargins/internal"
	"pdfcropmargins/types"
)

// PageGeom carries the geometry an engine needs for one page.
type PageGeom struct {
	// Render is the page box the renderer will draw (the effective crop
	// box of the document as it sits on disk).
	Render types.Rect
	// Full is the full page box after --absolute-pre-crop. Bounding boxes
	// are confined to it.
	Full types.Rect
}

// Engine computes content bounding boxes for every page of a document.
type Engine interface {
	Name() string
	BoundingBoxes(ctx context.Context, pdfPath string, pages []PageGeom, opts *types.Options) ([]types.Rect, error)
}

// Select resolves a --calcbb selector to an engine. The default picks the
// MuPDF engine when compiled in, then Ghostscript's bbox device, in that
// order. The page-box selector ("o") needs no engine and returns nil.
func Select(calcbb string) (Engine, error) {
	switch calcbb {
	case types.CalcBBPageBoxes:
		return nil, nil
	case types.CalcBBMuPDF:
		return newMuPDFEngine()
	case types.CalcBBGsBBox:
		gs, err := internal.FindGhostscript()
		if err != nil {
			return nil, err
		}
		return &gsBBoxEngine{gsPath: gs}, nil
	case types.CalcBBGsRender:
		gs, err := internal.FindGhostscript()
		if err != nil {
			return nil, err
		}
		return &gsRenderEngine{gsPath: gs}, nil
	case types.CalcBBDefault:
		if e, err := newMuPDFEngine(); err == nil {
			return e, nil
		}
		gs, err := internal.FindGhostscript()
		if err != nil {
			return nil, fmt.Errorf("no bounding box engine available: %w", err)
		}
		return &gsBBoxEngine{gsPath: gs}, nil
	default:
		return nil, fmt.Errorf("unknown bounding box engine %q", calcbb)
	}
}
