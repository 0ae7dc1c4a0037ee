package bbox

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"pdfcropmargins/internal"
)

// Renderer draws single pages as images for the preview server.
type Renderer interface {
	RenderPage(ctx context.Context, pdfPath string, pageNr, dpi int) (image.Image, error)
}

// NewRenderer returns the MuPDF renderer when compiled in, else a
// Ghostscript-backed one.
func NewRenderer() (Renderer, error) {
	if r, err := newMuPDFRenderer(); err == nil {
		return r, nil
	}
	gs, err := internal.FindGhostscript()
	if err != nil {
		return nil, fmt.Errorf("no page renderer available: %w", err)
	}
	return &gsRenderer{gsPath: gs}, nil
}

type gsRenderer struct {
	gsPath string
}

func (r *gsRenderer) RenderPage(ctx context.Context, pdfPath string, pageNr, dpi int) (image.Image, error) {
	workDir, err := internal.TempWorkDir()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	out := filepath.Join(workDir, "page.png")
	_, err = internal.RunGhostscript(ctx, r.gsPath,
		"-sDEVICE=pnggray",
		fmt.Sprintf("-r%d", dpi),
		fmt.Sprintf("-dFirstPage=%d", pageNr),
		fmt.Sprintf("-dLastPage=%d", pageNr),
		"-dUseCropBox",
		"-o", out,
		pdfPath)
	if err != nil {
		return nil, err
	}
	return loadPNG(out)
}
