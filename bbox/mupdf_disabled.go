//go:build !mupdf

package bbox

import "fmt"

// The MuPDF engine needs cgo and the mupdf build tag; without it the
// selector falls back to Ghostscript.
func newMuPDFEngine() (Engine, error) {
	return nil, fmt.Errorf("mupdf engine not compiled in (build with -tags mupdf)")
}

func newMuPDFRenderer() (Renderer, error) {
	return nil, fmt.Errorf("mupdf renderer not compiled in (build with -tags mupdf)")
}
