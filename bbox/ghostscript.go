package bbox

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pdfcropmargins/internal"
	"pdfcropmargins/types"
)

// gsBBoxEngine asks Ghostscript's bbox output device for the ink extent of
// each page. Coordinates come back relative to the rendered page origin.
type gsBBoxEngine struct {
	gsPath string
}

func (e *gsBBoxEngine) Name() string { return "ghostscript-bbox" }

func (e *gsBBoxEngine) BoundingBoxes(ctx context.Context, pdfPath string, pages []PageGeom, opts *types.Options) ([]types.Rect, error) {
	out, err := internal.RunGhostscript(ctx, e.gsPath,
		"-sDEVICE=bbox", "-dUseCropBox", pdfPath)
	if err != nil {
		return nil, err
	}

	raw, err := parseBBoxOutput(out)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(pages) {
		return nil, fmt.Errorf("ghostscript reported %d bounding boxes for %d pages", len(raw), len(pages))
	}

	boxes := make([]types.Rect, len(pages))
	for i, r := range raw {
		boxes[i] = types.Rect{
			Left:   pages[i].Render.Left + r.Left,
			Bottom: pages[i].Render.Bottom + r.Bottom,
			Right:  pages[i].Render.Left + r.Right,
			Top:    pages[i].Render.Bottom + r.Top,
		}.Intersect(pages[i].Full)
	}
	return boxes, nil
}

// parseBBoxOutput extracts one rectangle per page from bbox device output,
// preferring the %%HiResBoundingBox line over the integer one.
func parseBBoxOutput(out []byte) ([]types.Rect, error) {
	var boxes []types.Rect
	var last *types.Rect

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "%%BoundingBox:"):
			r, err := parseBBoxLine(strings.TrimPrefix(line, "%%BoundingBox:"))
			if err != nil {
				return nil, err
			}
			boxes = append(boxes, r)
			last = &boxes[len(boxes)-1]
		case strings.HasPrefix(line, "%%HiResBoundingBox:"):
			r, err := parseBBoxLine(strings.TrimPrefix(line, "%%HiResBoundingBox:"))
			if err != nil {
				return nil, err
			}
			if last != nil {
				*last = r
			} else {
				boxes = append(boxes, r)
			}
			last = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(boxes) == 0 {
		return nil, fmt.Errorf("no bounding boxes in ghostscript output")
	}
	return boxes, nil
}

func parseBBoxLine(rest string) (types.Rect, error) {
	fields := strings.Fields(rest)
	if len(fields) != 4 {
		return types.Rect{}, fmt.Errorf("malformed bounding box line %q", rest)
	}
	var vals [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return types.Rect{}, fmt.Errorf("malformed bounding box value %q", f)
		}
		vals[i] = v
	}
	return types.Rect{Left: vals[0], Bottom: vals[1], Right: vals[2], Top: vals[3]}, nil
}

// gsRenderEngine rasterizes every page to grayscale PNG with Ghostscript and
// runs the threshold analysis on the pixels, like the original tool's
// Ghostscript rendering mode.
type gsRenderEngine struct {
	gsPath string
}

func (e *gsRenderEngine) Name() string { return "ghostscript-render" }

func (e *gsRenderEngine) BoundingBoxes(ctx context.Context, pdfPath string, pages []PageGeom, opts *types.Options) ([]types.Rect, error) {
	workDir, err := internal.TempWorkDir()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	pattern := filepath.Join(workDir, "page-%d.png")
	_, err = internal.RunGhostscript(ctx, e.gsPath,
		"-sDEVICE=pnggray",
		fmt.Sprintf("-r%dx%d", opts.ResX, opts.ResY),
		"-dUseCropBox",
		"-o", pattern,
		pdfPath)
	if err != nil {
		return nil, err
	}

	ropts := rasterOpts(opts)
	boxes := make([]types.Rect, len(pages))
	for i := range pages {
		img, err := loadPNG(filepath.Join(workDir, fmt.Sprintf("page-%d.png", i+1)))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		boxes[i] = rasterBBox(img, pages[i].Render, pages[i].Full, ropts)
	}
	return boxes, nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}
