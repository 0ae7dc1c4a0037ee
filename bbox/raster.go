package bbox

import (
	"image"
	"image/color"
	"image/draw"

	"pdfcropmargins/types"
)

// rasterOptions are the knobs of the raster analysis, a subset of Options.
type rasterOptions struct {
	threshold  int
	numBlurs   int
	numSmooths int
}

func rasterOpts(opts *types.Options) rasterOptions {
	return rasterOptions{
		threshold:  opts.Threshold,
		numBlurs:   opts.NumBlurs,
		numSmooths: opts.NumSmooths,
	}
}

// rasterBBox finds the tight bounding box of the non-background pixels of a
// rendered page and maps it back to PDF points.
//
// renderBox is the page region the image depicts; fullBox limits the region
// considered (pre-crop), expressed in the same PDF coordinates. An all-white
// page yields fullBox so the caller never crops on an empty signal.
func rasterBBox(img image.Image, renderBox, fullBox types.Rect, opts rasterOptions) types.Rect {
	g := toGray(img)
	for i := 0; i < opts.numBlurs; i++ {
		g = convolve3(g, blurKernel)
	}
	for i := 0; i < opts.numSmooths; i++ {
		g = convolve3(g, smoothKernel)
	}

	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || renderBox.Width() <= 0 || renderBox.Height() <= 0 {
		return fullBox
	}

	// Pixels per point, derived from the actual image so the caller's
	// requested resolution never has to match exactly.
	scaleX := float64(w) / renderBox.Width()
	scaleY := float64(h) / renderBox.Height()

	win := scanWindow(renderBox, fullBox, w, h, scaleX, scaleY)

	minX, minY := -1, -1
	maxX, maxY := -1, -1
	for y := win.Min.Y; y < win.Max.Y; y++ {
		for x := win.Min.X; x < win.Max.X; x++ {
			if int(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y) >= opts.threshold {
				continue
			}
			if minX < 0 || x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if minY < 0 || y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if minX < 0 {
		return fullBox
	}

	// Image rows grow downward, PDF y grows upward.
	out := types.Rect{
		Left:   renderBox.Left + float64(minX)/scaleX,
		Right:  renderBox.Left + float64(maxX+1)/scaleX,
		Top:    renderBox.Top - float64(minY)/scaleY,
		Bottom: renderBox.Top - float64(maxY+1)/scaleY,
	}
	return out.Intersect(fullBox)
}

// scanWindow maps the fullBox region into pixel coordinates, clamped to the
// image. Content outside it (cut away by --absolute-pre-crop) is ignored.
func scanWindow(renderBox, fullBox types.Rect, w, h int, scaleX, scaleY float64) image.Rectangle {
	clipped := fullBox.Intersect(renderBox)
	win := image.Rect(
		int((clipped.Left-renderBox.Left)*scaleX),
		int((renderBox.Top-clipped.Top)*scaleY),
		int((clipped.Right-renderBox.Left)*scaleX+0.5),
		int((renderBox.Top-clipped.Bottom)*scaleY+0.5),
	)
	return win.Intersect(image.Rect(0, 0, w, h))
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}

// 3x3 kernels scaled to a sum of 16, matching the image library filters the
// original tool applied before thresholding.
var (
	blurKernel   = [9]int{2, 2, 2, 2, 0, 2, 2, 2, 2}
	smoothKernel = [9]int{1, 1, 1, 1, 8, 1, 1, 1, 1}
)

func convolve3(g *image.Gray, k [9]int) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	sum := 0
	for _, v := range k {
		sum += v
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			acc := 0
			i := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					acc += int(grayAtClamped(g, x+dx, y+dy)) * k[i]
					i++
				}
			}
			out.SetGray(x, y, color.Gray{Y: uint8(acc / sum)})
		}
	}
	return out
}

func grayAtClamped(g *image.Gray, x, y int) uint8 {
	b := g.Bounds()
	if x < b.Min.X {
		x = b.Min.X
	}
	if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y < b.Min.Y {
		y = b.Min.Y
	}
	if y >= b.Max.Y {
		y = b.Max.Y - 1
	}
	return g.GrayAt(x, y).Y
}
