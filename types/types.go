package types

import "time"

// Edge indices into a Quad, following the PDF lower-left convention.
const (
	EdgeLeft = iota
	EdgeBottom
	EdgeRight
	EdgeTop
)

// Quad holds one value per page edge in left, bottom, right, top order.
// Margin options that take either one value or four values are stored as a
// Quad with all four entries set.
type Quad [4]float64

// Uniform returns a Quad with all four edges set to v.
func Uniform(v float64) Quad {
	return Quad{v, v, v, v}
}

// Rect is a page rectangle in PDF points with the origin at the lower left.
type Rect struct {
	Left   float64
	Bottom float64
	Right  float64
	Top    float64
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Top - r.Bottom }

// Valid reports whether the rectangle has non-negative extent.
func (r Rect) Valid() bool { return r.Right >= r.Left && r.Top >= r.Bottom }

// Intersect clips r to o. The result may be empty but stays inside o.
func (r Rect) Intersect(o Rect) Rect {
	out := r
	if out.Left < o.Left {
		out.Left = o.Left
	}
	if out.Bottom < o.Bottom {
		out.Bottom = o.Bottom
	}
	if out.Right > o.Right {
		out.Right = o.Right
	}
	if out.Top > o.Top {
		out.Top = o.Top
	}
	if out.Right < out.Left {
		out.Right = out.Left
	}
	if out.Top < out.Bottom {
		out.Top = out.Bottom
	}
	return out
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	out := r
	if o.Left < out.Left {
		out.Left = o.Left
	}
	if o.Bottom < out.Bottom {
		out.Bottom = o.Bottom
	}
	if o.Right > out.Right {
		out.Right = o.Right
	}
	if o.Top > out.Top {
		out.Top = o.Top
	}
	return out
}

// Inset shrinks r by the per-edge amounts in q. Negative amounts grow the
// rectangle.
func (r Rect) Inset(q Quad) Rect {
	return Rect{
		Left:   r.Left + q[EdgeLeft],
		Bottom: r.Bottom + q[EdgeBottom],
		Right:  r.Right - q[EdgeRight],
		Top:    r.Top - q[EdgeTop],
	}
}

// PageBoxes are the effective boxes of one page after inheritance has been
// resolved by the PDF library.
type PageBoxes struct {
	Media Rect
	Crop  Rect
	Trim  *Rect
	Art   *Rect
	Bleed *Rect
}

// CropResult is the outcome of a crop computation for a whole document.
type CropResult struct {
	// NewBoxes has one entry per page. Pages that were not selected keep
	// their original full box.
	NewBoxes []Rect
	// DeltaPages reports, per edge, the 1-based page numbers whose margin
	// delta was the uniforming minimum. Empty for non-uniform crops.
	DeltaPages [4][]int
}

// WatchConfig configures directory batch mode.
type WatchConfig struct {
	SourceDir      string
	OutputDir      string
	BadDir         string
	MonitoringTime time.Duration
}
