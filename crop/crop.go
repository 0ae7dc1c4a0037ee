package crop

import (
	"fmt"
	"math"
	"sort"

	"pdfcropmargins/types"
)

const deltaEpsilon = 1e-6

// Compute derives the new page boxes for a document.
//
// fullBoxes are the effective full page boxes (already pre-cropped when
// --absolute-pre-crop is active), bboxes the content bounding boxes from the
// selected engine, selected the page selection from --pages. All three must
// have one entry per page.
func Compute(fullBoxes, bboxes []types.Rect, selected []bool, opts *types.Options) (types.CropResult, error) {
	n := len(fullBoxes)
	if len(bboxes) != n || len(selected) != n {
		return types.CropResult{}, fmt.Errorf("page count mismatch: %d full boxes, %d bounding boxes, %d selections",
			n, len(bboxes), len(selected))
	}

	full := make([]types.Rect, n)
	copy(full, fullBoxes)

	if opts.SamePageSize {
		uni, any := unionSelected(full, selected)
		if any {
			for i := range full {
				if selected[i] {
					full[i] = uni
				}
			}
		}
	}

	// Degenerate bounding boxes fall back to the full page, so such a page
	// never gets cropped into.
	boxes := make([]types.Rect, n)
	for i := range bboxes {
		b := bboxes[i].Intersect(full[i])
		if !b.Valid() || b.Width() <= 0 || b.Height() <= 0 {
			b = full[i]
		}
		boxes[i] = b
	}

	result := types.CropResult{NewBoxes: make([]types.Rect, n)}
	for i := 0; i < n; i++ {
		if !selected[i] {
			result.NewBoxes[i] = fullBoxes[i]
			continue
		}
		result.NewBoxes[i] = pageCrop(full[i], boxes[i], opts)
	}

	if opts.UniformActive() {
		if opts.EvenOdd {
			// 1-based odd pages are the even 0-based indices.
			odd := func(i int) bool { return i%2 == 0 }
			uniformGroup(&result, full, selected, opts, odd)
			uniformGroup(&result, full, selected, opts, func(i int) bool { return !odd(i) })
		} else {
			uniformGroup(&result, full, selected, opts, func(int) bool { return true })
		}
	}

	if opts.PageRatio > 0 {
		for i := 0; i < n; i++ {
			if selected[i] {
				result.NewBoxes[i] = applyRatio(result.NewBoxes[i], opts.PageRatio, opts.PageRatioWeights)
			}
		}
	}

	for e := range result.DeltaPages {
		sort.Ints(result.DeltaPages[e])
	}
	return result, nil
}

// pageCrop computes the tentative crop box of a single page before any
// uniforming: the bounding box grown by the retained margins, the absolute
// offsets, and the crop-safe clamp, clipped to the full page.
func pageCrop(full, bbox types.Rect, opts *types.Options) types.Rect {
	var keep types.Quad
	for e := 0; e < 4; e++ {
		pct := opts.PercentRetain[e] / 100
		if opts.PercentText {
			switch e {
			case types.EdgeLeft, types.EdgeRight:
				keep[e] = pct * bbox.Width()
			default:
				keep[e] = pct * bbox.Height()
			}
		} else {
			keep[e] = pct * margin(full, bbox, e)
		}
	}

	out := types.Rect{
		Left:   bbox.Left - keep[types.EdgeLeft] - opts.AbsoluteOffset[types.EdgeLeft],
		Bottom: bbox.Bottom - keep[types.EdgeBottom] - opts.AbsoluteOffset[types.EdgeBottom],
		Right:  bbox.Right + keep[types.EdgeRight] + opts.AbsoluteOffset[types.EdgeRight],
		Top:    bbox.Top + keep[types.EdgeTop] + opts.AbsoluteOffset[types.EdgeTop],
	}

	if opts.CropSafe {
		safe := types.Rect{
			Left:   bbox.Left - opts.CropSafeMin[types.EdgeLeft],
			Bottom: bbox.Bottom - opts.CropSafeMin[types.EdgeBottom],
			Right:  bbox.Right + opts.CropSafeMin[types.EdgeRight],
			Top:    bbox.Top + opts.CropSafeMin[types.EdgeTop],
		}
		out.Left = math.Min(out.Left, safe.Left)
		out.Bottom = math.Min(out.Bottom, safe.Bottom)
		out.Right = math.Max(out.Right, safe.Right)
		out.Top = math.Max(out.Top, safe.Top)
	}

	return out.Intersect(full)
}

// margin is the whitespace between the full box and the bounding box on the
// given edge, never negative.
func margin(full, bbox types.Rect, edge int) float64 {
	var m float64
	switch edge {
	case types.EdgeLeft:
		m = bbox.Left - full.Left
	case types.EdgeBottom:
		m = bbox.Bottom - full.Bottom
	case types.EdgeRight:
		m = full.Right - bbox.Right
	case types.EdgeTop:
		m = full.Top - bbox.Top
	}
	return math.Max(m, 0)
}

// uniformGroup replaces the per-page crop deltas of every member page with
// the group's order-statistic delta and records which pages set it.
func uniformGroup(result *types.CropResult, full []types.Rect, selected []bool, opts *types.Options, member func(int) bool) {
	var idx []int
	for i := range full {
		if selected[i] && member(i) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return
	}

	for e := 0; e < 4; e++ {
		deltas := make([]float64, len(idx))
		for k, i := range idx {
			deltas[k] = cropDelta(full[i], result.NewBoxes[i], e)
		}
		sorted := append([]float64(nil), deltas...)
		sort.Float64s(sorted)

		// A nonzero order statistic skips that many of the tightest pages.
		ord := opts.UniformOrderStat[e]
		if ord > len(sorted)-1 {
			ord = len(sorted) - 1
		}
		d := sorted[ord]

		for k, i := range idx {
			setCropDelta(&result.NewBoxes[i], full[i], e, d)
			if math.Abs(deltas[k]-d) < deltaEpsilon {
				result.DeltaPages[e] = append(result.DeltaPages[e], i+1)
			}
		}
	}
}

// cropDelta is the amount cropped off the full box on the given edge.
func cropDelta(full, cropped types.Rect, edge int) float64 {
	switch edge {
	case types.EdgeLeft:
		return cropped.Left - full.Left
	case types.EdgeBottom:
		return cropped.Bottom - full.Bottom
	case types.EdgeRight:
		return full.Right - cropped.Right
	default:
		return full.Top - cropped.Top
	}
}

func setCropDelta(cropped *types.Rect, full types.Rect, edge int, d float64) {
	switch edge {
	case types.EdgeLeft:
		cropped.Left = full.Left + d
	case types.EdgeBottom:
		cropped.Bottom = full.Bottom + d
	case types.EdgeRight:
		cropped.Right = full.Right - d
	case types.EdgeTop:
		cropped.Top = full.Top - d
	}
}

// applyRatio pads the short dimension of r until its height/width ratio
// reaches target, splitting the padding between the two edges of that
// dimension according to their weights.
func applyRatio(r types.Rect, target float64, weights types.Quad) types.Rect {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return r
	}
	cur := h / w
	switch {
	case cur < target:
		pad := target*w - h
		wb := weights[types.EdgeBottom]
		wt := weights[types.EdgeTop]
		if wb+wt == 0 {
			return r
		}
		r.Bottom -= pad * wb / (wb + wt)
		r.Top += pad * wt / (wb + wt)
	case cur > target:
		pad := h/target - w
		wl := weights[types.EdgeLeft]
		wr := weights[types.EdgeRight]
		if wl+wr == 0 {
			return r
		}
		r.Left -= pad * wl / (wl + wr)
		r.Right += pad * wr / (wl + wr)
	}
	return r
}

func unionSelected(full []types.Rect, selected []bool) (types.Rect, bool) {
	var uni types.Rect
	found := false
	for i, r := range full {
		if !selected[i] {
			continue
		}
		if !found {
			uni = r
			found = true
		} else {
			uni = uni.Union(r)
		}
	}
	return uni, found
}
