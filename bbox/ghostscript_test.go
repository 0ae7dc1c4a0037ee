package bbox

import (
	"math"
	"testing"

	"pdfcropmargins/types"
)

func TestParseBBoxOutputHiResPreferred(t *testing.T) {
	out := []byte(`GPL Ghostscript 10.02.1
%%BoundingBox: 14 37 570 719
%%HiResBoundingBox: 14.308594 37.547461 569.495117 718.319824
%%BoundingBox: 0 0 612 792
%%HiResBoundingBox: 0.000000 0.000000 611.719971 791.279968
`)
	boxes, err := parseBBoxOutput(out)
	if err != nil {
		t.Fatalf("parseBBoxOutput: %v", err)
	}
	if len(boxes) != 2 {
		t.Fatalf("got %d boxes, want 2", len(boxes))
	}

	want := []types.Rect{
		{Left: 14.308594, Bottom: 37.547461, Right: 569.495117, Top: 718.319824},
		{Left: 0, Bottom: 0, Right: 611.719971, Top: 791.279968},
	}
	for i := range want {
		if !nearRect(boxes[i], want[i]) {
			t.Errorf("page %d: got %+v, want hi-res %+v", i+1, boxes[i], want[i])
		}
	}
}

func TestParseBBoxOutputIntegerOnly(t *testing.T) {
	out := []byte("%%BoundingBox: 10 20 300 400\n")
	boxes, err := parseBBoxOutput(out)
	if err != nil {
		t.Fatalf("parseBBoxOutput: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("got %d boxes, want 1", len(boxes))
	}
	want := types.Rect{Left: 10, Bottom: 20, Right: 300, Top: 400}
	if !nearRect(boxes[0], want) {
		t.Errorf("got %+v, want %+v", boxes[0], want)
	}
}

func TestParseBBoxOutputErrors(t *testing.T) {
	if _, err := parseBBoxOutput([]byte("no boxes here\n")); err == nil {
		t.Error("expected error for output without bounding boxes")
	}
	if _, err := parseBBoxOutput([]byte("%%BoundingBox: 1 2 3\n")); err == nil {
		t.Error("expected error for short bounding box line")
	}
	if _, err := parseBBoxOutput([]byte("%%BoundingBox: a b c d\n")); err == nil {
		t.Error("expected error for non-numeric bounding box line")
	}
}

func TestParseBBoxLine(t *testing.T) {
	r, err := parseBBoxLine(" 1.5 2.25 300.75 400 ")
	if err != nil {
		t.Fatalf("parseBBoxLine: %v", err)
	}
	if math.Abs(r.Left-1.5) > 1e-9 || math.Abs(r.Bottom-2.25) > 1e-9 ||
		math.Abs(r.Right-300.75) > 1e-9 || math.Abs(r.Top-400) > 1e-9 {
		t.Errorf("got %+v", r)
	}
}
