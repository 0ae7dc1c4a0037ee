package types

import "testing"

func TestRectGeometry(t *testing.T) {
	r := Rect{Left: 10, Bottom: 20, Right: 110, Top: 220}
	if r.Width() != 100 {
		t.Errorf("Width = %v, want 100", r.Width())
	}
	if r.Height() != 200 {
		t.Errorf("Height = %v, want 200", r.Height())
	}
	if !r.Valid() {
		t.Error("expected rect to be valid")
	}
	if (Rect{Left: 5, Right: 4, Bottom: 0, Top: 1}).Valid() {
		t.Error("reversed rect reported valid")
	}
}

func TestRectIntersectUnion(t *testing.T) {
	a := Rect{Left: 0, Bottom: 0, Right: 100, Top: 100}
	b := Rect{Left: 50, Bottom: -20, Right: 150, Top: 80}

	got := a.Intersect(b)
	want := Rect{Left: 50, Bottom: 0, Right: 100, Top: 80}
	if got != want {
		t.Errorf("Intersect = %+v, want %+v", got, want)
	}

	got = a.Union(b)
	want = Rect{Left: 0, Bottom: -20, Right: 150, Top: 100}
	if got != want {
		t.Errorf("Union = %+v, want %+v", got, want)
	}
}

func TestRectInset(t *testing.T) {
	r := Rect{Left: 0, Bottom: 0, Right: 100, Top: 100}
	got := r.Inset(Quad{10, 5, 20, 15})
	want := Rect{Left: 10, Bottom: 5, Right: 80, Top: 85}
	if got != want {
		t.Errorf("Inset = %+v, want %+v", got, want)
	}
}

func TestUniformQuad(t *testing.T) {
	q := Uniform(3.5)
	for e, v := range q {
		if v != 3.5 {
			t.Errorf("edge %d = %v, want 3.5", e, v)
		}
	}
}
