package crop

import "testing"

func TestParsePageSpecEmpty(t *testing.T) {
	sel, err := ParsePageSpec("", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range sel {
		if !s {
			t.Errorf("page %d not selected by empty spec", i+1)
		}
	}
}

func TestParsePageSpec(t *testing.T) {
	tests := []struct {
		spec     string
		numPages int
		want     []bool
	}{
		{"1", 3, []bool{true, false, false}},
		{"2-3", 4, []bool{false, true, true, false}},
		{"1,3-5,8-", 10, []bool{true, false, true, true, true, false, false, true, true, true}},
		{"-2", 4, []bool{true, true, false, false}},
		{"2,2,2", 3, []bool{false, true, false}},
	}
	for _, tt := range tests {
		sel, err := ParsePageSpec(tt.spec, tt.numPages)
		if err != nil {
			t.Errorf("ParsePageSpec(%q, %d): unexpected error: %v", tt.spec, tt.numPages, err)
			continue
		}
		for i := range tt.want {
			if sel[i] != tt.want[i] {
				t.Errorf("ParsePageSpec(%q, %d): page %d = %v, want %v",
					tt.spec, tt.numPages, i+1, sel[i], tt.want[i])
			}
		}
	}
}

func TestParsePageSpecErrors(t *testing.T) {
	bad := []struct {
		spec     string
		numPages int
	}{
		{"0", 3},
		{"4", 3},
		{"5-2", 10},
		{"x", 3},
		{"1,,3", 3},
		{"1-20", 10},
	}
	for _, tt := range bad {
		if _, err := ParsePageSpec(tt.spec, tt.numPages); err == nil {
			t.Errorf("ParsePageSpec(%q, %d): expected error, got none", tt.spec, tt.numPages)
		}
	}
}
