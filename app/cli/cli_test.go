package cli

import (
	"math"
	"testing"

	"github.com/urfave/cli/v3"

	"pdfcropmargins/types"
)

func TestParseQuad(t *testing.T) {
	tests := []struct {
		in   string
		want types.Quad
	}{
		{"5", types.Uniform(5)},
		{"1 2 3 4", types.Quad{1, 2, 3, 4}},
		{"1,2,3,4", types.Quad{1, 2, 3, 4}},
		{" 0.5  -1  2.25  3 ", types.Quad{0.5, -1, 2.25, 3}},
	}
	for _, tt := range tests {
		got, err := parseQuad(tt.in)
		if err != nil {
			t.Errorf("parseQuad(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseQuad(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseQuadErrors(t *testing.T) {
	for _, in := range []string{"", "1 2", "1 2 3 4 5", "a b c d"} {
		if _, err := parseQuad(in); err == nil {
			t.Errorf("parseQuad(%q): expected error", in)
		}
	}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.414", 1.414},
		{"297/210", 297.0 / 210.0},
		{"2 / 3", 2.0 / 3.0},
	}
	for _, tt := range tests {
		got, err := parseRatio(tt.in)
		if err != nil {
			t.Errorf("parseRatio(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("parseRatio(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRatioErrors(t *testing.T) {
	for _, in := range []string{"", "0", "-1.5", "1/0", "a/b", "x"} {
		if _, err := parseRatio(in); err == nil {
			t.Errorf("parseRatio(%q): expected error", in)
		}
	}
}

func TestFlagDefaultsMatchOptions(t *testing.T) {
	d := types.DefaultOptions()
	wantInts := map[string]int{
		"threshold": d.Threshold,
		"res-x":     d.ResX,
		"res-y":     d.ResY,
	}
	for _, f := range flags() {
		intFlag, ok := f.(*cli.IntFlag)
		if !ok {
			continue
		}
		want, tracked := wantInts[intFlag.Name]
		if !tracked {
			continue
		}
		if intFlag.Value != want {
			t.Errorf("flag %s default = %d, want %d", intFlag.Name, intFlag.Value, want)
		}
		delete(wantInts, intFlag.Name)
	}
	for name := range wantInts {
		t.Errorf("flag %s missing from flag set", name)
	}
}

// -v must always mean --verbose; a second flag claiming the shorthand (like
// an auto-added version flag) would shadow it.
func TestShortFlagsUnique(t *testing.T) {
	cmd := newCommand()
	if cmd.Version != "" {
		t.Error("command version field set; it would add a version flag owning -v")
	}

	owners := make(map[string][]string)
	for _, f := range cmd.Flags {
		names := f.Names()
		if len(names) == 0 {
			continue
		}
		for _, alias := range names[1:] {
			owners[alias] = append(owners[alias], names[0])
		}
	}
	for alias, flagNames := range owners {
		if len(flagNames) > 1 {
			t.Errorf("shorthand -%s claimed by %v", alias, flagNames)
		}
	}
	if got := owners["v"]; len(got) != 1 || got[0] != "verbose" {
		t.Errorf("-v owned by %v, want [verbose]", got)
	}
}

func TestFormatErrsSorted(t *testing.T) {
	got := formatErrs(map[string]string{
		"Zeta":  "bad",
		"Alpha": "worse",
	})
	want := "Alpha: worse; Zeta: bad"
	if got != want {
		t.Errorf("formatErrs = %q, want %q", got, want)
	}
}
