package internal

import (
	"os"
	"path/filepath"
	"testing"

	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"pdfcropmargins/types"
)

func TestOutputPathNaming(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*types.Options)
		in   string
		want string
	}{
		{
			name: "default suffix",
			mut:  func(o *types.Options) {},
			in:   filepath.Join("docs", "paper.pdf"),
			want: filepath.Join("docs", "paper_cropped.pdf"),
		},
		{
			name: "prefix",
			mut:  func(o *types.Options) { o.UsePrefix = true },
			in:   "paper.pdf",
			want: "cropped_paper.pdf",
		},
		{
			name: "restore uses the uncropped word",
			mut:  func(o *types.Options) { o.Restore = true },
			in:   "paper.pdf",
			want: "paper_uncropped.pdf",
		},
		{
			name: "custom word and separator",
			mut: func(o *types.Options) {
				o.StringCropped = "crop"
				o.StringSeparator = "-"
			},
			in:   "paper.pdf",
			want: "paper-crop.pdf",
		},
		{
			name: "explicit outfile wins",
			mut:  func(o *types.Options) { o.OutputFile = "out.pdf" },
			in:   "paper.pdf",
			want: "out.pdf",
		},
		{
			name: "no extension",
			mut:  func(o *types.Options) {},
			in:   "paper",
			want: "paper_cropped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := types.DefaultOptions()
			tt.mut(&opts)
			opts.InputFile = tt.in
			if got := OutputPath(&opts); got != tt.want {
				t.Errorf("OutputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRectFromArray(t *testing.T) {
	arr := pdftypes.NewNumberArray(10, 20, 300, 400)
	r, err := rectFromArray(arr)
	if err != nil {
		t.Fatalf("rectFromArray: %v", err)
	}
	want := types.Rect{Left: 10, Bottom: 20, Right: 300, Top: 400}
	if r != want {
		t.Errorf("got %+v, want %+v", r, want)
	}
}

func TestRectFromArrayNormalizesCorners(t *testing.T) {
	arr := pdftypes.NewNumberArray(300, 400, 10, 20)
	r, err := rectFromArray(arr)
	if err != nil {
		t.Fatalf("rectFromArray: %v", err)
	}
	want := types.Rect{Left: 10, Bottom: 20, Right: 300, Top: 400}
	if r != want {
		t.Errorf("got %+v, want normalized %+v", r, want)
	}
}

func TestRectFromArrayErrors(t *testing.T) {
	if _, err := rectFromArray(pdftypes.NewNumberArray(1, 2, 3)); err == nil {
		t.Error("expected error for short array")
	}
	bad := pdftypes.Array{pdftypes.Integer(1), pdftypes.Integer(2), pdftypes.Integer(3), pdftypes.StringLiteral("x")}
	if _, err := rectFromArray(bad); err == nil {
		t.Error("expected error for non-numeric entry")
	}
}

func TestBoxKeyName(t *testing.T) {
	tests := map[string]string{
		types.BoxMedia: "MediaBox",
		types.BoxCrop:  "CropBox",
		types.BoxTrim:  "TrimBox",
		types.BoxArt:   "ArtBox",
		types.BoxBleed: "BleedBox",
		"junk":         "CropBox",
	}
	for sel, want := range tests {
		if got := boxKeyName(sel); got != want {
			t.Errorf("boxKeyName(%q) = %q, want %q", sel, got, want)
		}
	}
}

func TestFullBoxIntersectsSelection(t *testing.T) {
	pb := types.PageBoxes{
		Media: types.Rect{Left: 0, Bottom: 0, Right: 612, Top: 792},
		Crop:  types.Rect{Left: 10, Bottom: 10, Right: 600, Top: 780},
		Trim:  &types.Rect{Left: 20, Bottom: 0, Right: 590, Top: 792},
	}

	got := FullBox(pb, []string{types.BoxMedia, types.BoxCrop})
	want := types.Rect{Left: 10, Bottom: 10, Right: 600, Top: 780}
	if got != want {
		t.Errorf("media+crop: got %+v, want %+v", got, want)
	}

	got = FullBox(pb, []string{types.BoxCrop, types.BoxTrim})
	want = types.Rect{Left: 20, Bottom: 10, Right: 590, Top: 780}
	if got != want {
		t.Errorf("crop+trim: got %+v, want %+v", got, want)
	}

	// Missing boxes fall back to the crop box.
	got = FullBox(pb, []string{types.BoxArt})
	if got != pb.Crop {
		t.Errorf("missing art box: got %+v, want crop box %+v", got, pb.Crop)
	}

	// No selectors keeps the media box.
	got = FullBox(pb, nil)
	if got != pb.Media {
		t.Errorf("no selectors: got %+v, want media box %+v", got, pb.Media)
	}
}

func TestDoModifyOriginalCrop(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "paper.pdf")
	out := filepath.Join(dir, "paper_cropped.pdf")
	mustWrite(t, in, "ORIGINAL")
	mustWrite(t, out, "CROPPED")

	opts := types.DefaultOptions()
	opts.InputFile = in
	backup, err := DoModifyOriginal(in, out, &opts)
	if err != nil {
		t.Fatalf("DoModifyOriginal: %v", err)
	}
	if want := filepath.Join(dir, "paper_uncropped.pdf"); backup != want {
		t.Errorf("backup = %s, want %s", backup, want)
	}
	if got := mustRead(t, in); got != "CROPPED" {
		t.Errorf("original now holds %q, want the cropped content", got)
	}
	if got := mustRead(t, backup); got != "ORIGINAL" {
		t.Errorf("backup holds %q, want the original content", got)
	}
}

// A restore run writes its output under the uncropped name, so the backup of
// the still-cropped original must use a different word or it would clobber
// the restored file.
func TestDoModifyOriginalRestore(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "paper.pdf")
	mustWrite(t, in, "STILL-CROPPED")

	opts := types.DefaultOptions()
	opts.InputFile = in
	opts.Restore = true

	out := OutputPath(&opts)
	if want := filepath.Join(dir, "paper_uncropped.pdf"); out != want {
		t.Fatalf("restore output = %s, want %s", out, want)
	}
	mustWrite(t, out, "RESTORED")

	backup, err := DoModifyOriginal(in, out, &opts)
	if err != nil {
		t.Fatalf("DoModifyOriginal: %v", err)
	}
	if backup == out {
		t.Fatal("backup path equals the restore output; restored file would be lost")
	}
	if got := mustRead(t, in); got != "RESTORED" {
		t.Errorf("original now holds %q, want the restored content", got)
	}
	if got := mustRead(t, backup); got != "STILL-CROPPED" {
		t.Errorf("backup holds %q, want the cropped content", got)
	}
}

func TestDoModifyOriginalNameCollision(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "paper.pdf")
	mustWrite(t, in, "ORIGINAL")

	opts := types.DefaultOptions()
	opts.InputFile = in
	opts.Restore = true
	// Same word for both directions forces the backup onto the output name.
	opts.StringCropped = "done"
	opts.StringUncropped = "done"

	out := filepath.Join(dir, "paper_done.pdf")
	mustWrite(t, out, "OUTPUT")

	if _, err := DoModifyOriginal(in, out, &opts); err == nil {
		t.Fatal("expected error for backup/output name collision")
	}
	if got := mustRead(t, out); got != "OUTPUT" {
		t.Errorf("output was touched despite the collision, holds %q", got)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCheckClobber(t *testing.T) {
	opts := types.DefaultOptions()
	existing := filepath.Join(t.TempDir(), "out.pdf")
	if err := os.WriteFile(existing, []byte("%PDF-1.4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CheckClobber(existing, &opts); err != nil {
		t.Errorf("clobber allowed by default, got error: %v", err)
	}

	opts.NoClobber = true
	if err := CheckClobber(existing, &opts); err == nil {
		t.Error("expected error for existing file with no-clobber")
	}
	if err := CheckClobber(filepath.Join(t.TempDir(), "missing.pdf"), &opts); err != nil {
		t.Errorf("no-clobber on missing file, got error: %v", err)
	}
}
