package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"pdfcropmargins/types"
)

// restoreKey is the private page dictionary key holding the pre-crop box, so
// a later --restore run can undo the crop. Its presence marks a page as
// cropped by this tool.
const restoreKey = "PdfCropMarginsRestore"

// Document wraps an open pdfcpu context.
type Document struct {
	Path string
	ctx  *model.Context
}

// OpenDocument reads and parses a PDF file via pdfcpu.
func OpenDocument(path string) (*Document, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &Document{Path: path, ctx: ctx}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.ctx.PageCount }

// PageBoxes returns the effective boxes of the 1-based page, with MediaBox
// and CropBox inheritance resolved by pdfcpu.
func (d *Document) PageBoxes(pageNr int) (types.PageBoxes, error) {
	dict, _, inh, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return types.PageBoxes{}, fmt.Errorf("page %d: %w", pageNr, err)
	}
	if dict == nil {
		return types.PageBoxes{}, fmt.Errorf("page %d: no page dictionary", pageNr)
	}

	var pb types.PageBoxes
	if inh.MediaBox != nil {
		pb.Media = fromPDFRect(inh.MediaBox)
	}
	if inh.CropBox != nil {
		pb.Crop = fromPDFRect(inh.CropBox)
	} else {
		pb.Crop = pb.Media
	}
	pb.Trim = d.optionalBox(dict, "TrimBox")
	pb.Art = d.optionalBox(dict, "ArtBox")
	pb.Bleed = d.optionalBox(dict, "BleedBox")
	return pb, nil
}

// FullBox resolves the --full-page-box selection for one page: the
// intersection of the chosen boxes, missing boxes falling back to the crop
// box.
func FullBox(pb types.PageBoxes, selectors []string) types.Rect {
	full := pb.Media
	first := true
	pick := func(r types.Rect) {
		if first {
			full = r
			first = false
		} else {
			full = full.Intersect(r)
		}
	}
	for _, s := range selectors {
		switch s {
		case types.BoxMedia:
			pick(pb.Media)
		case types.BoxCrop:
			pick(pb.Crop)
		case types.BoxTrim:
			if pb.Trim != nil {
				pick(*pb.Trim)
			} else {
				pick(pb.Crop)
			}
		case types.BoxArt:
			if pb.Art != nil {
				pick(*pb.Art)
			} else {
				pick(pb.Crop)
			}
		case types.BoxBleed:
			if pb.Bleed != nil {
				pick(*pb.Bleed)
			} else {
				pick(pb.Crop)
			}
		}
	}
	return full
}

// PageBoxBBoxes serves the --calcbb=o mode: the content bounding box is taken
// from the page's TrimBox or ArtBox when present, else the full box stands.
func (d *Document) PageBoxBBoxes(fullBoxes []types.Rect) ([]types.Rect, error) {
	boxes := make([]types.Rect, d.PageCount())
	for i := range boxes {
		pb, err := d.PageBoxes(i + 1)
		if err != nil {
			return nil, err
		}
		switch {
		case pb.Trim != nil:
			boxes[i] = pb.Trim.Intersect(fullBoxes[i])
		case pb.Art != nil:
			boxes[i] = pb.Art.Intersect(fullBoxes[i])
		default:
			boxes[i] = fullBoxes[i]
		}
	}
	return boxes, nil
}

// ApplyCrops sets the boxes named by --boxes-to-set on every selected page
// and, unless noUndoSave, records the page's previous full box under the
// restore key (and in ArtBox when the document leaves it unused).
func (d *Document) ApplyCrops(newBoxes, oldFullBoxes []types.Rect, selected []bool, opts *types.Options) error {
	for i := range newBoxes {
		if !selected[i] {
			continue
		}
		dict, _, _, err := d.ctx.PageDict(i+1, false)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}

		if !opts.NoUndoSave {
			old := oldFullBoxes[i]
			if _, found := dict.Find(restoreKey); !found {
				dict.Update(restoreKey, numberArray(old))
			}
			if _, found := dict.Find("ArtBox"); !found {
				dict.Update("ArtBox", numberArray(old))
			}
		}

		for _, b := range opts.BoxesToSet {
			dict.Update(boxKeyName(b), numberArray(newBoxes[i]))
		}
	}
	return nil
}

// Restore undoes a previous crop: every page carrying restore data gets the
// boxes named by --boxes-to-set reset to the saved rectangle. Returns how
// many pages were restored.
func (d *Document) Restore(opts *types.Options) (int, error) {
	restored := 0
	for i := 0; i < d.PageCount(); i++ {
		dict, _, _, err := d.ctx.PageDict(i+1, false)
		if err != nil {
			return restored, fmt.Errorf("page %d: %w", i+1, err)
		}
		obj, found := dict.Find(restoreKey)
		if !found {
			continue
		}
		arr, err := d.ctx.DereferenceArray(obj)
		if err != nil {
			return restored, fmt.Errorf("page %d: bad restore data: %w", i+1, err)
		}
		saved, err := rectFromArray(arr)
		if err != nil {
			return restored, fmt.Errorf("page %d: bad restore data: %w", i+1, err)
		}
		for _, b := range opts.BoxesToSet {
			dict.Update(boxKeyName(b), numberArray(saved))
		}
		dict.Delete(restoreKey)
		restored++
	}
	return restored, nil
}

// WasCropped reports whether any page carries restore data from an earlier
// run.
func (d *Document) WasCropped() bool {
	for i := 0; i < d.PageCount(); i++ {
		dict, _, _, err := d.ctx.PageDict(i+1, false)
		if err != nil {
			continue
		}
		if _, found := dict.Find(restoreKey); found {
			return true
		}
	}
	return false
}

// Write validates and writes the (possibly modified) document.
func (d *Document) Write(outPath string) error {
	if err := api.WriteContextFile(d.ctx, outPath); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

func (d *Document) optionalBox(dict pdftypes.Dict, key string) *types.Rect {
	obj, found := dict.Find(key)
	if !found {
		return nil
	}
	arr, err := d.ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}
	r, err := rectFromArray(arr)
	if err != nil {
		return nil
	}
	return &r
}

func fromPDFRect(r *pdftypes.Rectangle) types.Rect {
	return types.Rect{Left: r.LL.X, Bottom: r.LL.Y, Right: r.UR.X, Top: r.UR.Y}
}

func numberArray(r types.Rect) pdftypes.Array {
	return pdftypes.NewNumberArray(r.Left, r.Bottom, r.Right, r.Top)
}

func rectFromArray(arr pdftypes.Array) (types.Rect, error) {
	if len(arr) != 4 {
		return types.Rect{}, fmt.Errorf("expected 4 numbers, got %d", len(arr))
	}
	var vals [4]float64
	for i, obj := range arr {
		switch v := obj.(type) {
		case pdftypes.Integer:
			vals[i] = float64(v.Value())
		case pdftypes.Float:
			vals[i] = v.Value()
		default:
			return types.Rect{}, fmt.Errorf("non-numeric box entry %v", obj)
		}
	}
	// Normalize: PDF allows boxes with swapped corners.
	r := types.Rect{Left: vals[0], Bottom: vals[1], Right: vals[2], Top: vals[3]}
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Bottom > r.Top {
		r.Bottom, r.Top = r.Top, r.Bottom
	}
	return r, nil
}

func boxKeyName(sel string) string {
	switch sel {
	case types.BoxMedia:
		return "MediaBox"
	case types.BoxCrop:
		return "CropBox"
	case types.BoxTrim:
		return "TrimBox"
	case types.BoxArt:
		return "ArtBox"
	case types.BoxBleed:
		return "BleedBox"
	}
	return "CropBox"
}

// OutputPath derives the output file name from the input name and the naming
// options, unless an explicit outfile was given.
func OutputPath(opts *types.Options) string {
	if opts.OutputFile != "" {
		return opts.OutputFile
	}
	word := opts.StringCropped
	if opts.Restore {
		word = opts.StringUncropped
	}
	return decoratedName(opts.InputFile, word, opts.StringSeparator, opts.UsePrefix)
}

func decoratedName(path, word, sep string, prefix bool) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	root := strings.TrimSuffix(base, ext)
	if prefix {
		return filepath.Join(dir, word+sep+root+ext)
	}
	return filepath.Join(dir, root+sep+word+ext)
}

// CheckClobber returns an error when path exists and --no-clobber is set.
func CheckClobber(path string, opts *types.Options) error {
	if !opts.NoClobber {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s exists and no-clobber is set", path)
	}
	return nil
}

// DoModifyOriginal backs the original file up and moves the output into its
// place. The backup carries the opposite naming word of the output: a crop
// run backs the original up as uncropped, a restore run backs the cropped
// file up as cropped. Otherwise the backup rename would land on the restore
// output (which is named with the uncropped word) and clobber it.
func DoModifyOriginal(inPath, outPath string, opts *types.Options) (string, error) {
	word := opts.StringUncropped
	if opts.Restore {
		word = opts.StringCropped
	}
	backup := decoratedName(inPath, word, opts.StringSeparator, opts.UsePrefix)
	if backup == outPath {
		return "", fmt.Errorf("backup name %s collides with the output; use different naming words", backup)
	}
	if err := CheckClobber(backup, opts); err != nil {
		return "", err
	}
	if err := os.Rename(inPath, backup); err != nil {
		return "", fmt.Errorf("backing up original: %w", err)
	}
	if err := os.Rename(outPath, inPath); err != nil {
		return "", fmt.Errorf("moving cropped file into place: %w", err)
	}
	return backup, nil
}
