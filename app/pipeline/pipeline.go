// Package pipeline runs the crop operation end to end: open the document,
// find content bounding boxes, compute new page boxes, write the output.
// Both the command line and the preview server drive it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"pdfcropmargins/bbox"
	"pdfcropmargins/crop"
	"pdfcropmargins/internal"
	"pdfcropmargins/types"
)

// Result reports what one run did.
type Result struct {
	InputPath  string
	OutputPath string
	// BackupPath is set when --modify-original moved the original aside.
	BackupPath string

	PageCount int
	Selected  []bool

	// FullBoxes are the pre-cropped full page boxes the crop was computed
	// against; BoundingBoxes the content boxes the engine found. Empty
	// for restore runs.
	FullBoxes     []types.Rect
	BoundingBoxes []types.Rect
	Crop          types.CropResult

	// RestoredPages counts pages reset by --restore.
	RestoredPages int
}

// ProcessFile crops (or restores) a single PDF file according to opts.
func ProcessFile(ctx context.Context, opts *types.Options) (*Result, error) {
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid options: %v", errs)
	}

	inPath := opts.InputFile

	var workDir string
	if opts.GSFix {
		gs, err := internal.FindGhostscript()
		if err != nil {
			return nil, fmt.Errorf("--gs-fix: %w", err)
		}
		workDir, err = internal.TempWorkDir()
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(workDir)
		fixed, err := internal.GhostscriptFix(ctx, gs, inPath, workDir)
		if err != nil {
			return nil, fmt.Errorf("--gs-fix: %w", err)
		}
		slog.Debug("repaired input with ghostscript", "fixed", fixed)
		inPath = fixed
	}

	doc, err := internal.OpenDocument(inPath)
	if err != nil {
		return nil, err
	}
	n := doc.PageCount()
	if n == 0 {
		return nil, fmt.Errorf("%s has no pages", opts.InputFile)
	}

	if opts.Restore {
		return restoreFile(doc, opts)
	}

	selected, err := crop.ParsePageSpec(opts.Pages, n)
	if err != nil {
		return nil, err
	}

	geoms, restoreBoxes, err := pageGeometries(doc, opts)
	if err != nil {
		return nil, err
	}
	fulls := make([]types.Rect, n)
	for i := range geoms {
		fulls[i] = geoms[i].Full
	}

	bboxes, err := boundingBoxes(ctx, doc, inPath, geoms, opts)
	if err != nil {
		return nil, err
	}

	result, err := crop.Compute(fulls, bboxes, selected, opts)
	if err != nil {
		return nil, err
	}

	outPath := internal.OutputPath(opts)
	if err := internal.CheckClobber(outPath, opts); err != nil {
		return nil, err
	}
	if err := doc.ApplyCrops(result.NewBoxes, restoreBoxes, selected, opts); err != nil {
		return nil, err
	}
	if err := doc.Write(outPath); err != nil {
		return nil, err
	}
	slog.Info("wrote cropped file", "path", outPath, "pages", n)

	res := &Result{
		InputPath:     opts.InputFile,
		OutputPath:    outPath,
		PageCount:     n,
		Selected:      selected,
		FullBoxes:     fulls,
		BoundingBoxes: bboxes,
		Crop:          result,
	}

	if opts.ModifyOriginal {
		backup, err := internal.DoModifyOriginal(opts.InputFile, outPath, opts)
		if err != nil {
			return nil, err
		}
		res.BackupPath = backup
		res.OutputPath = opts.InputFile
		slog.Info("replaced original", "backup", backup)
	}
	return res, nil
}

func restoreFile(doc *internal.Document, opts *types.Options) (*Result, error) {
	restored, err := doc.Restore(opts)
	if err != nil {
		return nil, err
	}
	if restored == 0 {
		return nil, fmt.Errorf("%s carries no restore data; was it cropped by this tool?", opts.InputFile)
	}
	outPath := internal.OutputPath(opts)
	if err := internal.CheckClobber(outPath, opts); err != nil {
		return nil, err
	}
	if err := doc.Write(outPath); err != nil {
		return nil, err
	}
	slog.Info("restored original boxes", "path", outPath, "pages", restored)

	res := &Result{
		InputPath:     opts.InputFile,
		OutputPath:    outPath,
		PageCount:     doc.PageCount(),
		RestoredPages: restored,
	}
	if opts.ModifyOriginal {
		backup, err := internal.DoModifyOriginal(opts.InputFile, outPath, opts)
		if err != nil {
			return nil, err
		}
		res.BackupPath = backup
		res.OutputPath = opts.InputFile
	}
	return res, nil
}

// pageGeometries builds per-page engine geometry plus the unpre-cropped full
// boxes saved as restore data.
func pageGeometries(doc *internal.Document, opts *types.Options) ([]bbox.PageGeom, []types.Rect, error) {
	n := doc.PageCount()
	geoms := make([]bbox.PageGeom, n)
	restoreBoxes := make([]types.Rect, n)
	for i := 0; i < n; i++ {
		pb, err := doc.PageBoxes(i + 1)
		if err != nil {
			return nil, nil, err
		}
		full := internal.FullBox(pb, opts.FullPageBox)
		restoreBoxes[i] = full

		preCropped := full.Inset(opts.AbsolutePreCrop)
		if !preCropped.Valid() || preCropped.Width() <= 0 || preCropped.Height() <= 0 {
			slog.Warn("pre-crop larger than page, ignoring", "page", i+1)
			preCropped = full
		}

		geoms[i] = bbox.PageGeom{Render: pb.Crop, Full: preCropped}
	}
	return geoms, restoreBoxes, nil
}

func boundingBoxes(ctx context.Context, doc *internal.Document, path string, geoms []bbox.PageGeom, opts *types.Options) ([]types.Rect, error) {
	engine, err := bbox.Select(opts.CalcBB)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		fulls := make([]types.Rect, len(geoms))
		for i := range geoms {
			fulls[i] = geoms[i].Full
		}
		slog.Debug("bounding boxes from page boxes")
		return doc.PageBoxBBoxes(fulls)
	}
	slog.Debug("computing bounding boxes", "engine", engine.Name())
	return engine.BoundingBoxes(ctx, path, geoms, opts)
}
