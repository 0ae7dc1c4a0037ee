package api

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	xdraw "golang.org/x/image/draw"

	"pdfcropmargins/app/pipeline"
	"pdfcropmargins/bbox"
	"pdfcropmargins/types"
)

const (
	previewDPI      = 96
	maxPreviewWidth = 1600
)

// CheckHandler serves the health probe.
type CheckHandler struct{}

func NewCheckHandler() *CheckHandler { return &CheckHandler{} }

func (h CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": "ok"})
}

// PreviewHandler exposes one document's crop session: page images of the
// original and the cropped output, crop geometry, and re-cropping with
// adjusted options.
type PreviewHandler struct {
	mu       sync.Mutex
	baseOpts types.Options
	renderer bbox.Renderer
	last     *pipeline.Result
}

func NewPreviewHandler(opts types.Options, renderer bbox.Renderer, first *pipeline.Result) *PreviewHandler {
	return &PreviewHandler{
		baseOpts: opts,
		renderer: renderer,
		last:     first,
	}
}

// HandleInfo reports the current crop state.
func (h *PreviewHandler) HandleInfo(c *fiber.Ctx) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	res := h.last
	return c.JSON(fiber.Map{
		"input":       res.InputPath,
		"output":      res.OutputPath,
		"pages":       res.PageCount,
		"delta_pages": res.Crop.DeltaPages,
		"full_boxes":  res.FullBoxes,
		"bboxes":      res.BoundingBoxes,
		"new_boxes":   res.Crop.NewBoxes,
	})
}

// HandlePage renders one page of the original or the cropped document as
// PNG. Query params: doc=original|cropped (default cropped), width.
func (h *PreviewHandler) HandlePage(c *fiber.Ctx) error {
	pageNr, err := strconv.Atoi(c.Params("n"))
	if err != nil {
		return NewError(fiber.StatusBadRequest, "bad page number")
	}

	h.mu.Lock()
	path := h.last.OutputPath
	if c.Query("doc") == "original" {
		path = h.last.InputPath
	}
	pages := h.last.PageCount
	h.mu.Unlock()

	if pageNr < 1 || pageNr > pages {
		return ErrNotFound(fmt.Sprintf("page %d", pageNr))
	}

	img, err := h.renderer.RenderPage(c.Context(), path, pageNr, previewDPI)
	if err != nil {
		return err
	}

	if w := c.QueryInt("width"); w > 0 {
		img = scaleToWidth(img, min(w, maxPreviewWidth))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

// CropParams are the option overrides accepted by HandleCrop. Pointer fields
// left null keep the value of the command-line run.
type CropParams struct {
	PercentRetain  *float64    `json:"percent_retain" validate:"omitempty,gte=-100"`
	PercentRetain4 *[4]float64 `json:"percent_retain4"`
	AbsoluteOffset *float64    `json:"absolute_offset"`
	Uniform        *bool       `json:"uniform"`
	SamePageSize   *bool       `json:"same_page_size"`
	EvenOdd        *bool       `json:"evenodd"`
	PercentText    *bool       `json:"percent_text"`
	CropSafe       *bool       `json:"crop_safe"`
	Threshold      *int        `json:"threshold" validate:"omitempty,min=0,max=255"`
	NumBlurs       *int        `json:"num_blurs" validate:"omitempty,min=0"`
	NumSmooths     *int        `json:"num_smooths" validate:"omitempty,min=0"`
	Pages          *string     `json:"pages"`
}

// HandleCrop re-runs the crop with the posted overrides and returns the new
// state.
func (h *PreviewHandler) HandleCrop(c *fiber.Ctx) error {
	var params CropParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	opts := h.baseOpts
	applyOverrides(&opts, &params)
	if errs := opts.Validate(); len(errs) > 0 {
		return NewValidationError(errs)
	}

	res, err := pipeline.ProcessFile(c.Context(), &opts)
	if err != nil {
		return err
	}
	h.baseOpts = opts
	h.last = res

	return c.JSON(fiber.Map{
		"output":      res.OutputPath,
		"pages":       res.PageCount,
		"delta_pages": res.Crop.DeltaPages,
		"new_boxes":   res.Crop.NewBoxes,
	})
}

func applyOverrides(opts *types.Options, p *CropParams) {
	if p.PercentRetain != nil {
		opts.PercentRetain = types.Uniform(*p.PercentRetain)
	}
	if p.PercentRetain4 != nil {
		opts.PercentRetain = types.Quad(*p.PercentRetain4)
	}
	if p.AbsoluteOffset != nil {
		opts.AbsoluteOffset = types.Uniform(*p.AbsoluteOffset)
	}
	if p.Uniform != nil {
		opts.Uniform = *p.Uniform
	}
	if p.SamePageSize != nil {
		opts.SamePageSize = *p.SamePageSize
	}
	if p.EvenOdd != nil {
		opts.EvenOdd = *p.EvenOdd
	}
	if p.PercentText != nil {
		opts.PercentText = *p.PercentText
	}
	if p.CropSafe != nil {
		opts.CropSafe = *p.CropSafe
	}
	if p.Threshold != nil {
		opts.Threshold = *p.Threshold
	}
	if p.NumBlurs != nil {
		opts.NumBlurs = *p.NumBlurs
	}
	if p.NumSmooths != nil {
		opts.NumSmooths = *p.NumSmooths
	}
	if p.Pages != nil {
		opts.Pages = *p.Pages
	}
}

func scaleToWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() <= width {
		return img
	}
	height := b.Dy() * width / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
