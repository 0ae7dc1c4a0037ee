package types

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Box letters accepted by --full-page-box and --boxes-to-set.
const (
	BoxMedia = "m"
	BoxCrop  = "c"
	BoxTrim  = "t"
	BoxArt   = "a"
	BoxBleed = "b"
)

// Bounding box engine selectors for --calcbb.
const (
	CalcBBDefault   = "d"
	CalcBBMuPDF     = "m"
	CalcBBGsRender  = "gr"
	CalcBBGsBBox    = "gb"
	CalcBBPageBoxes = "o"
)

// Options is the resolved option set for one run. Quadruple-valued margin
// options are stored with all four edges populated; the single-value flag
// forms fan out into all four.
type Options struct {
	InputFile  string `validate:"required"`
	OutputFile string

	PercentRetain   Quad
	PercentText     bool
	AbsoluteOffset  Quad
	AbsolutePreCrop Quad

	Uniform          bool
	UniformOrderStat [4]int
	EvenOdd          bool
	SamePageSize     bool

	CropSafe    bool
	CropSafeMin Quad

	Pages string

	// PageRatio is the target height/width ratio, 0 when unset.
	PageRatio        float64 `validate:"min=0"`
	PageRatioWeights Quad

	CalcBB     string `validate:"oneof=d m gr gb o"`
	Threshold  int    `validate:"min=0,max=255"`
	NumBlurs   int    `validate:"min=0"`
	NumSmooths int    `validate:"min=0"`
	ResX       int    `validate:"min=1"`
	ResY       int    `validate:"min=1"`

	FullPageBox []string `validate:"dive,oneof=m c t a b"`
	BoxesToSet  []string `validate:"dive,oneof=m c t a b"`

	Restore    bool
	NoUndoSave bool

	ModifyOriginal  bool
	NoClobber       bool
	UsePrefix       bool
	StringCropped   string `validate:"required"`
	StringUncropped string `validate:"required"`
	StringSeparator string

	Preview   string
	ServeAddr string

	GSFix   bool
	Verbose bool
	Quiet   bool
}

// DefaultOptions mirrors the defaults of the original command-line tool.
func DefaultOptions() Options {
	return Options{
		PercentRetain:    Uniform(10),
		PageRatioWeights: Uniform(1),
		CalcBB:           CalcBBDefault,
		Threshold:        191,
		ResX:             150,
		ResY:             150,
		FullPageBox:      []string{BoxMedia, BoxCrop},
		BoxesToSet:       []string{BoxCrop},
		StringCropped:    "cropped",
		StringUncropped:  "uncropped",
		StringSeparator:  "_",
	}
}

// Validate checks the option set and returns a map of field name to problem,
// empty on success. Structural rules come from validator tags, cross-field
// rules are checked by hand.
func (o *Options) Validate() map[string]string {
	errs := make(map[string]string)

	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			errs[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
	}

	for i, n := range o.UniformOrderStat {
		if n < 0 {
			errs["UniformOrderStat"] = fmt.Sprintf("edge %d: order statistic must be >= 0", i)
		}
	}
	for i, w := range o.PageRatioWeights {
		if w < 0 {
			errs["PageRatioWeights"] = fmt.Sprintf("edge %d: weight must be >= 0", i)
		}
	}
	if o.PageRatio != 0 && o.PageRatioWeights[EdgeLeft]+o.PageRatioWeights[EdgeRight] == 0 &&
		o.PageRatioWeights[EdgeBottom]+o.PageRatioWeights[EdgeTop] == 0 {
		errs["PageRatioWeights"] = "all weights are zero"
	}
	if o.Restore && o.NoUndoSave {
		errs["Restore"] = "cannot combine restore with no-undo-save"
	}
	if o.OutputFile != "" && o.ModifyOriginal {
		errs["OutputFile"] = "cannot combine an explicit outfile with modify-original"
	}
	for _, q := range [...]Quad{o.CropSafeMin} {
		for i, v := range q {
			if v < 0 {
				errs["CropSafeMin"] = fmt.Sprintf("edge %d: minimum margin must be >= 0", i)
			}
		}
	}
	return errs
}

// OrderStatActive reports whether any edge has a nonzero uniforming order
// statistic. A nonzero order statistic implies uniform cropping.
func (o *Options) OrderStatActive() bool {
	for _, n := range o.UniformOrderStat {
		if n > 0 {
			return true
		}
	}
	return false
}

// UniformActive reports whether margins are uniformed across pages, whatever
// option implied it.
func (o *Options) UniformActive() bool {
	return o.Uniform || o.EvenOdd || o.OrderStatActive()
}

// WatchConfigFromEnv builds the directory batch mode configuration from the
// PDFCROPMARGINS_* environment, applying defaults for unset keys.
func WatchConfigFromEnv() WatchConfig {
	cfg := WatchConfig{
		SourceDir:      envOr("PDFCROPMARGINS_WATCH_SOURCE_DIR", "incoming"),
		OutputDir:      envOr("PDFCROPMARGINS_WATCH_OUTPUT_DIR", "cropped"),
		BadDir:         envOr("PDFCROPMARGINS_WATCH_BAD_DIR", "bad"),
		MonitoringTime: 3 * time.Second,
	}
	if s := os.Getenv("PDFCROPMARGINS_WATCH_MONITORING_SECONDS"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			cfg.MonitoringTime = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
