// Package cli defines the command-line surface shared by the pdfcropmargins
// and pdf-crop-margins binaries.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"pdfcropmargins/app/pipeline"
	"pdfcropmargins/app/server"
	"pdfcropmargins/internal"
	"pdfcropmargins/service"
	"pdfcropmargins/types"
)

const version = "1.0.0"

// Execute runs the command line and exits the process on failure.
func Execute() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pdfcropmargins:", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	// The Version field is deliberately unset: the auto-added version flag
	// would claim -v, which belongs to --verbose. --version is a plain flag
	// handled in run instead.
	return &cli.Command{
		Name:      "pdfcropmargins",
		Usage:     "crop the whitespace margins of PDF files",
		ArgsUsage: "PDF_FILE",
		Flags:     flags(),
		Action:    run,
	}
}

func flags() []cli.Flag {
	d := types.DefaultOptions()
	return []cli.Flag{
		&cli.FloatFlag{Name: "percent-retain", Aliases: []string{"p"}, Value: d.PercentRetain[0],
			Usage: "percent of existing margins to retain"},
		&cli.StringFlag{Name: "percent-retain4", Aliases: []string{"p4"},
			Usage: "per-edge percents to retain, \"LEFT BOTTOM RIGHT TOP\""},
		&cli.FloatFlag{Name: "absolute-offset", Aliases: []string{"a"},
			Usage: "offset crop edges outward by this many points"},
		&cli.StringFlag{Name: "absolute-offset4", Aliases: []string{"a4"},
			Usage: "per-edge absolute offsets, \"LEFT BOTTOM RIGHT TOP\""},
		&cli.FloatFlag{Name: "absolute-pre-crop", Aliases: []string{"ap"},
			Usage: "crop this many points off every edge before analysis"},
		&cli.StringFlag{Name: "absolute-pre-crop4", Aliases: []string{"ap4"},
			Usage: "per-edge pre-crop amounts, \"LEFT BOTTOM RIGHT TOP\""},
		&cli.BoolFlag{Name: "uniform", Aliases: []string{"u"},
			Usage: "crop all pages by the same amount per edge"},
		&cli.IntFlag{Name: "uniform-order-stat", Aliases: []string{"m"},
			Usage: "ignore this many of the tightest pages when uniforming (implies --uniform)"},
		&cli.StringFlag{Name: "uniform-order-stat4", Aliases: []string{"m4"},
			Usage: "per-edge order statistics, \"LEFT BOTTOM RIGHT TOP\""},
		&cli.BoolFlag{Name: "evenodd", Aliases: []string{"e"},
			Usage: "uniform even and odd pages as separate groups"},
		&cli.BoolFlag{Name: "same-page-size", Aliases: []string{"s"},
			Usage: "expand all pages to the same (union) size before cropping"},
		&cli.BoolFlag{Name: "percent-text", Aliases: []string{"pt"},
			Usage: "percentages are relative to the text size, not the margins"},
		&cli.BoolFlag{Name: "crop-safe", Aliases: []string{"cs"},
			Usage: "never crop into the content bounding box"},
		&cli.StringFlag{Name: "crop-safe-min", Aliases: []string{"csm"},
			Usage: "minimum margins kept around content with --crop-safe, \"LEFT BOTTOM RIGHT TOP\""},
		&cli.StringFlag{Name: "pages", Aliases: []string{"pg"},
			Usage: "pages to crop, e.g. \"1,4-8,10-\" (1-based)"},
		&cli.StringFlag{Name: "set-page-ratios", Aliases: []string{"spr"},
			Usage: "pad pages to this height/width ratio, e.g. \"1.414\" or \"297/210\""},
		&cli.StringFlag{Name: "page-ratio-weights", Aliases: []string{"prw"},
			Usage: "per-edge padding weights for --set-page-ratios"},
		&cli.StringFlag{Name: "calcbb", Aliases: []string{"c"}, Value: d.CalcBB,
			Usage: "bounding box engine: d(efault), m(updf), gr, gb, o"},
		&cli.IntFlag{Name: "threshold", Aliases: []string{"t"}, Value: d.Threshold,
			Usage: "gray level below which a rendered pixel counts as content"},
		&cli.IntFlag{Name: "num-blurs", Aliases: []string{"nb"},
			Usage: "blur passes before thresholding"},
		&cli.IntFlag{Name: "num-smooths", Aliases: []string{"ns"},
			Usage: "smoothing passes before thresholding"},
		&cli.IntFlag{Name: "res-x", Aliases: []string{"x"}, Value: d.ResX,
			Usage: "horizontal render resolution in DPI"},
		&cli.IntFlag{Name: "res-y", Aliases: []string{"y"}, Value: d.ResY,
			Usage: "vertical render resolution in DPI"},
		&cli.StringSliceFlag{Name: "full-page-box", Aliases: []string{"f"},
			Usage: "page box(es) defining the full page: m, c, t, a, b (repeatable, intersected)"},
		&cli.StringSliceFlag{Name: "boxes-to-set", Aliases: []string{"b"},
			Usage: "page box(es) receiving the crop: m, c, t, a, b (repeatable)"},
		&cli.BoolFlag{Name: "restore", Aliases: []string{"r"},
			Usage: "restore the boxes saved by a previous crop"},
		&cli.BoolFlag{Name: "no-undo-save", Aliases: []string{"A"},
			Usage: "do not save restore data in the output"},
		&cli.StringFlag{Name: "outfile", Aliases: []string{"o"},
			Usage: "explicit output path"},
		&cli.BoolFlag{Name: "modify-original", Aliases: []string{"mo"},
			Usage: "replace the original file, keeping a backup"},
		&cli.BoolFlag{Name: "no-clobber", Aliases: []string{"nc"},
			Usage: "never overwrite an existing output file"},
		&cli.BoolFlag{Name: "use-prefix", Aliases: []string{"pf"},
			Usage: "prefix rather than suffix the naming word"},
		&cli.StringFlag{Name: "string-cropped", Aliases: []string{"sc"}, Value: d.StringCropped,
			Usage: "word decorating cropped output names"},
		&cli.StringFlag{Name: "string-uncropped", Aliases: []string{"su"}, Value: d.StringUncropped,
			Usage: "word decorating restored/backup names"},
		&cli.StringFlag{Name: "string-separator", Aliases: []string{"ss"}, Value: d.StringSeparator,
			Usage: "separator used with the naming words"},
		&cli.StringFlag{Name: "preview", Aliases: []string{"pv"},
			Usage: "open the output with this viewer program"},
		&cli.StringFlag{Name: "serve",
			Usage: "serve a web preview on this address, e.g. localhost:8087"},
		&cli.BoolFlag{Name: "watch",
			Usage: "watch a directory and crop PDFs dropped into it (see PDFCROPMARGINS_WATCH_* env)"},
		&cli.BoolFlag{Name: "gs-fix", Aliases: []string{"gsf"},
			Usage: "repair the input with ghostscript before cropping"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "verbose output"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "errors only"},
		&cli.BoolFlag{Name: "version", Usage: "print the version and exit"},
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("version") {
		fmt.Println(cmd.Name, version)
		return nil
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	setupLogging(opts)

	if cmd.Bool("watch") {
		return service.New(types.WatchConfigFromEnv(), opts).Run(ctx)
	}

	if cmd.Args().Len() != 1 {
		return cli.Exit("exactly one input PDF file expected", 2)
	}
	opts.InputFile = cmd.Args().First()

	if errs := opts.Validate(); len(errs) > 0 {
		return cli.Exit("invalid options: "+formatErrs(errs), 2)
	}

	res, err := pipeline.ProcessFile(ctx, opts)
	if err != nil {
		return err
	}

	if opts.Verbose && !opts.Restore {
		printDeltaPages(res)
	}

	if opts.Preview != "" {
		if err := launchPreview(ctx, opts, res.OutputPath); err != nil {
			return err
		}
	}
	if opts.ServeAddr != "" {
		return servePreview(ctx, opts, res)
	}
	return nil
}

func buildOptions(cmd *cli.Command) (*types.Options, error) {
	opts := types.DefaultOptions()

	var err error
	set := func(name string, dst *types.Quad) {
		if err != nil {
			return
		}
		single := strings.TrimSuffix(name, "4")
		if cmd.IsSet(single) {
			*dst = types.Uniform(cmd.Float(single))
		}
		if cmd.IsSet(name) {
			*dst, err = parseQuad(cmd.String(name))
			if err != nil {
				err = fmt.Errorf("--%s: %w", name, err)
			}
		}
	}
	set("percent-retain4", &opts.PercentRetain)
	set("absolute-offset4", &opts.AbsoluteOffset)
	set("absolute-pre-crop4", &opts.AbsolutePreCrop)
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("uniform-order-stat") {
		n := int(cmd.Int("uniform-order-stat"))
		opts.UniformOrderStat = [4]int{n, n, n, n}
	}
	if cmd.IsSet("uniform-order-stat4") {
		q, qErr := parseQuad(cmd.String("uniform-order-stat4"))
		if qErr != nil {
			return nil, fmt.Errorf("--uniform-order-stat4: %w", qErr)
		}
		for i, v := range q {
			opts.UniformOrderStat[i] = int(v)
		}
	}
	if cmd.IsSet("crop-safe-min") {
		q, qErr := parseQuad(cmd.String("crop-safe-min"))
		if qErr != nil {
			return nil, fmt.Errorf("--crop-safe-min: %w", qErr)
		}
		opts.CropSafeMin = q
		opts.CropSafe = true
	}
	if cmd.IsSet("page-ratio-weights") {
		q, qErr := parseQuad(cmd.String("page-ratio-weights"))
		if qErr != nil {
			return nil, fmt.Errorf("--page-ratio-weights: %w", qErr)
		}
		opts.PageRatioWeights = q
	}
	if s := cmd.String("set-page-ratios"); s != "" {
		ratio, rErr := parseRatio(s)
		if rErr != nil {
			return nil, fmt.Errorf("--set-page-ratios: %w", rErr)
		}
		opts.PageRatio = ratio
	}

	opts.Uniform = cmd.Bool("uniform")
	opts.EvenOdd = cmd.Bool("evenodd")
	opts.SamePageSize = cmd.Bool("same-page-size")
	opts.PercentText = cmd.Bool("percent-text")
	opts.CropSafe = opts.CropSafe || cmd.Bool("crop-safe")
	opts.Pages = cmd.String("pages")
	opts.CalcBB = cmd.String("calcbb")
	opts.Threshold = int(cmd.Int("threshold"))
	opts.NumBlurs = int(cmd.Int("num-blurs"))
	opts.NumSmooths = int(cmd.Int("num-smooths"))
	opts.ResX = int(cmd.Int("res-x"))
	opts.ResY = int(cmd.Int("res-y"))
	if v := cmd.StringSlice("full-page-box"); len(v) > 0 {
		opts.FullPageBox = v
	}
	if v := cmd.StringSlice("boxes-to-set"); len(v) > 0 {
		opts.BoxesToSet = v
	}
	opts.Restore = cmd.Bool("restore")
	opts.NoUndoSave = cmd.Bool("no-undo-save")
	opts.OutputFile = cmd.String("outfile")
	opts.ModifyOriginal = cmd.Bool("modify-original")
	opts.NoClobber = cmd.Bool("no-clobber")
	opts.UsePrefix = cmd.Bool("use-prefix")
	opts.StringCropped = cmd.String("string-cropped")
	opts.StringUncropped = cmd.String("string-uncropped")
	opts.StringSeparator = cmd.String("string-separator")
	opts.Preview = cmd.String("preview")
	opts.ServeAddr = cmd.String("serve")
	opts.GSFix = cmd.Bool("gs-fix")
	opts.Verbose = cmd.Bool("verbose")
	opts.Quiet = cmd.Bool("quiet")

	return &opts, nil
}

func setupLogging(opts *types.Options) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	if opts.Quiet {
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func launchPreview(ctx context.Context, opts *types.Options, outPath string) error {
	return internal.LaunchViewer(ctx, opts.Preview, outPath)
}

// servePreview runs the web preview until interrupted, following the
// run-then-wait-for-signal shape of the watch service.
func servePreview(ctx context.Context, opts *types.Options, res *pipeline.Result) error {
	srv, err := server.NewServer(opts.ServeAddr, *opts, res)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)

	select {
	case err := <-errCh:
		return err
	case <-sigch:
	case <-ctx.Done():
	}
	srv.Stop()
	return nil
}

func printDeltaPages(res *pipeline.Result) {
	names := [4]string{"left", "bottom", "right", "top"}
	any := false
	for e, pages := range res.Crop.DeltaPages {
		if len(pages) == 0 {
			continue
		}
		any = true
		strs := make([]string, len(pages))
		for i, p := range pages {
			strs[i] = strconv.Itoa(p)
		}
		fmt.Printf("minimum crop delta on %s edge set by page(s): %s\n",
			names[e], strings.Join(strs, ", "))
	}
	if !any {
		fmt.Println("crop was not uniformed; no minimum delta pages to report")
	}
}

func parseQuad(s string) (types.Quad, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	var q types.Quad
	switch len(fields) {
	case 1:
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return q, fmt.Errorf("bad value %q", fields[0])
		}
		return types.Uniform(v), nil
	case 4:
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return q, fmt.Errorf("bad value %q", f)
			}
			q[i] = v
		}
		return q, nil
	default:
		return q, fmt.Errorf("expected 1 or 4 values, got %d", len(fields))
	}
}

// parseRatio accepts a plain float or "H/W" fraction, both meaning
// height/width.
func parseRatio(s string) (float64, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, err2 := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, fmt.Errorf("bad ratio %q", s)
		}
		if n/d <= 0 {
			return 0, fmt.Errorf("ratio must be positive")
		}
		return n / d, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("bad ratio %q", s)
	}
	return v, nil
}

func formatErrs(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, errs[k])
	}
	return strings.Join(parts, "; ")
}
