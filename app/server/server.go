// Package server hosts the local web preview, the browser-based counterpart
// of the original tool's desktop GUI: page through the original and the
// cropped document side by side and re-crop with adjusted options.
package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pdfcropmargins/app/api"
	"pdfcropmargins/app/middleware"
	"pdfcropmargins/app/pipeline"
	"pdfcropmargins/bbox"
	"pdfcropmargins/types"
)

var config = fiber.Config{
	ErrorHandler:          api.ErrorHandler,
	DisableStartupMessage: true,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
	app        *fiber.App
}

func NewServer(addr string, opts types.Options, first *pipeline.Result) (*Server, error) {
	renderer, err := bbox.NewRenderer()
	if err != nil {
		return nil, err
	}

	var (
		app            = fiber.New(config)
		checkHandler   = api.NewCheckHandler()
		previewHandler = api.NewPreviewHandler(opts, renderer, first)
		check          = app.Group("/check")
		apiv1          = app.Group("/api/v1")
	)

	app.Use(middleware.RequestLogger())

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Get("/info", previewHandler.HandleInfo)
	apiv1.Get("/pages/:n", previewHandler.HandlePage)
	apiv1.Post("/crop", previewHandler.HandleCrop)
	app.Get("/", handleIndex)

	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
		app:        app,
	}, nil
}

// Run blocks serving the preview until Stop is called.
func (s *Server) Run() error {
	s.logger.Info("preview server listening", "addr", "http://"+s.listenAddr)
	return s.app.Listen(s.listenAddr)
}

func (s *Server) Stop() {
	if err := s.app.Shutdown(); err != nil {
		s.logger.Error("shutdown failed", "error", err)
	}
	s.logger.Info("preview server stopped")
}

func handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexHTML)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>pdfcropmargins preview</title>
<style>
body { font-family: sans-serif; margin: 1em; }
img  { border: 1px solid #888; max-width: 46vw; }
</style>
</head>
<body>
<h3>pdfcropmargins preview</h3>
<p>
  <button onclick="nav(-1)">Prev</button>
  <span id="page">1</span> / <span id="pages">?</span>
  <button onclick="nav(1)">Next</button>
</p>
<div>
  <img id="orig" alt="original page">
  <img id="crop" alt="cropped page">
</div>
<script>
let page = 1, pages = 1;
async function init() {
  const info = await (await fetch('/api/v1/info')).json();
  pages = info.pages;
  document.getElementById('pages').textContent = pages;
  show();
}
function nav(d) {
  page = Math.min(Math.max(page + d, 1), pages);
  show();
}
function show() {
  document.getElementById('page').textContent = page;
  document.getElementById('orig').src = '/api/v1/pages/' + page + '?doc=original&width=700';
  document.getElementById('crop').src = '/api/v1/pages/' + page + '?width=700';
}
init();
</script>
</body>
</html>
`
