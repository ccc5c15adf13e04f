package handler

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/envicheck/envicheck/internal/api/response"
	"github.com/envicheck/envicheck/internal/aqi"
)

//go:embed web/index.html.tmpl web/static
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html.tmpl"))

type pageData struct {
	Version string
	Bands   []aqi.Band
}

// PageHandler serves the map page and its static assets.
type PageHandler struct {
	version string
	logger  zerolog.Logger
	static  http.Handler
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(version string, logger zerolog.Logger) *PageHandler {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return &PageHandler{
		version: version,
		logger:  logger.With().Str("handler", "page").Logger(),
		static:  http.StripPrefix("/static/", http.FileServer(http.FS(sub))),
	}
}

// Index handles GET / - the interactive map.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, pageData{Version: h.version, Bands: aqi.Bands()}); err != nil {
		h.logger.Error().Err(err).Msg("failed to render index page")
		response.InternalError(w, r, "failed to render page")
		return
	}
	response.HTML(w, r, http.StatusOK, buf.String())
}

// Static handles GET /static/*.
func (h *PageHandler) Static(w http.ResponseWriter, r *http.Request) {
	w.Header().Del("Content-Type")
	h.static.ServeHTTP(w, r)
}
