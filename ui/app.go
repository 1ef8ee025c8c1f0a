package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gosdt/domain/block"
	"gosdt/domain/core"
	"gosdt/internal"
	"gosdt/internal/errors"
	"gosdt/internal/report"
	"gosdt/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App serves HTML reports for stored blocks
type App struct {
	router    *chi.Mux
	blocks    ports.BlockRepository
	templates *template.Template
	logger    *internal.Logger
}

// NewApp creates a new UI application
func NewApp(blocks ports.BlockRepository, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	funcMap := template.FuncMap{
		"num": report.FormatFloat,
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		blocks:    blocks,
		templates: templates,
		logger:    logger,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/blocks/{id}", a.handleBlock)
	a.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// ServeHTTP lets the App be mounted directly on an http.Server
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

type indexRow struct {
	ID        string
	Label     string
	DPrime    float64
	Criterion float64
	Invalid   bool
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	blocks, err := a.blocks.List(r.Context(), limit, 0)
	if err != nil {
		a.renderError(w, err)
		return
	}

	rows := make([]indexRow, 0, len(blocks))
	for _, b := range blocks {
		row := indexRow{ID: b.ID.String(), Label: b.Label}
		if rec, err := b.Record(); err == nil {
			row.DPrime, row.Criterion = rec.DPrime(), rec.Criterion()
		} else {
			row.Invalid = true
		}
		rows = append(rows, row)
	}
	a.renderTemplate(w, "index.html", map[string]interface{}{"Blocks": rows})
}

func (a *App) handleBlock(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseBlockID(chi.URLParam(r, "id"))
	if err != nil {
		a.renderError(w, errors.InvalidInput(err.Error()))
		return
	}
	b, err := a.blocks.Get(r.Context(), id)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderBlock(w, b)
}

func (a *App) renderBlock(w http.ResponseWriter, b *block.Block) {
	rec, err := b.Record()
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "block.html", map[string]interface{}{
		"Title":  b.Label,
		"Report": template.HTML(report.HTML(b.Label, rec)),
	})
}

// Template helpers
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("[UI] template %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (a *App) renderError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("[UI] %v", err)
	}
	http.Error(w, err.Error(), status)
}
