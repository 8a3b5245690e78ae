package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/abrezinsky/pairsync/internal/models"
	"github.com/abrezinsky/pairsync/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// Templates holds all parsed HTML templates
type Templates struct {
	Index *template.Template
	Form  *template.Template
}

// Fixtures are the upstream options the demo host page renders. The real
// admin pages render these themselves.
type Fixtures struct {
	Tournaments []models.Entity
	Players     []models.Entity
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Hub          *websocket.Hub
	Log          HTTPLogger
	Fixtures     Fixtures
	PublicURL    string // empty means derive from the request host
	templates    *Templates
	staticServer http.Handler
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	hub *websocket.Hub,
	fixtures Fixtures,
	publicURL string,
	templatesFS fs.FS,
	staticServer http.Handler,
	log HTTPLogger,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Handlers{
		Hub:          hub,
		Log:          log,
		Fixtures:     fixtures,
		PublicURL:    publicURL,
		templates:    templates,
		staticServer: staticServer,
	}, nil
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	var err error

	if t.Index, err = template.ParseFS(templatesFS, "layout.html", "index.html"); err != nil {
		return nil, fmt.Errorf("index template: %w", err)
	}
	if t.Form, err = template.ParseFS(templatesFS, "layout.html", "form.html"); err != nil {
		return nil, fmt.Errorf("form template: %w", err)
	}

	return t, nil
}
