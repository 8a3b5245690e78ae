package handlers

import (
	"html/template"

	"github.com/abrezinsky/pairsync/internal/models"
	"github.com/abrezinsky/pairsync/internal/selection"
)

// FormLink describes one demo form on the index page
type FormLink struct {
	Kind  selection.Kind
	Title string
	Path  string
}

// IndexPageData holds the data passed to the index template
type IndexPageData struct {
	Title string
	Forms []FormLink
}

// FormPageData holds the data passed to the form template
type FormPageData struct {
	Title    string
	Kind     selection.Kind
	WSPath   string
	QRPath   string
	Controls []template.HTML
	Init     InitData
}

// InitData is sent back by the page script as the session's init message
type InitData struct {
	Values  map[string]models.EntityID `json:"values"`
	Options map[string][]models.Entity `json:"options"`
}

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	API      string `json:"api"`
}
