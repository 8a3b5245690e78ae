package handlers

import (
	"net/http"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/pairsync/internal/errors"
	"github.com/abrezinsky/pairsync/internal/models"
	"github.com/abrezinsky/pairsync/internal/render"
	"github.com/abrezinsky/pairsync/internal/selection"
)

func formTitle(kind selection.Kind) string {
	switch kind {
	case selection.KindMatch:
		return "Add match"
	case selection.KindTeam:
		return "Add team"
	default:
		return string(kind)
	}
}

// initData returns the upstream options the demo page renders for kind
func (h *Handlers) initData(kind selection.Kind) InitData {
	data := InitData{
		Values:  map[string]models.EntityID{},
		Options: map[string][]models.Entity{},
	}
	switch kind {
	case selection.KindMatch:
		data.Options[selection.KeyTournament] = h.Fixtures.Tournaments
	case selection.KindTeam:
		data.Options[selection.KeyPlayer1] = h.Fixtures.Players
		data.Options[selection.KeyPlayer2] = h.Fixtures.Players
	}
	return data
}

// formURL returns the absolute URL of a demo form
func (h *Handlers) formURL(r *http.Request, kind selection.Kind) string {
	base := strings.TrimRight(h.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/forms/" + string(kind)
}

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := IndexPageData{Title: "pairsync"}
	for _, kind := range selection.Kinds() {
		data.Forms = append(data.Forms, FormLink{Kind: kind, Title: formTitle(kind), Path: "/forms/" + string(kind)})
	}
	if err := h.templates.Index.ExecuteTemplate(w, "layout", data); err != nil {
		respondError(w, errors.Internal(err))
	}
}

func (h *Handlers) handleFormPage(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKindParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	form, err := selection.NewForm(kind, selection.DiscardStale)
	if err != nil {
		respondError(w, err)
		return
	}
	init := h.initData(kind)
	form, _ = form.Reduce(selection.Init{Values: init.Values, Options: init.Options})

	data := FormPageData{
		Title:  formTitle(kind),
		Kind:   kind,
		WSPath: "/ws/" + string(kind),
		QRPath: "/forms/" + string(kind) + "/qr",
		Init:   init,
	}
	for _, c := range form.Snapshot().Controls {
		html, err := render.Control(c)
		if err != nil {
			respondError(w, errors.Internal(err))
			return
		}
		data.Controls = append(data.Controls, html)
	}

	if err := h.templates.Form.ExecuteTemplate(w, "layout", data); err != nil {
		respondError(w, errors.Internal(err))
	}
}

func (h *Handlers) handleFormQR(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKindParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	png, err := qrcode.Encode(h.formURL(r, kind), qrcode.Medium, 256)
	if err != nil {
		respondError(w, errors.Internal(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

func (h *Handlers) handleWs(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKindParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	h.Hub.ServeWs(kind)(w, r)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, HealthResponse{Status: "ok", Sessions: h.Hub.Sessions(), API: h.Hub.APIBaseURL()})
}
