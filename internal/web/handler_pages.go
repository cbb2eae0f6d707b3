package web

import (
	"net/http"
)

// Default map position for the registration form.
const (
	mapCenterLat = -19.8731291
	mapCenterLng = -44.0294353
	mapZoom      = 15
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if err := s.renderPage(w,
		map[string]any{"Title": "Ecol"},
		"base.html", "pages/home.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "home", "error", err)
	}
}

func (s *Server) handleCreatePointPage(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems(r.Context())
	if err != nil {
		http.Error(w, "failed to list items", http.StatusInternalServerError)
		s.logger.Error("list items failed", "error", err)
		return
	}

	if err := s.renderPage(w,
		map[string]any{
			"Title":     "Register collection point",
			"Items":     items,
			"MapCenter": []float64{mapCenterLat, mapCenterLng},
			"MapZoom":   mapZoom,
		},
		"base.html", "pages/create_point.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "create_point", "error", err)
	}
}
