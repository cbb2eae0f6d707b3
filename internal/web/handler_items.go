package web

import (
	"net/http"

	"github.com/ecol-app/ecol/internal/domain"
)

type itemResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list items")
		s.logger.Error("list items failed", "error", err)
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, s.toItemResponse(item))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) toItemResponse(item *domain.Item) itemResponse {
	return itemResponse{
		ID:       item.ID,
		Title:    item.Title,
		ImageURL: s.opts.PublicURL + "/static/items/" + item.Image,
	}
}
