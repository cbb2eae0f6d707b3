package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/ecol-app/ecol/internal/domain"
	"github.com/ecol-app/ecol/internal/service"
)

const (
	maxImageSize = 5 << 20
	// maxCreateBody bounds the whole create request, image included.
	maxCreateBody = maxImageSize + 1<<20
)

const msgPointNotFound = "Point not found"

type pointResponse struct {
	ID        int64   `json:"id"`
	Image     string  `json:"image"`
	ImageURL  string  `json:"image_url"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Whatsapp  string  `json:"whatsapp"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	State     string  `json:"state"`
}

type pointItemResponse struct {
	Title string `json:"title"`
}

type pointDetailResponse struct {
	Point pointResponse       `json:"point"`
	Items []pointItemResponse `json:"items"`
}

// createPointRequest is the JSON body of POST /points.
type createPointRequest struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Whatsapp  string     `json:"whatsapp"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	City      string     `json:"city"`
	State     string     `json:"state"`
	Items     itemIDList `json:"items"`
}

// itemIDList accepts either a JSON array of ids or a comma-separated string.
type itemIDList []int64

func (l *itemIDList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var csv string
		if err := json.Unmarshal(data, &csv); err != nil {
			return err
		}
		ids, err := parseIDList(csv)
		if err != nil {
			return err
		}
		*l = ids
		return nil
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("items must be an array of ids or a comma-separated string")
	}
	*l = ids
	return nil
}

func (s *Server) handleListPoints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	itemIDs, err := parseIDList(q.Get("items"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points, err := s.service.ListPoints(r.Context(), domain.PointFilter{
		City:    q.Get("city"),
		State:   q.Get("state"),
		ItemIDs: itemIDs,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list points")
		s.logger.Error("list points failed", "error", err)
		return
	}

	resp := make([]pointResponse, 0, len(points))
	for _, p := range points {
		resp = append(resp, s.toPointResponse(p))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoint(w http.ResponseWriter, r *http.Request) {
	pointID, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, msgPointNotFound)
		return
	}

	detail, err := s.service.GetPoint(r.Context(), pointID)
	if errors.Is(err, service.ErrPointNotFound) {
		s.writeError(w, http.StatusBadRequest, msgPointNotFound)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to get point")
		s.logger.Error("get point failed", "point_id", pointID, "error", err)
		return
	}

	resp := pointDetailResponse{
		Point: s.toPointResponse(detail.Point),
		Items: make([]pointItemResponse, 0, len(detail.Items)),
	}
	for _, item := range detail.Items {
		resp.Items = append(resp.Items, pointItemResponse{Title: item.Title})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreatePoint(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCreateBody)

	var (
		input service.CreatePointInput
		image *service.Image
		err   error
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		input, image, err = s.parseMultipartPoint(r)
	case "application/json", "":
		input, err = parseJSONPoint(r.Body)
	default:
		s.writeError(w, http.StatusUnsupportedMediaType, "unsupported content type")
		return
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	point, err := s.service.CreatePoint(r.Context(), input, image)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid point", Errors: verr.Fields})
		case errors.Is(err, service.ErrUnknownItem):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, "failed to create point")
			s.logger.Error("create point failed", "error", err)
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, s.toPointResponse(point))
}

func (s *Server) handleDeletePoint(w http.ResponseWriter, r *http.Request) {
	pointID, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, msgPointNotFound)
		return
	}

	err = s.service.DeletePoint(r.Context(), pointID)
	if errors.Is(err, service.ErrPointNotFound) {
		s.writeError(w, http.StatusBadRequest, msgPointNotFound)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to delete point")
		s.logger.Error("delete point failed", "point_id", pointID, "error", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseJSONPoint(body io.Reader) (service.CreatePointInput, error) {
	var req createPointRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.CreatePointInput{}, err
		}
		return service.CreatePointInput{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	// 0 is a valid coordinate, so only an absent field is rejected.
	if req.Latitude == nil {
		return service.CreatePointInput{}, errors.New("latitude is required")
	}
	if req.Longitude == nil {
		return service.CreatePointInput{}, errors.New("longitude is required")
	}

	return service.CreatePointInput{
		Name:      req.Name,
		Email:     req.Email,
		Whatsapp:  req.Whatsapp,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		City:      req.City,
		State:     req.State,
		Items:     req.Items,
	}, nil
}

// parseMultipartPoint reads the form fields and the optional "image" file.
func (s *Server) parseMultipartPoint(r *http.Request) (service.CreatePointInput, *service.Image, error) {
	var input service.CreatePointInput

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return input, nil, err
		}
		return input, nil, fmt.Errorf("failed to parse form")
	}

	lat, err := parseCoordinate(r.FormValue("latitude"), "latitude")
	if err != nil {
		return input, nil, err
	}
	lng, err := parseCoordinate(r.FormValue("longitude"), "longitude")
	if err != nil {
		return input, nil, err
	}
	items, err := parseIDList(r.FormValue("items"))
	if err != nil {
		return input, nil, err
	}

	input = service.CreatePointInput{
		Name:      r.FormValue("name"),
		Email:     r.FormValue("email"),
		Whatsapp:  r.FormValue("whatsapp"),
		Latitude:  lat,
		Longitude: lng,
		City:      r.FormValue("city"),
		State:     r.FormValue("state"),
		Items:     items,
	}

	image, err := s.readImage(r)
	if err != nil {
		return input, nil, err
	}
	return input, image, nil
}

func parseCoordinate(raw, field string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", field)
	}
	return v, nil
}

// parseIDList parses a comma-separated list of item ids. Blank entries are
// skipped, so "" yields an empty list.
func parseIDList(csv string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Server) toPointResponse(p *domain.Point) pointResponse {
	return pointResponse{
		ID:        p.ID,
		Image:     p.Image,
		ImageURL:  s.pointImageURL(p),
		Name:      p.Name,
		Email:     p.Email,
		Whatsapp:  p.Whatsapp,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		City:      p.City,
		State:     p.State,
	}
}

func (s *Server) pointImageURL(p *domain.Point) string {
	if !p.HasUploadedImage() {
		return p.Image
	}
	return s.opts.PublicURL + "/uploads/" + p.Image
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
