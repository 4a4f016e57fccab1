package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wanderai/api-server/internal/model"
	"github.com/wanderai/api-server/internal/service"
)

type PlacesHandler struct {
	catalog *service.PlaceCatalog
}

func NewPlacesHandler(catalog *service.PlaceCatalog) *PlacesHandler {
	return &PlacesHandler{catalog: catalog}
}

func (h *PlacesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(catalogCache)

	r.Get("/", h.ListPlaces)
	r.Get("/trending", h.Trending)
	r.Get("/{id}", h.GetPlace)
	r.Get("/{id}/crowd-timeline", h.CrowdTimeline)
	r.Get("/{id}/nearby", h.Nearby)
	r.Get("/{id}/teams", h.Teams)
	r.Get("/{id}/similar", h.Similar)
	r.Get("/{id}/itinerary", h.Itinerary)

	return r
}

// GET /api/places?category=&sortBy=&limit=&offset=
func (h *PlacesHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	cards, total := h.catalog.List(parsePlaceQuery(r))

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, cards)
}

// GET /api/places/trending
func (h *PlacesHandler) Trending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Trending())
}

// GET /api/places/{id}
func (h *PlacesHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	h.withPlace(w, r, func(p *model.Place) any { return p })
}

// GET /api/places/{id}/crowd-timeline
func (h *PlacesHandler) CrowdTimeline(w http.ResponseWriter, r *http.Request) {
	h.withPlace(w, r, func(p *model.Place) any {
		if p.CrowdTimeline == nil {
			return model.CrowdTimeline{Hours: []model.CrowdHour{}}
		}
		return p.CrowdTimeline
	})
}

// GET /api/places/{id}/nearby
func (h *PlacesHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	h.withPlace(w, r, func(p *model.Place) any { return orEmpty(p.Nearby) })
}

// GET /api/places/{id}/teams
func (h *PlacesHandler) Teams(w http.ResponseWriter, r *http.Request) {
	h.withPlace(w, r, func(p *model.Place) any { return orEmpty(p.Teams) })
}

// GET /api/places/{id}/similar
func (h *PlacesHandler) Similar(w http.ResponseWriter, r *http.Request) {
	h.withPlace(w, r, func(p *model.Place) any { return orEmpty(p.Similar) })
}

// GET /api/places/{id}/itinerary
func (h *PlacesHandler) Itinerary(w http.ResponseWriter, r *http.Request) {
	h.withPlace(w, r, func(p *model.Place) any {
		return map[string]string{"itinerary": p.Itinerary}
	})
}

func (h *PlacesHandler) withPlace(w http.ResponseWriter, r *http.Request, view func(*model.Place) any) {
	place, err := h.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(place))
}

// The catalog is compiled in, so its responses only change on deploy.
func catalogCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		next.ServeHTTP(w, r)
	})
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
