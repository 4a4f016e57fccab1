package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderai/api-server/internal/model"
	"github.com/wanderai/api-server/internal/service"
)

func newPlacesRouter(t *testing.T) http.Handler {
	t.Helper()
	catalog, err := service.NewPlaceCatalog()
	require.NoError(t, err)
	return NewPlacesHandler(catalog).Routes()
}

func TestPlacesHandler_List(t *testing.T) {
	router := newPlacesRouter(t)

	t.Run("sorted by distance with total header", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "4", rec.Header().Get("X-Total-Count"))
		assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))

		var cards []model.PlaceCard
		decodeBody(t, rec, &cards)
		require.Len(t, cards, 4)
		assert.Equal(t, "sinhagad", cards[0].ID)
	})

	t.Run("category filter and paging", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/?category=Beaches", "", nil)
		var cards []model.PlaceCard
		decodeBody(t, rec, &cards)
		require.Len(t, cards, 1)
		assert.Equal(t, "alibaug", cards[0].ID)
		assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

		rec = serve(router, http.MethodGet, "/?sortBy=score&limit=2&offset=1", "", nil)
		decodeBody(t, rec, &cards)
		require.Len(t, cards, 2)
		assert.Equal(t, "karla", cards[0].ID)
		assert.Equal(t, "4", rec.Header().Get("X-Total-Count"))
	})

	t.Run("unknown category is empty, not an error", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/?category=Volcanoes", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestPlacesHandler_Detail(t *testing.T) {
	router := newPlacesRouter(t)

	t.Run("returns the full place", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/rajmachi", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var place model.Place
		decodeBody(t, rec, &place)
		assert.Equal(t, "Rajmachi Trek", place.Name)
	})

	t.Run("sub resources", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/rajmachi/crowd-timeline", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var timeline model.CrowdTimeline
		decodeBody(t, rec, &timeline)
		assert.NotEmpty(t, timeline.Hours)

		rec = serve(router, http.MethodGet, "/rajmachi/similar", "", nil)
		var similar []model.SimilarPlace
		decodeBody(t, rec, &similar)
		assert.Len(t, similar, 3)

		rec = serve(router, http.MethodGet, "/rajmachi/teams", "", nil)
		var teams []model.Team
		decodeBody(t, rec, &teams)
		assert.Len(t, teams, 2)

		rec = serve(router, http.MethodGet, "/rajmachi/itinerary", "", nil)
		var itinerary map[string]string
		decodeBody(t, rec, &itinerary)
		assert.Contains(t, itinerary, "itinerary")
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		for _, path := range []string{"/nowhere", "/nowhere/nearby", "/nowhere/itinerary"} {
			rec := serve(router, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusNotFound, rec.Code, path)

			var body map[string]any
			decodeBody(t, rec, &body)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, "PLACE_NOT_FOUND", body["error"])
		}
	})
}

func TestPlacesHandler_Trending(t *testing.T) {
	rec := serve(newPlacesRouter(t), http.MethodGet, "/trending", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var trending []model.TrendingPlace
	decodeBody(t, rec, &trending)
	assert.Len(t, trending, 3)
}
