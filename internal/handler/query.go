package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/wanderai/api-server/internal/service"
)

const (
	defaultPlaceLimit = 20
	maxPlaceLimit     = 50
)

// parsePlaceQuery reads the listing filters. Bad numbers fall back to the
// defaults; a limit above the cap is clamped rather than rejected.
func parsePlaceQuery(r *http.Request) service.PlaceQuery {
	q := r.URL.Query()

	limit, err := strconv.Atoi(q.Get("limit"))
	switch {
	case err != nil || limit <= 0:
		limit = defaultPlaceLimit
	case limit > maxPlaceLimit:
		limit = maxPlaceLimit
	}

	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return service.PlaceQuery{
		Category: strings.TrimSpace(q.Get("category")),
		SortBy:   strings.TrimSpace(q.Get("sortBy")),
		Limit:    limit,
		Offset:   offset,
	}
}
