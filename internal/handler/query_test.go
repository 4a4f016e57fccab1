package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wanderai/api-server/internal/service"
)

func TestParsePlaceQuery(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   service.PlaceQuery
	}{
		{"defaults", "/", service.PlaceQuery{Limit: defaultPlaceLimit}},
		{"explicit", "/?limit=5&offset=2&category=Treks&sortBy=score", service.PlaceQuery{Category: "Treks", SortBy: "score", Limit: 5, Offset: 2}},
		{"clamps limit", "/?limit=500", service.PlaceQuery{Limit: maxPlaceLimit}},
		{"garbage numbers", "/?limit=abc&offset=-3", service.PlaceQuery{Limit: defaultPlaceLimit}},
		{"trims category", "/?category=%20Beaches%20", service.PlaceQuery{Category: "Beaches", Limit: defaultPlaceLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			assert.Equal(t, tt.want, parsePlaceQuery(r))
		})
	}
}
