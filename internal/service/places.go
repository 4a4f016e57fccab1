package service

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/model"
)

//go:embed data/places.json
var placesJSON []byte

const (
	SortByDistance = "distance"
	SortByScore    = "score"
	SortByCrowd    = "crowd"

	categoryAll      = "All"
	categoryTrending = "Trending"
)

type PlaceQuery struct {
	Category string
	SortBy   string
	Limit    int
	Offset   int
}

// PlaceCatalog serves the static place catalog. It is read-only after
// construction and safe for concurrent use.
type PlaceCatalog struct {
	places   []model.Place
	byID     map[string]*model.Place
	trending []model.TrendingPlace
}

func NewPlaceCatalog() (*PlaceCatalog, error) {
	var data struct {
		Places   []model.Place         `json:"places"`
		Trending []model.TrendingPlace `json:"trending"`
	}
	if err := json.Unmarshal(placesJSON, &data); err != nil {
		return nil, fmt.Errorf("decode place catalog: %w", err)
	}

	c := &PlaceCatalog{
		places:   data.Places,
		byID:     make(map[string]*model.Place, len(data.Places)),
		trending: data.Trending,
	}
	for i := range c.places {
		c.byID[c.places[i].ID] = &c.places[i]
	}
	return c, nil
}

// List filters by category and sorts, returning one page plus the total
// number of matches.
func (c *PlaceCatalog) List(q PlaceQuery) ([]model.PlaceCard, int) {
	matches := make([]model.Place, 0, len(c.places))
	for _, p := range c.places {
		if q.Category == "" || q.Category == categoryAll || q.Category == categoryTrending || p.Category == q.Category {
			matches = append(matches, p)
		}
	}

	switch q.SortBy {
	case SortByScore:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].ExperienceScore > matches[j].ExperienceScore
		})
	case SortByCrowd:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].CrowdLevel.Rank() < matches[j].CrowdLevel.Rank()
		})
	default:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].DistanceKm < matches[j].DistanceKm
		})
	}

	total := len(matches)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}

	cards := make([]model.PlaceCard, 0, end-start)
	for _, p := range matches[start:end] {
		cards = append(cards, p.Card())
	}
	return cards, total
}

func (c *PlaceCatalog) Get(id string) (*model.Place, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, apperrors.PlaceNotFound(id)
	}
	out := *p
	return &out, nil
}

func (c *PlaceCatalog) Trending() []model.TrendingPlace {
	return append([]model.TrendingPlace(nil), c.trending...)
}

// Keywords maps lower-case words that identify a place in free text to the
// place's display name: the full name and its leading word ("alibaug").
func (c *PlaceCatalog) Keywords() map[string]string {
	out := make(map[string]string, len(c.places)*2)
	for _, p := range c.places {
		name := strings.ToLower(p.Name)
		out[name] = p.Name
		if fields := strings.Fields(name); len(fields) > 1 {
			out[fields[0]] = p.Name
		}
	}
	return out
}
