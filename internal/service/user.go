package service

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wanderai/api-server/internal/model"
)

//go:embed data/user.json
var userJSON []byte

type LastVisit struct {
	PlaceName string `json:"placeName"`
	Date      string `json:"date"`
}

// Profile is the identity from the auth provider joined with travel stats.
type Profile struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	Phone        string     `json:"phone"`
	CreatedAt    *time.Time `json:"createdAt"`
	LastSignInAt *time.Time `json:"lastSignInAt"`
	TripCount    int        `json:"tripCount"`
	LastVisit    LastVisit  `json:"lastVisit"`
	Interests    []string   `json:"interests"`
}

type userStats struct {
	TripCount int       `json:"trip_count"`
	LastVisit LastVisit `json:"last_visit"`
	Interests []string  `json:"interests"`
}

// UserService serves the profile page. Travel stats, history and
// recommendations are fixed sample data until trips are recorded.
type UserService struct {
	stats           userStats
	history         []model.VisitedPlace
	recommendations []model.PlaceCard
	similar         []model.PlaceRef
}

func NewUserService() (*UserService, error) {
	var data struct {
		Stats           userStats            `json:"stats"`
		History         []model.VisitedPlace `json:"history"`
		Recommendations []model.PlaceCard    `json:"recommendations"`
		Similar         []model.PlaceRef     `json:"similar_user_places"`
	}
	if err := json.Unmarshal(userJSON, &data); err != nil {
		return nil, fmt.Errorf("decode user data: %w", err)
	}
	return &UserService{
		stats:           data.Stats,
		history:         data.History,
		recommendations: data.Recommendations,
		similar:         data.Similar,
	}, nil
}

func (s *UserService) Profile(user *model.User) Profile {
	phone := user.Phone
	if p, ok := user.UserMetadata["phone"].(string); ok && p != "" {
		phone = p
	}
	return Profile{
		ID:           user.ID,
		Email:        user.Email,
		FirstName:    user.DisplayName(),
		Phone:        phone,
		CreatedAt:    user.CreatedAt,
		LastSignInAt: user.LastSignInAt,
		TripCount:    s.stats.TripCount,
		LastVisit:    s.stats.LastVisit,
		Interests:    append([]string(nil), s.stats.Interests...),
	}
}

func (s *UserService) History() []model.VisitedPlace {
	return append([]model.VisitedPlace(nil), s.history...)
}

func (s *UserService) Recommendations() []model.PlaceCard {
	return append([]model.PlaceCard(nil), s.recommendations...)
}

func (s *UserService) SimilarUserPlaces() []model.PlaceRef {
	return append([]model.PlaceRef(nil), s.similar...)
}
