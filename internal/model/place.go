package model

// Place is a catalog entry. Card fields are listed first; the remaining
// fields only appear on the detail endpoint.
type Place struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Emoji           string         `json:"emoji"`
	Bg              string         `json:"bg"`
	Category        string         `json:"category"`
	Tags            []string       `json:"tags"`
	CrowdLevel      CrowdLevel     `json:"crowd_level"`
	ExperienceScore int            `json:"experience_score"`
	DistanceKm      float64        `json:"distance_km"`
	DriveTime       string         `json:"drive_time"`
	PriceLabel      string         `json:"price_label"`
	AIDescription   string         `json:"ai_description,omitempty"`
	Scores          *PlaceScores   `json:"scores,omitempty"`
	CrowdTimeline   *CrowdTimeline `json:"crowd_timeline,omitempty"`
	Nearby          []NearbySpot   `json:"nearby,omitempty"`
	Teams           []Team         `json:"teams,omitempty"`
	Similar         []SimilarPlace `json:"similar,omitempty"`
	Itinerary       string         `json:"itinerary,omitempty"`
}

// Card strips the detail-only fields.
func (p Place) Card() PlaceCard {
	return PlaceCard{
		ID:              p.ID,
		Name:            p.Name,
		Emoji:           p.Emoji,
		Bg:              p.Bg,
		Category:        p.Category,
		Tags:            p.Tags,
		CrowdLevel:      p.CrowdLevel,
		ExperienceScore: p.ExperienceScore,
		DistanceKm:      p.DistanceKm,
		DriveTime:       p.DriveTime,
		PriceLabel:      p.PriceLabel,
	}
}

type PlaceCard struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Emoji           string     `json:"emoji"`
	Bg              string     `json:"bg"`
	Category        string     `json:"category"`
	Tags            []string   `json:"tags"`
	CrowdLevel      CrowdLevel `json:"crowd_level"`
	ExperienceScore int        `json:"experience_score"`
	DistanceKm      float64    `json:"distance_km"`
	DriveTime       string     `json:"drive_time"`
	PriceLabel      string     `json:"price_label"`
}

type PlaceScores struct {
	Popularity   int `json:"popularity"`
	WeatherBonus int `json:"weather_bonus"`
	CrowdPenalty int `json:"crowd_penalty"`
	UserAffinity int `json:"user_affinity"`
}

type CrowdTimeline struct {
	Hours      []CrowdHour `json:"hours"`
	BestWindow string      `json:"best_window"`
}

type CrowdHour struct {
	Time         string `json:"time"`
	Value        int    `json:"value"`
	IsBestWindow bool   `json:"is_best_window"`
}

type NearbySpot struct {
	Type          string `json:"type"`
	Emoji         string `json:"emoji"`
	Name          string `json:"name"`
	DistanceLabel string `json:"distance_label"`
}

type Team struct {
	TeamID      string `json:"teamId"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
	Date        string `json:"date"`
	SpotsLeft   int    `json:"spotsLeft"`
}

type SimilarPlace struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Emoji      string     `json:"emoji"`
	Category   string     `json:"category"`
	CrowdLevel CrowdLevel `json:"crowd_level"`
}

type TrendingPlace struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Emoji      string `json:"emoji"`
	ReasonText string `json:"reason_text"`
	Category   string `json:"category"`
	Badge      string `json:"badge"`
}

type VisitedPlace struct {
	PlaceID           string     `json:"placeId"`
	Name              string     `json:"name"`
	Emoji             string     `json:"emoji"`
	Category          string     `json:"category"`
	LastVisited       string     `json:"lastVisited"`
	CurrentCrowdLabel string     `json:"current_crowd_label"`
	CurrentCrowdColor CrowdLevel `json:"current_crowd_color"`
}

type PlaceRef struct {
	PlaceID string `json:"placeId"`
	Name    string `json:"name"`
	Emoji   string `json:"emoji"`
}
