package model

type Stage string

const (
	StageNew                  Stage = "new"
	StageDestinationSuggested Stage = "destination_suggested"
	StageItineraryBuilt       Stage = "itinerary_built"
)

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageNew, StageDestinationSuggested, StageItineraryBuilt:
		return true
	}
	return false
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type CrowdLevel string

const (
	CrowdLow    CrowdLevel = "low"
	CrowdMedium CrowdLevel = "med"
	CrowdHigh   CrowdLevel = "high"
)

// Rank orders crowd levels from quietest to busiest.
func (c CrowdLevel) Rank() int {
	switch c {
	case CrowdLow:
		return 1
	case CrowdMedium:
		return 2
	case CrowdHigh:
		return 3
	}
	return 4
}
