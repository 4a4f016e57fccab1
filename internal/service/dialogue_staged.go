package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/wanderai/api-server/internal/config"
	"github.com/wanderai/api-server/internal/model"
)

const (
	turnTypeSuggestion = "destination_suggestion"
	turnTypeItinerary  = "itinerary"
	turnTypeMessage    = "message"

	replyDeclined = "No problem! Tell me what kind of place or trip you'd prefer and I'll look for something else."
	replyWhere    = "Sure, which place would you like to go to instead?"
	replyNoBudget = "I don't have a budget for this trip yet. Tell me roughly how much you'd like to spend and I'll plan around it."
	replyHelp     = "I can adjust your plan. Try \"make it cheaper\", \"make it shorter\" or \"change destination to <place>\"."
)

// StagedDialogue walks a session through a scripted plan:
// new -> destination_suggested -> itinerary_built. The backend only does
// intent extraction, ranking and itinerary building; the conversation flow
// lives here.
type StagedDialogue struct {
	gateway    AIGateway
	classifier *Classifier
}

func NewStagedDialogue(gw AIGateway, classifier *Classifier) *StagedDialogue {
	return &StagedDialogue{gateway: gw, classifier: classifier}
}

func (d *StagedDialogue) Respond(ctx context.Context, session *model.Session, message string) (*Turn, error) {
	var (
		turn *Turn
		err  error
	)
	switch session.Stage {
	case model.StageDestinationSuggested:
		turn, err = d.confirm(ctx, session, message)
	case model.StageItineraryBuilt:
		turn, err = d.modify(ctx, session, message)
	default:
		turn, err = d.suggest(ctx, session, message)
	}
	if err != nil {
		return nil, err
	}

	history := session.History.Append(
		model.Message{Role: model.RoleUser, Content: message},
		model.Message{Role: model.RoleAssistant, Content: turn.Reply},
	).Trim(config.MaxHistory)
	turn.Update.History = &history
	return turn, nil
}

func (d *StagedDialogue) suggest(ctx context.Context, session *model.Session, message string) (*Turn, error) {
	intent, err := d.gateway.ExtractIntent(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("extract intent: %w", err)
	}
	if intent == nil {
		intent = model.JSONMap{}
	}
	query, ok := intent.String("query")
	if !ok {
		query = message
	}

	suggestions, err := d.gateway.SuggestDestinations(ctx, query, config.DefaultSuggestTopK)
	if err != nil {
		return nil, fmt.Errorf("suggest destinations: %w", err)
	}

	destination := suggestions.Destinations[0]
	names := make([]string, 0, len(suggestions.Destinations))
	for _, dest := range suggestions.Destinations {
		if name, ok := dest.String("name"); ok {
			names = append(names, name)
		}
	}
	places := model.MergeSuggestedPlaces(session.SuggestedPlaces, names, config.MaxSuggestedPlaces)
	stage := model.StageDestinationSuggested

	return &Turn{
		Update: model.SessionUpdate{
			Stage:           &stage,
			Intent:          &intent,
			Destination:     &destination,
			SuggestedPlaces: &places,
		},
		Reply: suggestionReply(destination),
		Type:  turnTypeSuggestion,
		Data:  model.JSONMap{"destination": map[string]any(destination)},
	}, nil
}

func (d *StagedDialogue) confirm(ctx context.Context, session *model.Session, message string) (*Turn, error) {
	switch d.classifier.Confirmation(message).Kind {
	case CommandAffirm:
		itinerary, err := d.gateway.BuildItinerary(ctx, baseQuery(session), 0)
		if err != nil {
			return nil, fmt.Errorf("build itinerary: %w", err)
		}
		stage := model.StageItineraryBuilt
		return &Turn{
			Update: model.SessionUpdate{
				Stage:     &stage,
				Itinerary: &itinerary,
			},
			Reply: FormatItinerary(destinationName(session.Destination), itinerary),
			Type:  turnTypeItinerary,
			Data:  itinerary,
		}, nil

	case CommandDecline:
		return &Turn{Reply: replyDeclined, Type: turnTypeMessage}, nil
	}

	name := destinationName(session.Destination)
	if name == "" {
		name = "this destination"
	}
	return &Turn{
		Reply: fmt.Sprintf("Just say yes and I'll build an itinerary for %s, or no if you'd rather go somewhere else.", name),
		Type:  turnTypeMessage,
	}, nil
}

func (d *StagedDialogue) modify(ctx context.Context, session *model.Session, message string) (*Turn, error) {
	cmd := d.classifier.Modification(message)

	intent := session.Intent.Clone()
	if intent == nil {
		intent = model.JSONMap{}
	}
	destination := session.Destination.Clone()
	if destination == nil {
		destination = model.JSONMap{}
	}

	var update model.SessionUpdate
	switch cmd.Kind {
	case CommandCheaper:
		budget, ok := intent.Number("budget")
		if !ok {
			return &Turn{Reply: replyNoBudget, Type: turnTypeMessage}, nil
		}
		intent["budget"] = math.Floor(budget * 0.8)
		update.Intent = &intent

	case CommandShorter:
		intent["duration_days"] = 1
		update.Intent = &intent

	case CommandChangeDestination:
		if cmd.Place == "" {
			return &Turn{Reply: replyWhere, Type: turnTypeMessage}, nil
		}
		destination["name"] = cmd.Place
		update.Destination = &destination

	default:
		return &Turn{Reply: replyHelp, Type: turnTypeMessage}, nil
	}

	itinerary, err := d.gateway.BuildItinerary(ctx, rebuildQuery(intent, destination), 0)
	if err != nil {
		return nil, fmt.Errorf("rebuild itinerary (%s): %w", cmd.Kind, err)
	}
	update.Itinerary = &itinerary

	if name := destinationName(destination); name != "" {
		places := model.MergeSuggestedPlaces(session.SuggestedPlaces, []string{name}, config.MaxSuggestedPlaces)
		update.SuggestedPlaces = &places
	}

	return &Turn{
		Update: update,
		Reply:  "Here's your updated plan.\n\n" + FormatItinerary(destinationName(destination), itinerary),
		Type:   turnTypeItinerary,
		Data:   itinerary,
	}, nil
}

func suggestionReply(destination model.JSONMap) string {
	name := destinationName(destination)
	if name == "" {
		name = "this place"
	}
	if desc, ok := destination.String("description"); ok {
		return fmt.Sprintf("How about %s? %s Shall I build an itinerary for it?", name, strings.TrimSpace(desc))
	}
	return fmt.Sprintf("How about %s? Shall I build an itinerary for it?", name)
}

func destinationName(destination model.JSONMap) string {
	name, _ := destination.String("name")
	return name
}

// baseQuery is the query the session's intent was extracted from, falling
// back to the first thing the user said.
func baseQuery(session *model.Session) string {
	if q, ok := session.Intent.String("query"); ok {
		return q
	}
	for _, m := range session.History {
		if m.Role == model.RoleUser {
			return m.Content
		}
	}
	return destinationName(session.Destination)
}

// rebuildQuery restates the trip with its current constraints so the
// backend plans against the modified values.
func rebuildQuery(intent, destination model.JSONMap) string {
	var parts []string
	if q, ok := intent.String("query"); ok {
		parts = append(parts, q)
	}
	if name := destinationName(destination); name != "" {
		parts = append(parts, "destination: "+name)
	}
	if budget, ok := intent.Number("budget"); ok {
		parts = append(parts, fmt.Sprintf("budget: %d", int64(budget)))
	}
	if days, ok := intent.Number("duration_days"); ok {
		unit := "days"
		if days == 1 {
			unit = "day"
		}
		parts = append(parts, fmt.Sprintf("duration: %d %s", int64(days), unit))
	}
	return strings.Join(parts, ", ")
}
