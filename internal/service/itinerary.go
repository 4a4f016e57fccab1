package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wanderai/api-server/internal/model"
)

// FormatItinerary renders an itinerary object as chat text. Every section
// is optional; unknown keys are ignored.
func FormatItinerary(destination string, itinerary model.JSONMap) string {
	var b strings.Builder

	title, ok := itinerary.String("title")
	switch {
	case ok:
		b.WriteString(title)
	case destination != "":
		fmt.Fprintf(&b, "Here's your itinerary for %s:", destination)
	default:
		b.WriteString("Here's your itinerary:")
	}

	if days, ok := itinerary["days"].([]any); ok {
		for i, d := range days {
			if line := formatDay(i+1, d); line != "" {
				b.WriteString("\n")
				b.WriteString(line)
			}
		}
	}

	if packing := joinValues(itinerary["packing_list"]); packing != "" {
		b.WriteString("\n\nPacking list: ")
		b.WriteString(packing)
	}
	if notes := joinValues(itinerary["notes"]); notes != "" {
		b.WriteString("\nNotes: ")
		b.WriteString(notes)
	}
	if cost := formatScalar(itinerary["estimated_cost"]); cost != "" {
		b.WriteString("\nEstimated cost: ")
		b.WriteString(cost)
	}

	return b.String()
}

func formatDay(n int, v any) string {
	day, ok := v.(map[string]any)
	if !ok {
		if s := formatScalar(v); s != "" {
			return fmt.Sprintf("Day %d: %s", n, s)
		}
		return ""
	}

	if num, ok := model.JSONMap(day).Number("day"); ok {
		n = int(num)
	}

	var plan string
	for _, key := range []string{"activities", "plan", "title"} {
		if plan = joinValues(day[key]); plan != "" {
			break
		}
	}
	if plan == "" {
		return ""
	}
	return fmt.Sprintf("Day %d: %s", n, plan)
}

// joinValues flattens a string, a number or a list of either (or of
// objects with a name/activity) into one comma-separated line.
func joinValues(v any) string {
	items, ok := v.([]any)
	if !ok {
		return formatScalar(v)
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			for _, key := range []string{"activity", "name", "title", "description"} {
				if s := formatScalar(m[key]); s != "" {
					parts = append(parts, s)
					break
				}
			}
			continue
		}
		if s := formatScalar(item); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	}
	return ""
}
