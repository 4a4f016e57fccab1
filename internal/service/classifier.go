package service

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandAffirm
	CommandDecline
	CommandCheaper
	CommandChangeDestination
	CommandShorter
)

func (k CommandKind) String() string {
	switch k {
	case CommandAffirm:
		return "affirm"
	case CommandDecline:
		return "decline"
	case CommandCheaper:
		return "cheaper"
	case CommandChangeDestination:
		return "change_destination"
	case CommandShorter:
		return "shorter"
	}
	return "unknown"
}

// Command is a classified user message. Place is only set for
// CommandChangeDestination, and may be empty when the user asked to change
// destination without naming one.
type Command struct {
	Kind  CommandKind
	Place string
}

var (
	affirmPhrases  = []string{"yes", "yeah", "yep", "sure", "ok", "okay", "go ahead", "sounds good", "let's do it"}
	declinePhrases = []string{"no", "nah", "nope", "not really", "later", "maybe later"}
	cheaperPhrases = []string{"cheaper", "less budget"}
	shorterPhrases = []string{"shorter", "1 day"}

	changeDestinationRe = regexp.MustCompile(`(?i)\bchange\s+(?:the\s+)?destination\b(?:\s+to\s+(.+))?`)
	// A place name ends at the first clause boundary; a period counts only
	// before a space or the end of the message.
	clauseBoundaryRe = regexp.MustCompile(`(?i)[,;?!]|\.(?:\s|$)|\s(?:and|but|please|then|instead)\b`)
)

// Classifier maps free text onto the small command vocabulary of the staged
// dialogue. Phrases match on word boundaries, so "know" never reads as "no".
type Classifier struct {
	places   map[string]string
	keywords []string // longest first, so "alibaug beach" wins over "alibaug"
}

// NewClassifier takes lower-case place keywords mapped to display names.
func NewClassifier(places map[string]string) *Classifier {
	keywords := make([]string, 0, len(places))
	for k := range places {
		keywords = append(keywords, k)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if len(keywords[i]) != len(keywords[j]) {
			return len(keywords[i]) > len(keywords[j])
		}
		return keywords[i] < keywords[j]
	})
	return &Classifier{places: places, keywords: keywords}
}

// Confirmation classifies a reply to "shall I build an itinerary?".
// Negatives win over affirmatives: "no thanks, ok" declines.
func (c *Classifier) Confirmation(message string) Command {
	text := normalize(message)
	switch {
	case containsAny(text, declinePhrases):
		return Command{Kind: CommandDecline}
	case containsAny(text, affirmPhrases):
		return Command{Kind: CommandAffirm}
	}
	return Command{Kind: CommandUnknown}
}

// Modification classifies a request to adjust a built itinerary.
func (c *Classifier) Modification(message string) Command {
	text := normalize(message)

	if containsAny(text, cheaperPhrases) {
		return Command{Kind: CommandCheaper}
	}
	if m := changeDestinationRe.FindStringSubmatch(message); m != nil {
		return Command{Kind: CommandChangeDestination, Place: c.resolvePlace(m[1])}
	}
	if place := c.findPlace(text); place != "" {
		return Command{Kind: CommandChangeDestination, Place: place}
	}
	if containsAny(text, shorterPhrases) {
		return Command{Kind: CommandShorter}
	}
	return Command{Kind: CommandUnknown}
}

// resolvePlace turns the text after "change destination to" into a place
// name, preferring the catalog spelling when it names a known place.
func (c *Classifier) resolvePlace(target string) string {
	if loc := clauseBoundaryRe.FindStringIndex(target); loc != nil {
		target = target[:loc[0]]
	}
	target = strings.TrimFunc(target, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if target == "" {
		return ""
	}
	if place := c.findPlace(normalize(target)); place != "" {
		return place
	}
	return target
}

func (c *Classifier) findPlace(text string) string {
	for _, k := range c.keywords {
		if strings.Contains(text, " "+k+" ") {
			return c.places[k]
		}
	}
	return ""
}

// normalize lower-cases s, turns everything but letters, digits and
// apostrophes into single spaces, and pads both ends with a space so
// phrases can be matched as " phrase ".
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
			space = false
			continue
		}
		if r == '’' {
			b.WriteByte('\'')
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, " "+p+" ") {
			return true
		}
	}
	return false
}
