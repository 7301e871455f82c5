package character

import "strings"

// SummaryCatchphraseLimit caps the catchphrases exposed for character selection.
const SummaryCatchphraseLimit = 4

// Fallbacks for documents that omit presentation attributes.
const (
	DefaultAvatar     = "🎭"
	DefaultColor      = "#808080"
	DefaultBackground = "from-gray-100 to-gray-200"
)

const listSeparator = "、"

// Summary is the public projection of a Profile used by the selection screen.
type Summary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Personality   string   `json:"personality"`
	SpeechPattern string   `json:"speechPattern"`
	Catchphrase   []string `json:"catchphrase"`
	Avatar        string   `json:"avatar"`
	Color         string   `json:"color"`
	Background    string   `json:"background"`
}

// Summarize projects a profile into its selection summary.
func Summarize(id string, p Profile) Summary {
	name := p.Name
	if name == "" {
		name = id
	}

	phrases := p.Catchphrases
	if len(phrases) > SummaryCatchphraseLimit {
		phrases = phrases[:SummaryCatchphraseLimit]
	}

	return Summary{
		ID:            id,
		Name:          name,
		Description:   p.Description,
		Personality:   strings.Join(p.Personality, listSeparator),
		SpeechPattern: strings.Join(p.SpeechFeatures, listSeparator),
		Catchphrase:   append([]string{}, phrases...),
		Avatar:        orDefault(p.Avatar, DefaultAvatar),
		Color:         orDefault(p.Color, DefaultColor),
		Background:    orDefault(p.Background, DefaultBackground),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
