package character

// Emotion names one of the fixed expression buckets a profile can carry.
type Emotion string

const (
	Happy      Emotion = "happy"
	Troubled   Emotion = "troubled"
	Interested Emotion = "interested"
)

// Emotions returns the buckets in prompt order.
func Emotions() []Emotion {
	return []Emotion{Happy, Troubled, Interested}
}

// Favorite is one liked item, optionally with the reason the character gives.
type Favorite struct {
	Item   string `json:"item"`
	Reason string `json:"reason,omitempty"`
}

// ConversationExample is a single sample exchange from the profile document.
type ConversationExample struct {
	User      string `json:"user"`
	Character string `json:"character"`
}

// Profile is the structured persona parsed from one character document.
type Profile struct {
	Name                 string               `json:"name"`
	Description          string               `json:"description,omitempty"`
	Avatar               string               `json:"avatar,omitempty"`
	Color                string               `json:"color,omitempty"`
	Background           string               `json:"background,omitempty"`
	FirstPerson          []string             `json:"firstPerson"`
	SecondPerson         []string             `json:"secondPerson"`
	Personality          []string             `json:"personality"`
	Catchphrases         []string             `json:"catchphrases"`
	EmotionalExpressions map[Emotion][]string `json:"emotionalExpressions"`
	Favorites            []Favorite           `json:"favorites"`
	SpeechFeatures       []string             `json:"speechFeatures"`
	ConversationExample  *ConversationExample `json:"conversationExample,omitempty"`
}

// NewProfile returns a profile with every collection initialised.
func NewProfile() Profile {
	expressions := make(map[Emotion][]string, 3)
	for _, e := range Emotions() {
		expressions[e] = []string{}
	}
	return Profile{
		FirstPerson:          []string{},
		SecondPerson:         []string{},
		Personality:          []string{},
		Catchphrases:         []string{},
		EmotionalExpressions: expressions,
		Favorites:            []Favorite{},
		SpeechFeatures:       []string{},
	}
}

// Expressions concatenates the emotion buckets in prompt order.
func (p Profile) Expressions() []string {
	var out []string
	for _, e := range Emotions() {
		out = append(out, p.EmotionalExpressions[e]...)
	}
	return out
}
