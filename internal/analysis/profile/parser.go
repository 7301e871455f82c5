// Package profile turns a character Markdown document into a structured
// character.Profile.
//
// The document schema is fixed: a "# Name" title, "##" sections, "###"
// subsections, "- **Key**: value" attribute bullets, plain "- value" bullets
// and "**Label**: 「text」" emphasis lines. Anything else is ignored, so Parse
// never fails.
package profile

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
)

// Section and subsection headings the parser routes on.
const (
	SectionSpeech       = "話し方・口癖"
	SectionReactions    = "キャラクター反応"
	SectionConversation = "会話例"

	SubsectionCatchphrases   = "語尾・口癖"
	SubsectionEmotions       = "感情表現"
	SubsectionSpeechFeatures = "話し方の特徴"
	SubsectionFavorites      = "好きなもの"

	userSpeaker   = "ユーザー"
	listSeparator = "、"
)

var (
	favoritePattern = regexp.MustCompile(`^(.+?)（(.+)）$`)
	emotionPattern  = regexp.MustCompile(`\*\*(.+?)\*\*:\s*「(.+?)」`)
)

var emotionLabels = map[string]character.Emotion{
	"嬉しい時":   character.Happy,
	"困った時":   character.Troubled,
	"興味を示す時": character.Interested,
}

// attributes maps "- **Key**: value" keys onto profile fields. A repeated key
// overwrites the earlier value.
var attributes = map[string]func(p *character.Profile, value string){
	"名前":   func(p *character.Profile, v string) { p.Name = v },
	"アバター": func(p *character.Profile, v string) { p.Avatar = v },
	"色":    func(p *character.Profile, v string) { p.Color = v },
	"背景":   func(p *character.Profile, v string) { p.Background = v },
	"説明":   func(p *character.Profile, v string) { p.Description = v },
	"一人称":  func(p *character.Profile, v string) { p.FirstPerson = splitList(v) },
	"二人称":  func(p *character.Profile, v string) { p.SecondPerson = splitList(v) },
	"性格":   func(p *character.Profile, v string) { p.Personality = splitList(v) },
}

type state int

const (
	stateNone state = iota
	stateInSection
	stateInSubsection
)

type lineKind int

const (
	kindBlank lineKind = iota
	kindTitle
	kindSection
	kindSubsection
	kindAttribute
	kindBullet
	kindEmphasis
	kindOther
)

type transition struct {
	state state
	kind  lineKind
}

type handler func(p *parser, line string)

// dispatch lists every (state, kind) pair that does something. Missing pairs
// are ignored lines.
var dispatch = map[transition]handler{}

func init() {
	for _, s := range []state{stateNone, stateInSection, stateInSubsection} {
		dispatch[transition{s, kindTitle}] = (*parser).onTitle
		dispatch[transition{s, kindSection}] = (*parser).onSection
		dispatch[transition{s, kindAttribute}] = (*parser).onAttribute
	}
	for _, s := range []state{stateInSection, stateInSubsection} {
		dispatch[transition{s, kindSubsection}] = (*parser).onSubsection
		dispatch[transition{s, kindEmphasis}] = (*parser).onEmphasis
	}
	dispatch[transition{stateInSubsection, kindBullet}] = (*parser).onBullet
}

type parser struct {
	state      state
	section    string
	subsection string
	profile    character.Profile
}

// Parse scans the document top to bottom and returns the extracted profile.
// Absent sections leave empty collections behind.
func Parse(document string) character.Profile {
	p := &parser{profile: character.NewProfile()}

	text := strings.ReplaceAll(norm.NFC.String(document), "\r\n", "\n")
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if h, ok := dispatch[transition{p.state, classify(line)}]; ok {
			h(p, line)
		}
	}

	return p.profile
}

func classify(line string) lineKind {
	switch {
	case line == "":
		return kindBlank
	case strings.HasPrefix(line, "### "):
		return kindSubsection
	case strings.HasPrefix(line, "## "):
		return kindSection
	case strings.HasPrefix(line, "# "):
		return kindTitle
	case strings.HasPrefix(line, "- **") && strings.Contains(line, "**:"):
		return kindAttribute
	case strings.HasPrefix(line, "- "):
		return kindBullet
	case strings.HasPrefix(line, "**") && strings.Contains(line, "**:"):
		return kindEmphasis
	default:
		return kindOther
	}
}

func (p *parser) onTitle(line string) {
	if p.profile.Name == "" {
		p.profile.Name = strings.TrimPrefix(line, "# ")
	}
}

func (p *parser) onSection(line string) {
	p.section = strings.TrimPrefix(line, "## ")
	p.subsection = ""
	p.state = stateInSection
}

func (p *parser) onSubsection(line string) {
	p.subsection = strings.TrimPrefix(line, "### ")
	p.state = stateInSubsection
}

func (p *parser) onAttribute(line string) {
	rest := strings.TrimPrefix(line, "- **")
	idx := strings.Index(rest, "**:")
	if idx < 0 {
		return
	}
	if set, ok := attributes[rest[:idx]]; ok {
		set(&p.profile, strings.TrimSpace(rest[idx+len("**:"):]))
	}
}

func (p *parser) onBullet(line string) {
	value := strings.TrimPrefix(line, "- ")

	switch {
	case p.section == SectionSpeech && p.subsection == SubsectionCatchphrases:
		p.profile.Catchphrases = append(p.profile.Catchphrases, value)
	case p.section == SectionReactions && p.subsection == SubsectionSpeechFeatures:
		p.profile.SpeechFeatures = append(p.profile.SpeechFeatures, value)
	case p.section == SectionReactions && p.subsection == SubsectionFavorites:
		p.profile.Favorites = append(p.profile.Favorites, parseFavorite(value))
	}
}

func (p *parser) onEmphasis(line string) {
	if p.section == SectionSpeech && p.subsection == SubsectionEmotions {
		if m := emotionPattern.FindStringSubmatch(line); m != nil {
			if e, ok := emotionLabels[m[1]]; ok {
				p.profile.EmotionalExpressions[e] = append(p.profile.EmotionalExpressions[e], m[2])
			}
		}
	}

	if p.section == SectionConversation {
		p.onConversation(line)
	}
}

func (p *parser) onConversation(line string) {
	userPrefix := "**" + userSpeaker + "**:"
	characterPrefix := "**" + p.profile.Name + "**:"

	switch {
	case strings.HasPrefix(line, userPrefix):
		p.profile.ConversationExample = &character.ConversationExample{
			User: strings.TrimSpace(strings.TrimPrefix(line, userPrefix)),
		}
	case strings.HasPrefix(line, characterPrefix):
		if p.profile.ConversationExample != nil {
			p.profile.ConversationExample.Character = strings.TrimSpace(strings.TrimPrefix(line, characterPrefix))
		}
	}
}

func parseFavorite(value string) character.Favorite {
	if m := favoritePattern.FindStringSubmatch(value); m != nil {
		return character.Favorite{Item: strings.TrimSpace(m[1]), Reason: strings.TrimSpace(m[2])}
	}
	return character.Favorite{Item: strings.TrimSpace(value)}
}

func splitList(value string) []string {
	parts := strings.Split(value, listSeparator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}
