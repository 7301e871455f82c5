// Package emotion tags a character reply with one of the profile's emotion
// buckets so clients can pick a matching expression.
package emotion

import (
	"strings"

	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
)

// Decision 给出情绪识别结果。Emotion 为空表示中性。
type Decision struct {
	Emotion character.Emotion
	Score   int
}

// Neutral reports whether no bucket was detected.
func (d Decision) Neutral() bool {
	return d.Emotion == ""
}

const (
	phraseWeight  = 4
	keywordWeight = 2
)

var keywordBuckets = map[character.Emotion][]string{
	character.Happy: {
		"嬉しい", "うれしい", "楽しい", "たのしい", "やった", "最高", "わーい", "よかった", "ありがとう",
		"大好き", "幸せ", "しあわせ", "笑", "わくわく", "ワクワク", "うきうき", "♪",
	},
	character.Troubled: {
		"困った", "こまった", "どうしよう", "うーん", "むむ", "ごめん", "すまない", "申し訳",
		"わからない", "分からない", "難しい", "むずかしい", "悲しい", "かなしい", "つらい", "辛い", "…",
	},
	character.Interested: {
		"気になる", "きになる", "教えて", "おしえて", "なるほど", "へえ", "へぇ", "ほう", "本当",
		"ほんと", "すごい", "面白い", "おもしろい", "知りたい", "どうして", "なんで", "興味",
	},
}

// punctuationBoost 按标点给情绪加分。
var punctuationBoost = map[string]character.Emotion{
	"！": character.Happy,
	"!": character.Happy,
	"？": character.Interested,
	"?": character.Interested,
}

// Analyze 根据角色的情感表现与用户话语推断回复的情绪。
func Analyze(profile character.Profile, userUtterance, reply string) Decision {
	replyScore := scoreText(profile, reply)
	if !replyScore.Neutral() {
		return replyScore
	}

	// 回复缺少明显情感时，沿用用户的情绪。
	return scoreText(character.Profile{}, userUtterance)
}

func scoreText(profile character.Profile, text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{}
	}

	scores := make(map[character.Emotion]int)
	for _, e := range character.Emotions() {
		for _, phrase := range profile.EmotionalExpressions[e] {
			phrase = strings.Trim(strings.TrimSpace(phrase), "「」")
			if phrase != "" && strings.Contains(normalized, strings.ToLower(phrase)) {
				scores[e] += phraseWeight
			}
		}
		for _, word := range keywordBuckets[e] {
			if strings.Contains(normalized, word) {
				scores[e] += keywordWeight
			}
		}
	}

	for mark, e := range punctuationBoost {
		scores[e] += strings.Count(text, mark)
	}

	var best Decision
	for _, e := range character.Emotions() {
		if scores[e] > best.Score {
			best = Decision{Emotion: e, Score: scores[e]}
		}
	}
	return best
}
