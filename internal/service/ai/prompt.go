package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
)

const (
	promptCatchphraseLimit = 6
	promptExpressionLimit  = 3
	promptSeparator        = "、"
)

// BuildPrompt renders the role-play instruction for one user turn. The user
// message is embedded verbatim.
func BuildPrompt(profile character.Profile, userMessage string) string {
	return fmt.Sprintf(`あなたは「%[1]s」というキャラクターです。以下の設定に従って会話してください。

【キャラクター設定】
名前: %[1]s
一人称: %[2]s
二人称: %[3]s
性格: %[4]s

【話し方の特徴】
%[5]s

【よく使う口癖・語尾】
%[6]s

【感情表現例】
%[7]s

【重要な指示】
1. 必ず上記のキャラクター設定に従って応答してください
2. 口癖を自然に会話に織り交ぜてください
3. そのキャラクターらしい感情表現を使ってください
4. 日本語で応答してください
5. 親しみやすい口調で話してください
6. 200文字以内で応答してください

ユーザーのメッセージ: "%[8]s"

上記のメッセージに対して、%[1]sとして応答してください。`,
		profile.Name,
		strings.Join(profile.FirstPerson, promptSeparator),
		strings.Join(profile.SecondPerson, promptSeparator),
		strings.Join(profile.Personality, promptSeparator),
		strings.Join(profile.SpeechFeatures, promptSeparator),
		strings.Join(head(profile.Catchphrases, promptCatchphraseLimit), promptSeparator),
		strings.Join(head(profile.Expressions(), promptExpressionLimit), promptSeparator),
		userMessage,
	)
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
