package apperror

// Code is one identifier from the closed error taxonomy.
type Code string

const (
	APIKeyMissing  Code = "API_KEY_MISSING"
	APIKeyInvalid  Code = "API_KEY_INVALID"
	APIRateLimit   Code = "API_RATE_LIMIT"
	APIQuota       Code = "API_QUOTA_EXCEEDED"
	APITimeout     Code = "API_TIMEOUT"
	APIInternal    Code = "API_INTERNAL_ERROR"
	NetworkError   Code = "NETWORK_ERROR"
	NetworkTimeout Code = "NETWORK_TIMEOUT"
	NetworkOffline Code = "NETWORK_OFFLINE"

	CharacterNotFound    Code = "CHARACTER_NOT_FOUND"
	CharacterLoadFailed  Code = "CHARACTER_LOAD_FAILED"
	InvalidCharacterData Code = "INVALID_CHARACTER_DATA"

	InvalidInput         Code = "INVALID_INPUT"
	MissingRequiredField Code = "MISSING_REQUIRED_FIELD"

	Unknown  Code = "UNKNOWN_ERROR"
	Internal Code = "INTERNAL_ERROR"
)

// Codes lists the whole taxonomy.
func Codes() []Code {
	return []Code{
		APIKeyMissing, APIKeyInvalid, APIRateLimit, APIQuota, APITimeout, APIInternal,
		NetworkError, NetworkTimeout, NetworkOffline,
		CharacterNotFound, CharacterLoadFailed, InvalidCharacterData,
		InvalidInput, MissingRequiredField,
		Unknown, Internal,
	}
}

var messages = map[Code]string{
	APIKeyMissing:  "APIキーが設定されていません",
	APIKeyInvalid:  "APIキーが無効です",
	APIRateLimit:   "リクエストが多すぎます。しばらく待ってから再試行してください",
	APIQuota:       "API使用量の上限に達しました",
	APITimeout:     "リクエストがタイムアウトしました",
	APIInternal:    "AIサービスに一時的な問題が発生しています",
	NetworkError:   "ネットワーク接続に問題があります",
	NetworkTimeout: "ネットワーク接続がタイムアウトしました",
	NetworkOffline: "インターネット接続を確認してください",

	CharacterNotFound:    "指定されたキャラクターが見つかりません",
	CharacterLoadFailed:  "キャラクター情報の読み込みに失敗しました",
	InvalidCharacterData: "キャラクターデータが破損しています",

	InvalidInput:         "入力内容に問題があります",
	MissingRequiredField: "必須項目が入力されていません",

	Unknown:  "予期しないエラーが発生しました",
	Internal: "システム内部エラーが発生しました",
}

// retryable is the only source of retry decisions; severity plays no part.
var retryable = map[Code]struct{}{
	APITimeout:          {},
	APIInternal:         {},
	NetworkError:        {},
	NetworkTimeout:      {},
	CharacterLoadFailed: {},
}

// DefaultMessage returns the user-facing message for a code.
func (c Code) DefaultMessage() string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return messages[Unknown]
}

// Retryable reports whether the code belongs to the retryable set.
func (c Code) Retryable() bool {
	_, ok := retryable[c]
	return ok
}
