package model

import "time"

// Chat は2者間の会話コンテナを表す。
// Participantsは常に2要素で、同一ペアに対してセッション中は同じIDが維持される。
type Chat struct {
	ID           string
	Participants [2]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasParticipant は指定ユーザーが会話の参加者かどうかを返す。
func (c *Chat) HasParticipant(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// Clone はChatのコピーを返す。
func (c *Chat) Clone() *Chat {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// MessageKind はメッセージ種別を表す。
type MessageKind string

const (
	// KindText はテキストメッセージ。
	KindText MessageKind = "text"
	// KindVoice はボイスメッセージ。
	KindVoice MessageKind = "voice"
	// KindEmoji は絵文字リアクションメッセージ。
	KindEmoji MessageKind = "emoji"
)

// Valid は既知のメッセージ種別かどうかを返す。
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindVoice, KindEmoji:
		return true
	}
	return false
}

// Message は会話ログ内の1メッセージを表す。
// 会話ログ内では追記専用で、作成後に変更されることはない。
type Message struct {
	ID        string
	ChatID    string
	SenderID  string
	Content   string
	Kind      MessageKind
	CreatedAt time.Time
}
