// Package chat はアクティブな会話とメッセージログの管理を提供する。
// 会話ID→メッセージログの対応はDirectoryが排他的に所有し、
// 全ての読み書きはストア操作を通して行う。
package chat

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/mapchats/internal/metrics"
	"github.com/hitoshi/mapchats/internal/model"
)

// Directory はアクティブな会話の集合と会話ごとの付随状態
// （メッセージログ、未読カウンタ、入力中フラグ、選択状態）を保持するストア。
type Directory struct {
	mu sync.RWMutex

	chats    map[string]*model.Chat
	order    []string // 作成順を維持する
	byPair   map[string]string
	messages map[string][]*model.Message
	unread   map[string]int
	typing   map[string]bool

	selectedID string

	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewDirectory はDirectoryを生成する。
func NewDirectory(rec metrics.Recorder, logger *slog.Logger) *Directory {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		chats:    make(map[string]*model.Chat),
		byPair:   make(map[string]string),
		messages: make(map[string][]*model.Message),
		unread:   make(map[string]int),
		typing:   make(map[string]bool),
		metrics:  rec,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// pairKey は参加者ペアを順序に依存しないキーに正規化する。
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// GetOrCreate は(owner, participant)ペアの会話を返す。
// 既存の会話があればそれを、なければ新しいIDで作成して返す。
// 同一ペアに対してセッション中は冪等。
func (d *Directory) GetOrCreate(ownerID, participantID string) (*model.Chat, error) {
	if ownerID == "" || participantID == "" {
		return nil, model.NewMissingParticipantError()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := pairKey(ownerID, participantID)
	if id, ok := d.byPair[key]; ok {
		return d.chats[id].Clone(), nil
	}

	now := d.now()
	c := &model.Chat{
		ID:           d.newID(),
		Participants: [2]string{ownerID, participantID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.chats[c.ID] = c
	d.order = append(d.order, c.ID)
	d.byPair[key] = c.ID

	d.metrics.RecordChatCreated()
	d.logger.Info("会話を作成しました",
		slog.String("chat_id", c.ID),
		slog.String("owner_id", ownerID),
		slog.String("participant_id", participantID),
	)
	return c.Clone(), nil
}

// Delete は会話とその付随状態（ログ・未読カウンタ・入力中フラグ）を全て削除する。
// 削除対象が選択中だった場合は選択を解除する。存在しないIDはno-op。
func (d *Directory) Delete(chatID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleteLocked(chatID)
}

func (d *Directory) deleteLocked(chatID string) {
	c, ok := d.chats[chatID]
	if !ok {
		return
	}

	delete(d.chats, chatID)
	delete(d.messages, chatID)
	delete(d.unread, chatID)
	delete(d.typing, chatID)
	delete(d.byPair, pairKey(c.Participants[0], c.Participants[1]))
	for i, id := range d.order {
		if id == chatID {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	if d.selectedID == chatID {
		d.selectedID = ""
	}

	d.metrics.RecordChatDeleted()
	d.logger.Info("会話を削除しました", slog.String("chat_id", chatID))
}

// Block は指定ユーザーが参加者に含まれる全ての会話を削除する。
// 該当する会話がなくてもエラーにしない。
func (d *Directory) Block(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var targets []string
	for id, c := range d.chats {
		if c.HasParticipant(userID) {
			targets = append(targets, id)
		}
	}
	for _, id := range targets {
		d.deleteLocked(id)
	}

	d.logger.Info("ユーザーをブロックしました",
		slog.String("user_id", userID),
		slog.Int("deleted_chats", len(targets)),
	)
}

// Select は会話を前面状態にする。選択と同時に未読カウンタをゼロにする
// （これが唯一の既読化メカニズム）。存在しないIDはno-opでnilを返す。
func (d *Directory) Select(chatID string) *model.Chat {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.chats[chatID]
	if !ok {
		return nil
	}
	d.selectedID = chatID
	d.unread[chatID] = 0
	return c.Clone()
}

// Deselect は選択状態を解除する。
func (d *Directory) Deselect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selectedID = ""
}

// Selected は前面状態の会話のコピーを返す。未選択時はnil。
func (d *Directory) Selected() *model.Chat {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.selectedID == "" {
		return nil
	}
	return d.chats[d.selectedID].Clone()
}

// Unread は会話の未読メッセージ数を返す。
func (d *Directory) Unread(chatID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.unread[chatID]
}

// SetTyping は会話の入力中フラグを設定する。
func (d *Directory) SetTyping(chatID string, typing bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.chats[chatID]; !ok {
		return
	}
	d.typing[chatID] = typing
}

// Typing は会話の入力中フラグを返す。
func (d *Directory) Typing(chatID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.typing[chatID]
}

// Chats はアクティブな会話のコピーを作成順で返す。
func (d *Directory) Chats() []*model.Chat {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*model.Chat, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.chats[id].Clone())
	}
	return out
}

// Messages は会話のメッセージログのコピーを挿入順で返す。
// 会話が存在しない場合はnil。
func (d *Directory) Messages(chatID string) []*model.Message {
	d.mu.RLock()
	defer d.mu.RUnlock()

	log, ok := d.messages[chatID]
	if !ok {
		return nil
	}
	out := make([]*model.Message, len(log))
	for i, m := range log {
		cp := *m
		out[i] = &cp
	}
	return out
}

// Reset は全ての会話状態を破棄する。サインアウトカスケードから呼ばれる。
func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.chats = make(map[string]*model.Chat)
	d.order = nil
	d.byPair = make(map[string]string)
	d.messages = make(map[string][]*model.Message)
	d.unread = make(map[string]int)
	d.typing = make(map[string]bool)
	d.selectedID = ""

	d.logger.Info("会話状態をクリアしました")
}

// appendMessage はメッセージを会話ログ末尾に追記し、未読の副作用を適用する。
// 追記先の会話が選択中でなければ未読カウンタを1増やし、選択中ならゼロのまま。
// 会話が存在しない場合はエラーを返す。Dispatcherから呼ばれる。
func (d *Directory) appendMessage(msg *model.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.chats[msg.ChatID]
	if !ok {
		return model.NewChatNotFoundError(msg.ChatID)
	}

	d.messages[msg.ChatID] = append(d.messages[msg.ChatID], msg)
	c.UpdatedAt = msg.CreatedAt

	if d.selectedID != msg.ChatID {
		d.unread[msg.ChatID]++
	}
	return nil
}
