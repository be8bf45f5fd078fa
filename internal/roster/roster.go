// Package roster はマップに表示される既知ユーザーの名簿を管理する。
// 名簿はRosterが排他的に所有し、全ての読み書きはストア操作を通して行う。
package roster

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/hitoshi/mapchats/internal/model"
)

// Roster は既知ユーザーの名簿を保持するインメモリストア。
// シードデータに加え、サインイン/サインアップで作成されたユーザーを保持する。
type Roster struct {
	mu    sync.RWMutex
	users map[string]*model.User
	order []string // 挿入順を維持する

	fetchDelay time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// New はシードユーザーを投入済みのRosterを生成する。
// fetchDelayはFetchActiveの疑似ネットワーク遅延。
func New(fetchDelay time.Duration, logger *slog.Logger) *Roster {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Roster{
		users:      make(map[string]*model.User),
		fetchDelay: fetchDelay,
		logger:     logger,
		now:        time.Now,
	}
	for _, u := range seedUsers() {
		r.put(u)
	}
	return r
}

// put はロックを取得せずにユーザーを格納する。呼び出し側でロックすること。
func (r *Roster) put(u *model.User) {
	if _, exists := r.users[u.ID]; !exists {
		r.order = append(r.order, u.ID)
	}
	r.users[u.ID] = u
}

// Add はユーザーを名簿に追加する。既存IDの場合は置き換える。
func (r *Roster) Add(u *model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(u.Clone())
}

// Remove は指定ユーザーを名簿から削除する。存在しないIDはno-op。
func (r *Roster) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[userID]; !exists {
		return
	}
	delete(r.users, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get は指定ユーザーのコピーを返す。存在しない場合はnil。
func (r *Roster) Get(userID string) *model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[userID].Clone()
}

// Snapshot は全ユーザーのコピーを挿入順で返す。
func (r *Roster) Snapshot() []*model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id].Clone())
	}
	return out
}

// Online はオンラインかつ位置情報を持つユーザーのコピーを挿入順で返す。
// マップ描画コラボレータへ渡すロースターはこの形。
func (r *Roster) Online() []*model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.User
	for _, id := range r.order {
		u := r.users[id]
		if u.IsOnline && u.HasLocation() {
			out = append(out, u.Clone())
		}
	}
	return out
}

// Count は名簿上のユーザー数を返す。
func (r *Roster) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// FetchActive は疑似ネットワーク遅延の後にオンラインユーザー一覧を返す。
// 将来の実フェッチを模したもので、開始後のキャンセルはできず、
// ctxがキャンセルされても結果は必ず解決される。
func (r *Roster) FetchActive(ctx context.Context) []*model.User {
	_ = ctx
	time.Sleep(r.fetchDelay)

	users := r.Online()
	r.logger.Info("アクティブユーザーを取得しました",
		slog.Int("count", len(users)),
		slog.Duration("simulated_delay", r.fetchDelay),
	)
	return users
}

// Reroll は全ユーザーのオンラインフラグを確率ratioで独立に再抽選し、
// 最終確認時刻を更新した上で、オンラインユーザー一覧を返す。
// 前回の状態に依存しない（メモリレス）。Presence Feedのティックから呼ばれる。
func (r *Roster) Reroll(rng *rand.Rand, ratio float64) []*model.User {
	r.mu.Lock()
	now := r.now()
	for _, id := range r.order {
		u := r.users[id]
		u.IsOnline = rng.Float64() < ratio
		u.LastSeen = now
	}
	r.mu.Unlock()

	return r.Online()
}
