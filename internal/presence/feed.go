// Package presence はオンラインユーザーのロースターを定期配信するPresence Feedを提供する。
// 実バックエンドのリアルタイム購読チャンネルの代役で、固定間隔のティッカーで駆動する。
package presence

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/hitoshi/mapchats/internal/metrics"
	"github.com/hitoshi/mapchats/internal/model"
	"github.com/hitoshi/mapchats/internal/roster"
)

// Listener はロースタースナップショットを受け取る購読者。
type Listener func(online []*model.User)

// FeedConfig はFeedの依存関係と動作パラメータをまとめた構造体。
type FeedConfig struct {
	Roster *roster.Roster

	// Interval はティック間隔。0以下はデフォルト10秒。
	Interval time.Duration
	// OnlineRatio はティックごとに各ユーザーが独立にオンラインになる確率。
	// 0以下はデフォルト0.9。前回状態に依存しないメモリレスな再抽選で、
	// 現実的なプレゼンスモデルではなくデモ用の挙動をそのまま再現している。
	OnlineRatio float64
	// Seed は乱数シード。0の場合は現在時刻を使用する。
	Seed int64

	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// Feed はロースターの再計算と購読者への配信を行う。
// 購読者が1人以上いる間だけティッカーゴルーチンが動く。
type Feed struct {
	roster   *roster.Roster
	interval time.Duration
	ratio    float64
	metrics  metrics.Recorder
	logger   *slog.Logger

	mu        sync.Mutex
	rng       *rand.Rand
	listeners map[int]Listener
	nextID    int
	stopCh    chan struct{}
}

// NewFeed はFeedを生成する。
func NewFeed(cfg FeedConfig) *Feed {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.OnlineRatio <= 0 {
		cfg.OnlineRatio = 0.9
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Feed{
		roster:    cfg.Roster,
		interval:  cfg.Interval,
		ratio:     cfg.OnlineRatio,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		listeners: make(map[int]Listener),
	}
}

// Subscribe は購読者を登録し、解除用のハンドルを返す。
// 登録と同時に現在のオンラインロースターで1回即時呼び出した後、
// 固定間隔で再計算したロースターを配信する。
// 返されたハンドルは2回以上呼んでも安全（2回目以降はno-op）。
// 最後の購読者が解除されるとティッカーは停止する。
func (f *Feed) Subscribe(listener Listener) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = listener

	if f.stopCh == nil {
		f.stopCh = make(chan struct{})
		go f.run(f.stopCh)
		f.logger.Info("Presence Feedを開始しました",
			slog.Duration("interval", f.interval),
			slog.Float64("online_ratio", f.ratio),
		)
	}
	f.mu.Unlock()

	// 即時配信（ロック外で呼ぶ）
	listener(f.roster.Online())

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			delete(f.listeners, id)
			if len(f.listeners) == 0 && f.stopCh != nil {
				close(f.stopCh)
				f.stopCh = nil
				f.logger.Info("Presence Feedを停止しました")
			}
		})
	}
}

// ListenerCount は現在の購読者数を返す。
func (f *Feed) ListenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// run はティッカーループ。stopChがcloseされるまで実行を継続する。
func (f *Feed) run(stopCh chan struct{}) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			f.tick()
		}
	}
}

// tick はロースターを再計算して全購読者へ配信する。
func (f *Feed) tick() {
	f.mu.Lock()
	online := f.roster.Reroll(f.rng, f.ratio)
	listeners := make([]Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()

	f.metrics.RecordPresenceTick()
	f.metrics.SetOnlineUsers(len(online))

	for _, l := range listeners {
		l(online)
	}
}
