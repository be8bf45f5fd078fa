package chat

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/mapchats/internal/metrics"
	"github.com/hitoshi/mapchats/internal/model"
	"github.com/hitoshi/mapchats/internal/security"
	"golang.org/x/time/rate"
)

// Transport はメッセージ配送の拡張ポイント。
// このシステムでは実際の配送は行わないが、実バックエンド接続時は
// この実装を差し替える。配送失敗は送信自体を失敗させない
// （リトライすべきトランジェント障害の経路が存在しないため）。
type Transport interface {
	// Deliver は作成済みメッセージを下流へ引き渡す。
	Deliver(msg *model.Message) error
}

// NopTransport は何も配送しないTransport実装。
type NopTransport struct{}

// Deliver は常に成功する。
func (NopTransport) Deliver(msg *model.Message) error { return nil }

// DispatcherConfig はDispatcherの依存関係をまとめた構造体。
type DispatcherConfig struct {
	Directory *Directory
	Sanitizer security.ContentSanitizerService
	Transport Transport
	Metrics   metrics.Recorder
	Logger    *slog.Logger

	// 送信フラッドガード（送信者ごと）。0以下はデフォルト値を使用する。
	RatePerMinute int
	Burst         int
}

// Dispatcher はメッセージの作成と会話ログへの追記を行う。
type Dispatcher struct {
	dir       *Directory
	sanitizer security.ContentSanitizerService
	transport Transport
	metrics   metrics.Recorder
	logger    *slog.Logger

	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	now   func() time.Time
	newID func() string
}

// NewDispatcher はDispatcherを生成する。
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Transport == nil {
		cfg.Transport = NopTransport{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	return &Dispatcher{
		dir:       cfg.Directory,
		sanitizer: cfg.Sanitizer,
		transport: cfg.Transport,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		limit:     rate.Limit(float64(cfg.RatePerMinute) / 60.0),
		burst:     cfg.Burst,
		limiters:  make(map[string]*rate.Limiter),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Send はメッセージを作成して会話ログへ追記し、作成されたレコードを返す。
//
// 検証: 本文が空または空白のみの場合はValidationError、
// 不明なメッセージ種別の場合もValidationError、
// 会話が存在しない場合はChatNotFoundエラーを返す。
// テキスト本文はHTMLを除去してから追記する。
//
// 副作用: 追記先が選択中の会話でなければ未読カウンタが1増える。
// 配送確認・リトライ・クライアント間の順序保証は提供しない。
func (p *Dispatcher) Send(chatID, senderID, content string, kind model.MessageKind) (*model.Message, error) {
	if !kind.Valid() {
		return nil, model.NewInvalidMessageKindError(string(kind))
	}
	if strings.TrimSpace(content) == "" {
		return nil, model.NewEmptyMessageError()
	}
	if kind == model.KindText && p.sanitizer != nil {
		content = p.sanitizer.SanitizeMessage(content)
		if strings.TrimSpace(content) == "" {
			return nil, model.NewEmptyMessageError()
		}
	}

	if !p.limiterFor(senderID).Allow() {
		return nil, model.NewSendRateLimitedError()
	}

	msg := &model.Message{
		ID:        p.newID(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Kind:      kind,
		CreatedAt: p.now(),
	}

	if err := p.dir.appendMessage(msg); err != nil {
		return nil, err
	}

	// 配送失敗はログに残すのみで送信は成功扱いとする
	if err := p.transport.Deliver(msg); err != nil {
		p.logger.Warn("メッセージの配送に失敗しました",
			slog.String("message_id", msg.ID),
			slog.String("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}

	p.metrics.RecordMessageSent(string(kind))
	p.logger.Info("メッセージを送信しました",
		slog.String("message_id", msg.ID),
		slog.String("chat_id", chatID),
		slog.String("sender_id", senderID),
		slog.String("kind", string(kind)),
	)

	cp := *msg
	return &cp, nil
}

// limiterFor は送信者ごとのレートリミッターを返す。
func (p *Dispatcher) limiterFor(senderID string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.limiters[senderID]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[senderID] = l
	}
	return l
}
