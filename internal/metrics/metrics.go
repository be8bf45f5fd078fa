// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// 各ストアおよびPresence Feedから利用する。
type Recorder interface {
	RecordSignIn()
	RecordSignUp()
	RecordSignOut()
	RecordMessageSent(kind string)
	RecordChatCreated()
	RecordChatDeleted()
	RecordPresenceTick()
	SetOnlineUsers(count int)
}

// Nop は何も記録しないRecorder実装。テストおよびメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordSignIn()                 {}
func (Nop) RecordSignUp()                 {}
func (Nop) RecordSignOut()                {}
func (Nop) RecordMessageSent(kind string) {}
func (Nop) RecordChatCreated()            {}
func (Nop) RecordChatDeleted()            {}
func (Nop) RecordPresenceTick()           {}
func (Nop) SetOnlineUsers(count int)      {}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signIns      prometheus.Counter
	signUps      prometheus.Counter
	signOuts     prometheus.Counter
	messagesSent *prometheus.CounterVec
	chatsCreated prometheus.Counter
	chatsDeleted prometheus.Counter
	presenceTick prometheus.Counter
	onlineUsers  prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapchats_signin_total",
			Help: "サインイン成功の合計数",
		}),
		signUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapchats_signup_total",
			Help: "サインアップの合計数",
		}),
		signOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapchats_signout_total",
			Help: "サインアウトの合計数",
		}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapchats_messages_sent_total",
			Help: "送信されたメッセージの種別ごとの合計数",
		}, []string{"kind"}),
		chatsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapchats_chats_created_total",
			Help: "作成された会話の合計数",
		}),
		chatsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapchats_chats_deleted_total",
			Help: "削除された会話の合計数",
		}),
		presenceTick: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapchats_presence_ticks_total",
			Help: "Presence Feedのティック実行回数",
		}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mapchats_online_users",
			Help: "現在オンラインのユーザー数",
		}),
	}

	reg.MustRegister(
		c.signIns,
		c.signUps,
		c.signOuts,
		c.messagesSent,
		c.chatsCreated,
		c.chatsDeleted,
		c.presenceTick,
		c.onlineUsers,
	)

	return c
}

// RecordSignIn はサインイン成功を記録する。
func (c *Collector) RecordSignIn() {
	c.signIns.Inc()
}

// RecordSignUp はサインアップを記録する。
func (c *Collector) RecordSignUp() {
	c.signUps.Inc()
}

// RecordSignOut はサインアウトを記録する。
func (c *Collector) RecordSignOut() {
	c.signOuts.Inc()
}

// RecordMessageSent はメッセージ送信を種別付きで記録する。
func (c *Collector) RecordMessageSent(kind string) {
	c.messagesSent.WithLabelValues(kind).Inc()
}

// RecordChatCreated は会話作成を記録する。
func (c *Collector) RecordChatCreated() {
	c.chatsCreated.Inc()
}

// RecordChatDeleted は会話削除を記録する。
func (c *Collector) RecordChatDeleted() {
	c.chatsDeleted.Inc()
}

// RecordPresenceTick はPresence Feedのティック実行を記録する。
func (c *Collector) RecordPresenceTick() {
	c.presenceTick.Inc()
}

// SetOnlineUsers は現在のオンラインユーザー数を記録する。
func (c *Collector) SetOnlineUsers(count int) {
	c.onlineUsers.Set(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
