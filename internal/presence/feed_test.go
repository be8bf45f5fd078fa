package presence

import (
	"testing"
	"time"

	"github.com/hitoshi/mapchats/internal/model"
	"github.com/hitoshi/mapchats/internal/roster"
)

func newTestFeed(interval time.Duration, ratio float64) *Feed {
	return NewFeed(FeedConfig{
		Roster:      roster.New(0, nil),
		Interval:    interval,
		OnlineRatio: ratio,
		Seed:        1,
	})
}

// TestSubscribe_ImmediateDelivery は購読直後に現在のロースターで
// 1回即時呼び出されることを検証する。
func TestSubscribe_ImmediateDelivery(t *testing.T) {
	f := newTestFeed(time.Hour, 0.9) // ティックは起きない間隔

	var got []*model.User
	unsubscribe := f.Subscribe(func(online []*model.User) {
		got = online
	})
	defer unsubscribe()

	if len(got) != 6 {
		t.Errorf("immediate delivery: len = %d, want 6 seed users", len(got))
	}
}

// TestSubscribe_PeriodicTicks はティックごとに再計算されたロースターが
// 配信されることを検証する。
func TestSubscribe_PeriodicTicks(t *testing.T) {
	f := newTestFeed(5*time.Millisecond, 1.0)

	deliveries := make(chan int, 16)
	unsubscribe := f.Subscribe(func(online []*model.User) {
		select {
		case deliveries <- len(online):
		default:
		}
	})
	defer unsubscribe()

	// 即時配信の分
	<-deliveries

	// ratio=1.0なので各ティックで全6名がオンライン
	for i := 0; i < 3; i++ {
		select {
		case n := <-deliveries:
			if n != 6 {
				t.Errorf("tick delivery #%d: len = %d, want 6", i+1, n)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for tick delivery #%d", i+1)
		}
	}
}

// TestTick_RerollsOnlineFlags はratio=0のティックで全員オフラインになることを検証する。
func TestTick_RerollsOnlineFlags(t *testing.T) {
	f := newTestFeed(5*time.Millisecond, 0.0)
	// NewFeedはratio<=0をデフォルトに丸めるため直接設定する
	f.ratio = 0.0

	deliveries := make(chan int, 16)
	unsubscribe := f.Subscribe(func(online []*model.User) {
		select {
		case deliveries <- len(online):
		default:
		}
	})
	defer unsubscribe()

	// 即時配信はシード状態（全員オンライン）
	if n := <-deliveries; n != 6 {
		t.Fatalf("immediate delivery: len = %d, want 6", n)
	}

	select {
	case n := <-deliveries:
		if n != 0 {
			t.Errorf("tick with ratio=0: len = %d, want 0", n)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick delivery")
	}
}

// TestUnsubscribe_Idempotent は解除ハンドルを複数回呼んでも安全であることを検証する。
func TestUnsubscribe_Idempotent(t *testing.T) {
	f := newTestFeed(time.Hour, 0.9)

	u1 := f.Subscribe(func([]*model.User) {})
	u2 := f.Subscribe(func([]*model.User) {})

	u1()
	u1() // 2回目はno-op
	u1()

	if got := f.ListenerCount(); got != 1 {
		t.Errorf("ListenerCount() = %d, want 1 (double unsubscribe must not remove others)", got)
	}

	u2()
	if got := f.ListenerCount(); got != 0 {
		t.Errorf("ListenerCount() = %d, want 0", got)
	}
}

// TestUnsubscribe_LastListenerStopsTicker は最後の購読者の解除で
// ティックが止まることを検証する。
func TestUnsubscribe_LastListenerStopsTicker(t *testing.T) {
	f := newTestFeed(5*time.Millisecond, 1.0)

	deliveries := make(chan struct{}, 64)
	unsubscribe := f.Subscribe(func([]*model.User) {
		select {
		case deliveries <- struct{}{}:
		default:
		}
	})

	// 最低1ティック受けてから解除する
	<-deliveries
	select {
	case <-deliveries:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first tick")
	}

	unsubscribe()

	// 解除後の配信が止まることを確認する
	for len(deliveries) > 0 {
		<-deliveries
	}
	select {
	case <-deliveries:
		t.Error("received delivery after unsubscribing the last listener")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestSubscribe_RestartsAfterFullUnsubscribe は全購読者解除後の再購読で
// ティッカーが再起動することを検証する。
func TestSubscribe_RestartsAfterFullUnsubscribe(t *testing.T) {
	f := newTestFeed(5*time.Millisecond, 1.0)

	u1 := f.Subscribe(func([]*model.User) {})
	u1()

	deliveries := make(chan struct{}, 16)
	u2 := f.Subscribe(func([]*model.User) {
		select {
		case deliveries <- struct{}{}:
		default:
		}
	})
	defer u2()

	// 即時配信 + 再起動したティッカーからの配信
	<-deliveries
	select {
	case <-deliveries:
	case <-time.After(time.Second):
		t.Fatal("ticker did not restart after re-subscribe")
	}
}

// TestMultipleListeners_AllReceiveTicks は複数購読者が同じティックを
// 受け取ることを検証する。
func TestMultipleListeners_AllReceiveTicks(t *testing.T) {
	f := newTestFeed(5*time.Millisecond, 1.0)

	a := make(chan struct{}, 16)
	b := make(chan struct{}, 16)
	ua := f.Subscribe(func([]*model.User) {
		select {
		case a <- struct{}{}:
		default:
		}
	})
	defer ua()
	ub := f.Subscribe(func([]*model.User) {
		select {
		case b <- struct{}{}:
		default:
		}
	})
	defer ub()

	for name, ch := range map[string]chan struct{}{"a": a, "b": b} {
		// 即時配信
		<-ch
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("listener %s did not receive a tick", name)
		}
	}
}
