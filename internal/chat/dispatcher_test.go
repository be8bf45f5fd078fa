package chat

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/mapchats/internal/model"
	"github.com/hitoshi/mapchats/internal/security"
)

// --- モック定義 ---

// mockTransport はTransportのテスト用モック。
type mockTransport struct {
	deliverFunc func(msg *model.Message) error
	delivered   []*model.Message
}

func (m *mockTransport) Deliver(msg *model.Message) error {
	m.delivered = append(m.delivered, msg)
	if m.deliverFunc != nil {
		return m.deliverFunc(msg)
	}
	return nil
}

func newTestDispatcher(d *Directory) *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		Directory: d,
		Sanitizer: security.NewContentSanitizer(),
	})
}

// --- 送信 ---

func TestSend_AppendsInInsertionOrder(t *testing.T) {
	d := newTestDirectory()
	p := newTestDispatcher(d)
	c, _ := d.GetOrCreate("me", "u2")

	first, err := p.Send(c.ID, "me", "first", model.KindText)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	second, err := p.Send(c.ID, "u2", "second", model.KindText)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if first.ID == second.ID {
		t.Error("message ids should be unique")
	}

	log := d.Messages(c.ID)
	if len(log) != 2 {
		t.Fatalf("len(Messages()) = %d, want 2", len(log))
	}
	if log[0].ID != first.ID || log[1].ID != second.ID {
		t.Error("message log not in insertion order")
	}
	if log[0].Content != "first" || log[1].Content != "second" {
		t.Errorf("log contents = %q, %q", log[0].Content, log[1].Content)
	}
}

func TestSend_SetsTimestampAndKind(t *testing.T) {
	d := newTestDirectory()
	p := newTestDispatcher(d)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	c, _ := d.GetOrCreate("me", "u2")
	msg, err := p.Send(c.ID, "me", "🎉", model.KindEmoji)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if !msg.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", msg.CreatedAt, fixed)
	}
	if msg.Kind != model.KindEmoji {
		t.Errorf("Kind = %q, want emoji", msg.Kind)
	}
	// 追記により会話の更新時刻も進む
	chats := d.Chats()
	if !chats[0].UpdatedAt.Equal(fixed) {
		t.Errorf("chat UpdatedAt = %v, want %v", chats[0].UpdatedAt, fixed)
	}
}

// --- 検証 ---

func TestSend_RejectsEmptyContent(t *testing.T) {
	d := newTestDirectory()
	p := newTestDispatcher(d)
	c, _ := d.GetOrCreate("me", "u2")

	tests := []struct {
		name    string
		content string
		kind    model.MessageKind
	}{
		{"empty text", "", model.KindText},
		{"whitespace text", "   \t\n", model.KindText},
		{"empty voice ref", "", model.KindVoice},
		{"tags only text", "<script>alert(1)</script>", model.KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Send(c.ID, "me", tt.content, tt.kind)
			if err == nil {
				t.Fatal("Send() error = nil, want validation error")
			}
			if !model.IsCategory(err, model.CategoryValidation) {
				t.Errorf("error category: got %v, want validation", err)
			}
		})
	}

	if len(d.Messages(c.ID)) != 0 {
		t.Error("rejected message reached the log")
	}
}

func TestSend_RejectsUnknownKind(t *testing.T) {
	d := newTestDirectory()
	p := newTestDispatcher(d)
	c, _ := d.GetOrCreate("me", "u2")

	_, err := p.Send(c.ID, "me", "hello", model.MessageKind("video"))
	if err == nil {
		t.Fatal("Send() error = nil, want validation error")
	}
	if !model.IsCategory(err, model.CategoryValidation) {
		t.Errorf("error category: got %v, want validation", err)
	}
}

func TestSend_UnknownChat(t *testing.T) {
	d := newTestDirectory()
	p := newTestDispatcher(d)

	_, err := p.Send("no-such-chat", "me", "hello", model.KindText)
	if err == nil {
		t.Fatal("Send() error = nil, want chat not found")
	}
	if !model.IsCategory(err, model.CategoryChat) {
		t.Errorf("error category: got %v, want chat", err)
	}
}

func TestSend_SanitizesTextContent(t *testing.T) {
	d := newTestDirectory()
	p := newTestDispatcher(d)
	c, _ := d.GetOrCreate("me", "u2")

	msg, err := p.Send(c.ID, "me", `hey <script>alert(1)</script>there`, model.KindText)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if strings.Contains(msg.Content, "<script") {
		t.Errorf("Content contains script tag: %q", msg.Content)
	}
	if !strings.Contains(msg.Content, "there") {
		t.Errorf("Content lost text: %q", msg.Content)
	}
}

// --- 未読カウンタの副作用 ---

// TestSend_UnreadSideEffect は非選択中の会話への送信1回につき未読が
// ちょうど1増え、選択中の会話では増えないことを検証する。
func TestSend_UnreadSideEffect(t *testing.T) {
	d := newTestDirectory()
	p := newTestDispatcher(d)

	foreground, _ := d.GetOrCreate("me", "u2")
	background, _ := d.GetOrCreate("me", "u3")
	d.Select(foreground.ID)

	p.Send(background.ID, "u3", "ping", model.KindText)
	p.Send(background.ID, "u3", "ping again", model.KindText)
	p.Send(foreground.ID, "u2", "hello", model.KindText)

	if got := d.Unread(background.ID); got != 2 {
		t.Errorf("Unread(background) = %d, want 2", got)
	}
	if got := d.Unread(foreground.ID); got != 0 {
		t.Errorf("Unread(foreground) = %d, want 0", got)
	}
}

// --- 配送フック ---

func TestSend_InvokesTransport(t *testing.T) {
	d := newTestDirectory()
	tr := &mockTransport{}
	p := NewDispatcher(DispatcherConfig{Directory: d, Transport: tr})
	c, _ := d.GetOrCreate("me", "u2")

	msg, err := p.Send(c.ID, "me", "hello", model.KindText)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(tr.delivered) != 1 {
		t.Fatalf("transport received %d messages, want 1", len(tr.delivered))
	}
	if tr.delivered[0].ID != msg.ID {
		t.Errorf("delivered message id = %q, want %q", tr.delivered[0].ID, msg.ID)
	}
}

// TestSend_TransportFailureDoesNotFailSend は配送失敗が送信を
// 失敗させないことを検証する（リトライ経路は存在しない）。
func TestSend_TransportFailureDoesNotFailSend(t *testing.T) {
	d := newTestDirectory()
	tr := &mockTransport{
		deliverFunc: func(msg *model.Message) error { return errors.New("backend down") },
	}
	p := NewDispatcher(DispatcherConfig{Directory: d, Transport: tr})
	c, _ := d.GetOrCreate("me", "u2")

	msg, err := p.Send(c.ID, "me", "hello", model.KindText)
	if err != nil {
		t.Fatalf("Send() error = %v, want nil despite transport failure", err)
	}
	if msg == nil {
		t.Fatal("Send() returned nil message")
	}
	if len(d.Messages(c.ID)) != 1 {
		t.Error("message missing from log after transport failure")
	}
}

// --- フラッドガード ---

func TestSend_RateLimitsPerSender(t *testing.T) {
	d := newTestDirectory()
	p := NewDispatcher(DispatcherConfig{
		Directory:     d,
		RatePerMinute: 60,
		Burst:         3,
	})
	c, _ := d.GetOrCreate("me", "u2")

	for i := 0; i < 3; i++ {
		if _, err := p.Send(c.ID, "me", "burst", model.KindText); err != nil {
			t.Fatalf("Send() #%d error = %v", i+1, err)
		}
	}

	_, err := p.Send(c.ID, "me", "one too many", model.KindText)
	if err == nil {
		t.Fatal("Send() error = nil, want rate limit error")
	}
	if !model.IsCategory(err, model.CategoryValidation) {
		t.Errorf("error category: got %v, want validation", err)
	}

	// 別の送信者は影響を受けない
	if _, err := p.Send(c.ID, "u2", "unaffected", model.KindText); err != nil {
		t.Errorf("other sender was throttled too: %v", err)
	}
}
