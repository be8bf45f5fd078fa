// Package session はサインイン状態の管理を提供する。
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/mapchats/internal/model"
)

// AuthBackend は外部認証サービスのインターフェース。
// 実バックエンド（Supabase等）に差し替えるための抽象化で、
// 認証失敗時はCategoryAuthのAppErrorを返す契約とする。
type AuthBackend interface {
	// SignInWithPassword はメールアドレスとパスワードで認証し、ユーザーを返す。
	SignInWithPassword(ctx context.Context, email, password string) (*model.User, error)
	// SignUp は新規アカウントを作成し、ユーザーを返す。
	SignUp(ctx context.Context, email, password, username string) (*model.User, error)
}

// デモ用クレデンシャル。メールアドレスとパスワードの完全一致で役割が決まる。
const (
	DemoModeratorEmail    = "mod@mapchats.dev"
	DemoModeratorPassword = "moderator"
	DemoPremiumEmail      = "premium@mapchats.dev"
	DemoPremiumPassword   = "premium"
	DemoFreeEmail         = "free@mapchats.dev"
	DemoFreePassword      = "free"
)

// DemoBackend はデモ用の決定的な認証バックエンド。
// 固定のデモクレデンシャルに一致すれば役割付きユーザーを、
// それ以外のあらゆる入力にはメールのローカル部を名前にした通常ユーザーを返す。
// 常に成功するプレースホルダー実装であり、セキュリティモデルではない。
type DemoBackend struct {
	now func() time.Time
}

// NewDemoBackend はDemoBackendを生成する。
func NewDemoBackend() *DemoBackend {
	return &DemoBackend{now: time.Now}
}

// SignInWithPassword はデモクレデンシャル表と照合してユーザーを返す。
// どのパターンにも一致しない入力も通常ユーザーとして成功する。
func (b *DemoBackend) SignInWithPassword(ctx context.Context, email, password string) (*model.User, error) {
	switch {
	case email == DemoModeratorEmail && password == DemoModeratorPassword:
		u := b.newUser(email, "map_moderator")
		u.IsModerator = true
		u.IsPremium = true
		return u, nil
	case email == DemoPremiumEmail && password == DemoPremiumPassword:
		u := b.newUser(email, "premium_tester")
		u.IsPremium = true
		return u, nil
	case email == DemoFreeEmail && password == DemoFreePassword:
		return b.newUser(email, "free_tester"), nil
	default:
		return b.newUser(email, localPart(email)), nil
	}
}

// SignUp は常に新規の非プレミアムユーザーを作成する。
// 既存アカウントとの重複チェックは行わない（永続化が存在しないため）。
func (b *DemoBackend) SignUp(ctx context.Context, email, password, username string) (*model.User, error) {
	if username == "" {
		username = localPart(email)
	}
	return b.newUser(email, username), nil
}

func (b *DemoBackend) newUser(email, username string) *model.User {
	now := b.now()
	return &model.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		AvatarURL: avatarURLFor(username),
		IsOnline:  true,
		LastSeen:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// localPart はメールアドレスのローカル部を返す。空の場合は"guest"。
func localPart(email string) string {
	name, _, found := strings.Cut(email, "@")
	if !found || name == "" {
		if email != "" {
			return email
		}
		return "guest"
	}
	return name
}

// avatarURLFor はユーザー名から決定的なアバターURLを生成する。
func avatarURLFor(seed string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", seed)
}
