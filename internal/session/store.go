package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/mapchats/internal/metrics"
	"github.com/hitoshi/mapchats/internal/model"
	"github.com/hitoshi/mapchats/internal/roster"
	"github.com/hitoshi/mapchats/internal/security"
)

// プロフィール項目の検証範囲。
const (
	minAge = 13
	maxAge = 120
)

// サインイン直後のユーザーを地図中心からずらして配置するオフセット（度）。
const selfMarkerOffset = 0.005

// startupProbeDelay は起動時認証チェックの疑似遅延。
const startupProbeDelay = 100 * time.Millisecond

// ProfileUpdate はプロフィール更新の入力を表す。
// nilの項目は変更しない。
type ProfileUpdate struct {
	Username  *string
	AvatarURL *string
	Age       *int
	Gender    *string
	Bio       *string
}

// StoreConfig はStoreの依存関係をまとめた構造体。
type StoreConfig struct {
	Backend     AuthBackend
	Roster      *roster.Roster
	Sanitizer   security.ContentSanitizerService
	AvatarGuard security.AvatarURLGuardService
	Metrics     metrics.Recorder
	Logger      *slog.Logger
	MapCenter   model.Coordinates
}

// Store は現在のサインイン状態を排他的に所有するストア。
// 状態遷移は SignedOut → SignedIn → SignedOut のみで、同時セッションは存在しない。
type Store struct {
	mu sync.RWMutex

	backend     AuthBackend
	roster      *roster.Roster
	sanitizer   security.ContentSanitizerService
	avatarGuard security.AvatarURLGuardService
	metrics     metrics.Recorder
	logger      *slog.Logger
	mapCenter   model.Coordinates

	current       *model.User
	authenticated bool
	loading       bool

	onSignOut []func()

	now func() time.Time
}

// NewStore はStoreを生成する。プロセス起動時は未認証・ローディング中の状態。
func NewStore(cfg StoreConfig) *Store {
	if cfg.Backend == nil {
		cfg.Backend = NewDemoBackend()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{
		backend:     cfg.Backend,
		roster:      cfg.Roster,
		sanitizer:   cfg.Sanitizer,
		avatarGuard: cfg.AvatarGuard,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		mapCenter:   cfg.MapCenter,
		loading:     true,
		now:         time.Now,
	}
}

// OnSignOut はサインアウト時のカスケードに参加する購読者を登録する。
// 下流コンポーネント（チャットディレクトリ等）はセッションとの独立性を
// 仮定せず、この購読を通して自身の状態を破棄する。
func (s *Store) OnSignOut(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSignOut = append(s.onSignOut, fn)
}

// CheckAuth は起動時の認証状態チェックを行う。
// 疑似遅延の後、未認証状態としてローディングを解除する
// （実バックエンドが存在しないため、復元されるセッションはない）。
func (s *Store) CheckAuth(ctx context.Context) {
	_ = ctx
	time.Sleep(startupProbeDelay)

	s.mu.Lock()
	s.current = nil
	s.authenticated = false
	s.loading = false
	s.mu.Unlock()

	s.logger.Info("起動時の認証チェックが完了しました", slog.Bool("authenticated", false))
}

// SignIn は認証バックエンドでサインインし、セッションを確立する。
// サインイン済みの場合は先に既存セッションをサインアウトしてから置き換える。
// 確立されたユーザーは地図中心近くに配置され、名簿に追加される。
func (s *Store) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("サインインに失敗しました: %w", err)
	}

	if s.IsAuthenticated() {
		s.SignOut()
	}

	s.establish(user)
	s.metrics.RecordSignIn()
	s.logger.Info("サインインしました",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Bool("is_premium", user.IsPremium),
		slog.Bool("is_moderator", user.IsModerator),
	)
	return user.Clone(), nil
}

// SignUp は新規アカウントを作成し、セッションを確立する。
// 作成されるユーザーは常に非プレミアム。
func (s *Store) SignUp(ctx context.Context, email, password, username string) (*model.User, error) {
	user, err := s.backend.SignUp(ctx, email, password, username)
	if err != nil {
		return nil, fmt.Errorf("サインアップに失敗しました: %w", err)
	}

	if s.IsAuthenticated() {
		s.SignOut()
	}

	s.establish(user)
	s.metrics.RecordSignUp()
	s.logger.Info("サインアップしました",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user.Clone(), nil
}

// establish はユーザーを現在のセッションとして設定し、名簿に追加する。
func (s *Store) establish(user *model.User) {
	if !user.HasLocation() {
		user.Location = &model.Coordinates{
			Latitude:  s.mapCenter.Latitude + selfMarkerOffset,
			Longitude: s.mapCenter.Longitude + selfMarkerOffset,
		}
	}
	user.IsOnline = true

	s.mu.Lock()
	s.current = user
	s.authenticated = true
	s.loading = false
	s.mu.Unlock()

	if s.roster != nil {
		s.roster.Add(user)
	}
}

// SignOut はセッションを破棄する。
// 現在のユーザーを名簿から取り除き、登録済みのカスケード購読者を実行する。
// 未認証時はno-op。
func (s *Store) SignOut() {
	s.mu.Lock()
	user := s.current
	if user == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.authenticated = false
	subscribers := make([]func(), len(s.onSignOut))
	copy(subscribers, s.onSignOut)
	s.mu.Unlock()

	if s.roster != nil {
		s.roster.Remove(user.ID)
	}
	for _, fn := range subscribers {
		fn()
	}

	s.metrics.RecordSignOut()
	s.logger.Info("サインアウトしました", slog.String("user_id", user.ID))
}

// UpgradeToPremium は現在のユーザーのプレミアムフラグを有効にする。冪等。
// 未認証時はPreconditionErrorを返す。決済フローは存在しない。
func (s *Store) UpgradeToPremium() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return model.NewNotSignedInError("UpgradeToPremium")
	}
	if s.current.IsPremium {
		return nil
	}
	s.current.IsPremium = true
	s.current.UpdatedAt = s.now()
	s.syncRosterLocked()

	s.logger.Info("プレミアムにアップグレードしました", slog.String("user_id", s.current.ID))
	return nil
}

// UpdateProfile は現在のユーザーの可変プロフィール項目を更新する。
// 未認証時はPreconditionError、検証に失敗した項目がある場合は
// ValidationErrorを返し、どの項目も変更しない。
func (s *Store) UpdateProfile(update ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return model.NewNotSignedInError("UpdateProfile")
	}

	// 全項目を先に検証してから適用する
	if update.Username != nil && strings.TrimSpace(*update.Username) == "" {
		return model.NewInvalidProfileError("表示名が空です")
	}
	if update.Age != nil && (*update.Age < minAge || *update.Age > maxAge) {
		return model.NewInvalidProfileError(fmt.Sprintf("年齢は%d〜%dの範囲で指定してください", minAge, maxAge))
	}
	if update.AvatarURL != nil && s.avatarGuard != nil {
		if err := s.avatarGuard.ValidateURL(*update.AvatarURL); err != nil {
			return model.NewInvalidAvatarURLError(err.Error())
		}
	}

	if update.Username != nil {
		s.current.Username = strings.TrimSpace(*update.Username)
	}
	if update.AvatarURL != nil {
		s.current.AvatarURL = *update.AvatarURL
	}
	if update.Age != nil {
		s.current.Age = *update.Age
	}
	if update.Gender != nil {
		s.current.Gender = *update.Gender
	}
	if update.Bio != nil {
		bio := *update.Bio
		if s.sanitizer != nil {
			bio = s.sanitizer.SanitizeBio(bio)
		}
		s.current.Bio = bio
	}
	s.current.UpdatedAt = s.now()
	s.syncRosterLocked()

	s.logger.Info("プロフィールを更新しました", slog.String("user_id", s.current.ID))
	return nil
}

// syncRosterLocked は現在のユーザーの変更を名簿へ反映する。呼び出し側でロックすること。
func (s *Store) syncRosterLocked() {
	if s.roster != nil && s.current != nil {
		s.roster.Add(s.current)
	}
}

// CurrentUser は現在のユーザーのコピーを返す。未認証時はnil。
func (s *Store) CurrentUser() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// IsAuthenticated は認証済みかどうかを返す。
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// IsLoading は起動時認証チェックが完了していないかどうかを返す。
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Snapshot は現在のセッション状態のスナップショットを返す。
func (s *Store) Snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Session{
		User:          s.current.Clone(),
		Authenticated: s.authenticated,
		Loading:       s.loading,
	}
}
