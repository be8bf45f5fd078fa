package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/mapchats/internal/chat"
	"github.com/hitoshi/mapchats/internal/config"
	"github.com/hitoshi/mapchats/internal/handler"
	"github.com/hitoshi/mapchats/internal/logger"
	"github.com/hitoshi/mapchats/internal/metrics"
	"github.com/hitoshi/mapchats/internal/model"
	"github.com/hitoshi/mapchats/internal/presence"
	"github.com/hitoshi/mapchats/internal/roster"
	"github.com/hitoshi/mapchats/internal/security"
	"github.com/hitoshi/mapchats/internal/session"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) *config.Config {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む（全項目デフォルトありのため失敗しない）
	return config.Load()
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg := Init(w)

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("backend_url", cfg.BackendURL),
	)

	return runDemo(cfg)
}

// runDemo はデモセッションモードで起動する。
// 全コンポーネントをワイヤリングし、観測用HTTPリスナーを起動したうえで
// デモ資格情報による一連のシナリオ（認証確認→名簿取得→サインイン→
// チャット作成→メッセージ送信→プレゼンス購読）を実行する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runDemo(cfg *config.Config) error {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. 名簿の初期化（シードユーザーを投入）
	r := roster.New(cfg.RosterFetchDelay, slog.Default())

	// 3. セキュリティサービスの初期化
	sanitizer := security.NewContentSanitizer()
	avatarGuard := security.NewAvatarURLGuard()

	// 4. セッションストアの初期化
	sess := session.NewStore(session.StoreConfig{
		Backend:     session.NewDemoBackend(),
		Roster:      r,
		Sanitizer:   sanitizer,
		AvatarGuard: avatarGuard,
		Metrics:     collector,
		Logger:      slog.Default(),
		MapCenter: model.Coordinates{
			Latitude:  cfg.MapCenterLatitude,
			Longitude: cfg.MapCenterLongitude,
		},
	})

	// 5. チャットディレクトリとディスパッチャの初期化
	dir := chat.NewDirectory(collector, slog.Default())
	disp := chat.NewDispatcher(chat.DispatcherConfig{
		Directory:     dir,
		Sanitizer:     sanitizer,
		Metrics:       collector,
		Logger:        slog.Default(),
		RatePerMinute: cfg.SendRatePerMinute,
		Burst:         cfg.SendBurst,
	})

	// サインアウト時にチャット状態を破棄するカスケード
	sess.OnSignOut(dir.Reset)

	// 6. プレゼンスフィードの初期化
	feed := presence.NewFeed(presence.FeedConfig{
		Roster:      r,
		Interval:    cfg.PresenceInterval,
		OnlineRatio: cfg.PresenceOnlineRatio,
		Metrics:     collector,
		Logger:      slog.Default(),
	})

	// 7. 観測用HTTPリスナーの起動
	router := handler.NewRouter(&handler.RouterDeps{
		Roster:   r,
		Gatherer: registry,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("observability server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	// 8. デモシナリオの実行
	unsubscribe := runScenario(context.Background(), sess, dir, disp, feed, r)
	defer unsubscribe()

	<-stop
	slog.Info("shutting down...")

	unsubscribe()
	sess.SignOut()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("stopped gracefully")
	return nil
}

// runScenario はデモ資格情報による一連のシナリオを実行する。
// 返り値はプレゼンス購読の解除関数（冪等）。
// シナリオ内のエラーはログに記録するのみで、起動を中断しない。
func runScenario(
	ctx context.Context,
	sess *session.Store,
	dir *chat.Directory,
	disp *chat.Dispatcher,
	feed *presence.Feed,
	r *roster.Roster,
) func() {
	// 起動時の認証確認（デモバックエンドでは常に未認証で解決する）
	sess.CheckAuth(ctx)

	active := r.FetchActive(ctx)
	slog.Info("active users fetched", slog.Int("count", len(active)))

	user, err := sess.SignIn(ctx, session.DemoFreeEmail, session.DemoFreePassword)
	if err != nil {
		slog.Error("demo sign-in failed", slog.String("error", err.Error()))
		return func() {}
	}

	unsubscribe := feed.Subscribe(func(online []*model.User) {
		slog.Info("presence update", slog.Int("online", len(online)))
	})

	if len(active) == 0 {
		return unsubscribe
	}

	partner := active[0]
	c, err := dir.GetOrCreate(user.ID, partner.ID)
	if err != nil {
		slog.Error("chat creation failed", slog.String("error", err.Error()))
		return unsubscribe
	}
	dir.Select(c.ID)

	if _, err := disp.Send(c.ID, user.ID, "Hey! I saw you're nearby", model.KindText); err != nil {
		slog.Error("message send failed", slog.String("error", err.Error()))
	}
	if _, err := disp.Send(c.ID, user.ID, "👋", model.KindEmoji); err != nil {
		slog.Error("message send failed", slog.String("error", err.Error()))
	}

	slog.Info("demo scenario completed",
		slog.String("user_id", user.ID),
		slog.String("chat_id", c.ID),
		slog.Int("messages", len(dir.Messages(c.ID))),
	)

	return unsubscribe
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
