// Package handler は観測用HTTPエンドポイントのルーティングを提供する。
// チャット・認証のHTTPサーフェスは存在しない（全ての操作はプロセス内呼び出し）。
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/mapchats/internal/metrics"
)

// RosterReader はヘルスチェックが参照する名簿の読み取りインターフェース。
type RosterReader interface {
	Count() int
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Roster   RosterReader
	Gatherer prometheus.Gatherer
}

// healthResponse は/healthzのレスポンスボディ。
type healthResponse struct {
	Status string `json:"status"`
	Users  int    `json:"users"`
}

// NewRouter は観測用エンドポイントのルーティングを構成したchi.Routerを返す。
//
//	GET /healthz  - 稼働状態と名簿上のユーザー数
//	GET /metrics  - Prometheusスクレイプ
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		resp := healthResponse{Status: "ok"}
		if deps.Roster != nil {
			resp.Users = deps.Roster.Count()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}
