// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"os"
	"strconv"
	"time"
)

// デモ環境のデフォルト値。
// 本物のバックエンドが存在しないため、シークレット未設定は致命的エラーにしない。
const (
	// DefaultBackendURL はスタブ化された外部認証/DBサービスのエンドポイント。
	DefaultBackendURL = "https://hwlefmwmwwxnwcxqnxzc.supabase.co"
	// PlaceholderAnonKey はシークレット未設定時のフォールバック値。
	PlaceholderAnonKey = "mock-key-for-development"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// 外部バックエンド（スタブ）
	BackendURL     string
	BackendAnonKey string

	// Presence
	PresenceInterval    time.Duration
	PresenceOnlineRatio float64

	// Roster
	RosterFetchDelay time.Duration

	// Map
	MapCenterLatitude  float64
	MapCenterLongitude float64
	MapZoom            int

	// 送信フラッドガード
	SendRatePerMinute int
	SendBurst         int

	// 観測用HTTPリスナー
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 全項目にデフォルト値があるため、Loadが失敗することはない。
func Load() *Config {
	return &Config{
		BackendURL:     getEnvString("SUPABASE_URL", DefaultBackendURL),
		BackendAnonKey: getEnvString("SUPABASE_ANON_KEY", PlaceholderAnonKey),

		PresenceInterval:    getEnvDuration("PRESENCE_INTERVAL", 10*time.Second),
		PresenceOnlineRatio: getEnvFloat("PRESENCE_ONLINE_RATIO", 0.9),

		RosterFetchDelay: getEnvDuration("ROSTER_FETCH_DELAY", 500*time.Millisecond),

		MapCenterLatitude:  getEnvFloat("MAP_CENTER_LAT", 40.7128),
		MapCenterLongitude: getEnvFloat("MAP_CENTER_LNG", -74.0060),
		MapZoom:            getEnvInt("MAP_ZOOM", 10),

		SendRatePerMinute: getEnvInt("SEND_RATE_PER_MINUTE", 60),
		SendBurst:         getEnvInt("SEND_BURST", 20),

		ServerPort: getEnvString("SERVER_PORT", "8080"),
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
