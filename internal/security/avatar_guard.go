// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// AvatarURLGuardService はアバター参照URLの検証機能のインターフェースを定義する。
// プロフィール更新・サインアップ時の入力境界で使用される。
type AvatarURLGuardService interface {
	// ValidateURL はアバターURLの安全性を検証する。
	// httpsスキームのみ許可し、ホスト名必須、
	// プライベートIP・ループバック・リンクローカルのIPリテラルを拒否する。
	// 危険なURLの場合はエラーを返す。
	ValidateURL(rawURL string) error
}

// blockedNetworks はアバターURLで拒否されるネットワーク範囲。
// パッケージ初期化時に1回だけパースし、ValidateURLでの検証に使用する。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		// プライベートIPアドレス (RFC 1918)
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		// ループバック (RFC 1122)
		"127.0.0.0/8",
		// リンクローカル (RFC 3927) - クラウドメタデータIP (169.254.169.254) を含む
		"169.254.0.0/16",
		// カレントネットワーク
		"0.0.0.0/8",
		// IPv6ループバック
		"::1/128",
		// IPv6リンクローカル
		"fe80::/10",
		// IPv6ユニークローカル
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// avatarURLGuard はAvatarURLGuardServiceの実装。
type avatarURLGuard struct{}

// NewAvatarURLGuard はAvatarURLGuardServiceの新しいインスタンスを生成する。
func NewAvatarURLGuard() *avatarURLGuard {
	return &avatarURLGuard{}
}

// ValidateURL はアバターURLの安全性を検証する。
func (g *avatarURLGuard) ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("URLのパースに失敗しました: %w", err)
	}

	// アバターはブラウザから参照される画像のため、httpsのみ許可する
	if u.Scheme != "https" {
		return fmt.Errorf("許可されていないスキームです: %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("ホスト名が指定されていません")
	}

	// IPリテラルの場合はブロック対象ネットワークを検証する。
	// ホスト名の場合のDNS解決は行わない（このシステムは外部フェッチを行わないため、
	// 表示時のリスクはブラウザ側のコンテンツポリシーに委ねる）。
	if ip := net.ParseIP(host); ip != nil {
		for _, network := range blockedNetworks {
			if network.Contains(ip) {
				return fmt.Errorf("プライベートネットワークへの参照は許可されていません: %s", host)
			}
		}
	}

	return nil
}
