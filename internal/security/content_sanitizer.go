// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はユーザー入力（チャット本文・プロフィール自己紹介）を
// サニタイズし、XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグのみを通過させる。
package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizerService はユーザー入力サニタイズ機能のインターフェースを定義する。
// メッセージ送信時およびプロフィール更新時に使用される。
type ContentSanitizerService interface {
	// SanitizeMessage はチャット本文をサニタイズしてプレーンテキストを返す。
	// 全てのHTMLタグを除去する。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeMessage(raw string) string

	// SanitizeBio は自己紹介文をサニタイズして安全なHTMLを返す。
	// 許可タグ（strong, em, br）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	SanitizeBio(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	messagePolicy *bluemonday.Policy
	bioPolicy     *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - メッセージ本文: StrictPolicy（全タグ除去、テキストのみ通過）
//   - 自己紹介文: strong, em, br のみ許可。リンクと画像は許可しない
//     （プロフィールに外部リンクを埋め込ませないため）
func NewContentSanitizer() *contentSanitizer {
	bio := bluemonday.NewPolicy()
	bio.AllowElements("strong", "em", "br")

	return &contentSanitizer{
		messagePolicy: bluemonday.StrictPolicy(),
		bioPolicy:     bio,
	}
}

// SanitizeMessage はチャット本文をサニタイズしてプレーンテキストを返す。
func (s *contentSanitizer) SanitizeMessage(raw string) string {
	return s.messagePolicy.Sanitize(raw)
}

// SanitizeBio は自己紹介文をサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) SanitizeBio(raw string) string {
	return s.bioPolicy.Sanitize(raw)
}
