// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// AppError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type AppError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, precondition, chat
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryAuth         = "auth"
	CategoryValidation   = "validation"
	CategoryPrecondition = "precondition"
	CategoryChat         = "chat"
)

// 定義済みエラーコード
const (
	ErrCodeAuthFailed         = "AUTH_FAILED"
	ErrCodeNotSignedIn        = "NOT_SIGNED_IN"
	ErrCodeEmptyMessage       = "EMPTY_MESSAGE"
	ErrCodeInvalidMessageKind = "INVALID_MESSAGE_KIND"
	ErrCodeChatNotFound       = "CHAT_NOT_FOUND"
	ErrCodeMissingParticipant = "MISSING_PARTICIPANT"
	ErrCodeInvalidProfile     = "INVALID_PROFILE"
	ErrCodeInvalidAvatarURL   = "INVALID_AVATAR_URL"
	ErrCodeSendRateLimited    = "SEND_RATE_LIMITED"
)

// IsCategory はerrが指定カテゴリのAppErrorかどうかを判定する。
func IsCategory(err error, category string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category == category
	}
	return false
}

// NewAuthFailedError は認証失敗エラーを生成する。
// デモ用認証バックエンドは常に成功するため現状到達しないが、
// 実バックエンド差し替え時の契約として定義する。
func NewAuthFailedError(reason string) *AppError {
	return &AppError{
		Code:     ErrCodeAuthFailed,
		Message:  fmt.Sprintf("認証に失敗しました: %s", reason),
		Category: CategoryAuth,
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewNotSignedInError はサインイン必須操作が未認証で呼ばれた場合のエラーを生成する。
func NewNotSignedInError(operation string) *AppError {
	return &AppError{
		Code:     ErrCodeNotSignedIn,
		Message:  fmt.Sprintf("サインインしていない状態で %s が呼び出されました。", operation),
		Category: CategoryPrecondition,
		Action:   "先にサインインしてください。",
	}
}

// NewEmptyMessageError は空メッセージエラーを生成する。
func NewEmptyMessageError() *AppError {
	return &AppError{
		Code:     ErrCodeEmptyMessage,
		Message:  "メッセージ本文が空です。",
		Category: CategoryValidation,
		Action:   "本文を入力してから送信してください。",
	}
}

// NewInvalidMessageKindError は不明なメッセージ種別エラーを生成する。
func NewInvalidMessageKindError(kind string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidMessageKind,
		Message:  fmt.Sprintf("不明なメッセージ種別です: %s", kind),
		Category: CategoryValidation,
		Action:   "メッセージ種別には text、voice、emoji のいずれかを指定してください。",
	}
}

// NewChatNotFoundError は会話未検出エラーを生成する。
func NewChatNotFoundError(chatID string) *AppError {
	return &AppError{
		Code:     ErrCodeChatNotFound,
		Message:  fmt.Sprintf("指定された会話が見つかりません: %s", chatID),
		Category: CategoryChat,
		Action:   "会話IDを確認してください。",
	}
}

// NewMissingParticipantError は参加者ID未指定エラーを生成する。
func NewMissingParticipantError() *AppError {
	return &AppError{
		Code:     ErrCodeMissingParticipant,
		Message:  "会話の参加者IDが指定されていません。",
		Category: CategoryValidation,
		Action:   "相手ユーザーを選択してから会話を開始してください。",
	}
}

// NewInvalidProfileError はプロフィール項目の検証エラーを生成する。
func NewInvalidProfileError(reason string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidProfile,
		Message:  fmt.Sprintf("無効なプロフィール項目です: %s", reason),
		Category: CategoryValidation,
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidAvatarURLError はアバターURLの検証エラーを生成する。
func NewInvalidAvatarURLError(reason string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidAvatarURL,
		Message:  fmt.Sprintf("無効なアバターURLです: %s", reason),
		Category: CategoryValidation,
		Action:   "https:// で始まる公開画像URLを指定してください。",
	}
}

// NewSendRateLimitedError は送信レート超過エラーを生成する。
func NewSendRateLimitedError() *AppError {
	return &AppError{
		Code:     ErrCodeSendRateLimited,
		Message:  "メッセージの送信頻度が上限に達しています。",
		Category: CategoryValidation,
		Action:   "しばらく待ってから再度送信してください。",
	}
}
