// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// IDはIdPが発行したsub識別子であり、アプリケーション側では採番しない。
// 認証情報（パスワード等）はIdPのみが保持し、このモデルには含まれない。
type User struct {
	ID          string
	Username    string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionTokens はIdPが発行したセッショントークン一式を表す。
// ローカルにセッション状態は保持せず、トークンの有効性判断はIdPに委ねる。
type SessionTokens struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int32
	TokenType    string
}

// SignOutMethod はサインアウト方式を表す閉じた列挙。
type SignOutMethod string

const (
	// SignOutBasic は指定されたリフレッシュトークンのみを無効化する。
	SignOutBasic SignOutMethod = "basic"
	// SignOutGlobal は該当ユーザーの全セッションを無効化する。
	SignOutGlobal SignOutMethod = "global"
)
