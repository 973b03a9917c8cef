// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はキャンペーンの説明文など利用者が入力した
// テキストをサニタイズし、保存前にXSSのリスクを除去する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 装飾用の最小限のタグのみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は入力テキストのサニタイズ機能のインターフェースを定義する。
// キャンペーンの作成時、説明文・タイトルの保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力テキストをサニタイズして安全なテキストを返す。
	// 許可タグ（p, br, ul, ol, li, blockquote, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// SanitizePlain はすべてのタグを除去し、プレーンテキストのみを返す。
	// タイトルのような装飾を許可しないフィールドに使用する。
	SanitizePlain(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 説明文用の許可リストポリシーと、タイトル用の全タグ除去ポリシーを構築する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// 説明文で許可する装飾タグ。リンクや画像は許可しない。
	// script, iframe, style等は許可リストに含めないことで自動的に除去される。
	// on*イベント属性はbluemondayのデフォルトで許可されないため除去される。
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "strong", "em",
	)

	return &contentSanitizer{
		policy: p,
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストをサニタイズして安全なテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}

// SanitizePlain はすべてのタグを除去し、プレーンテキストのみを返す。
func (s *contentSanitizer) SanitizePlain(raw string) string {
	return s.strict.Sanitize(raw)
}
