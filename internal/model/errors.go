// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, provisioning, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	ErrCodeDuplicateKey       = "DUPLICATE_KEY"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNotAuthenticated   = "NOT_AUTHENTICATED"
	ErrCodeUnsupportedMethod  = "UNSUPPORTED_METHOD"
	ErrCodeProviderError      = "PROVIDER_ERROR"
	ErrCodeDBError            = "DB_ERROR"
	ErrCodeProvisioningFailed = "PROVISIONING_FAILED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeCampaignNotFound   = "CAMPAIGN_NOT_FOUND"
)

// NewInvalidRequestError は不正なリクエストエラーを生成する。
// IdPやDBに到達する前のローカル検証で使用する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認して再度お試しください。",
	}
}

// NewDuplicateIdentityError はIdP側のユーザー名重複エラーを生成する。
func NewDuplicateIdentityError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateIdentity,
		Message:  fmt.Sprintf("このユーザー名は既に使用されています: %s", username),
		Category: "provisioning",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewDuplicateKeyError はDB側の一意制約違反エラーを生成する。
func NewDuplicateKeyError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateKey,
		Message:  "同一のユーザーが既に登録されています。",
		Category: "provisioning",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewNotAuthenticatedError は未認証エラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "認証されていません。",
		Category: "auth",
		Action:   "サインインしてください。",
	}
}

// NewUnsupportedMethodError は未対応のサインアウト方式エラーを生成する。
func NewUnsupportedMethodError(method string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedMethod,
		Message:  fmt.Sprintf("未対応のサインアウト方式です: %s", method),
		Category: "validation",
		Action:   "basic または global を指定してください。",
	}
}

// NewProviderError はIdP呼び出し失敗エラーを生成する。
// IdPが返した詳細はログにのみ記録し、レスポンスには含めない。
func NewProviderError() *APIError {
	return &APIError{
		Code:     ErrCodeProviderError,
		Message:  "認証基盤の呼び出しに失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewDBError はデータベース操作失敗エラーを生成する。
func NewDBError() *APIError {
	return &APIError{
		Code:     ErrCodeDBError,
		Message:  "データベース操作に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewProvisioningFailedError はアカウント作成の部分失敗エラーを生成する。
// IdP側の作成は成功しローカル登録に失敗した状態を示す。
// この状態は補償では解消できないため、照合ジョブによる後始末の対象となる。
func NewProvisioningFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeProvisioningFailed,
		Message:  "アカウント作成が完了しませんでした。",
		Category: "provisioning",
		Action:   "時間をおいても解決しない場合はサポートへお問い合わせください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "サインインし直してください。",
	}
}

// NewCampaignNotFoundError はキャンペーンが見つからない場合のエラーを生成する。
func NewCampaignNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCampaignNotFound,
		Message:  fmt.Sprintf("指定されたキャンペーンが見つかりません: %s", id),
		Category: "campaign",
		Action:   "キャンペーンIDを確認してください。",
	}
}
