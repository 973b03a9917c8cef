package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/nat20/internal/middleware"
	"github.com/hitoshi/nat20/internal/model"
	"github.com/hitoshi/nat20/internal/session"
)

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	// SignIn は認証してトークンとプロフィールを返す。
	SignIn(ctx context.Context, username, password string) (*session.SignInResult, error)
	// SignOut は指定された方式でセッションを失効させる。
	SignOut(ctx context.Context, token string, method model.SignOutMethod) error
	// CurrentUser はアクセストークンから本人のプロフィールを返す。
	CurrentUser(ctx context.Context, accessToken string) (*model.User, error)
}

// SessionMetrics はセッションハンドラーが記録するメトリクスのインターフェース。
// metrics.Collectorの部分集合として定義する。
type SessionMetrics interface {
	RecordSignInSuccess()
	RecordSignInFailure()
	RecordSignOut(method string)
}

// noopSessionMetrics はメトリクス未設定時のフォールバック。
type noopSessionMetrics struct{}

func (noopSessionMetrics) RecordSignInSuccess()        {}
func (noopSessionMetrics) RecordSignInFailure()        {}
func (noopSessionMetrics) RecordSignOut(method string) {}

// SessionHandler はセッション管理のHTTPハンドラー。
type SessionHandler struct {
	service SessionServiceInterface
	metrics SessionMetrics
}

// NewSessionHandler はSessionHandlerを生成する。metricsはnil可。
func NewSessionHandler(service SessionServiceInterface, m SessionMetrics) *SessionHandler {
	if m == nil {
		m = noopSessionMetrics{}
	}
	return &SessionHandler{
		service: service,
		metrics: m,
	}
}

// signInRequest はサインインリクエストのボディ。
type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// signOutRequest はサインアウトリクエストのボディ。
type signOutRequest struct {
	Method string `json:"method"`
}

// signInResponse はサインイン成功時のAPIレスポンス。
type signInResponse struct {
	Tokens tokensResponse `json:"tokens"`
	User   userResponse   `json:"user"`
}

// tokensResponse はトークン一式のAPIレスポンス。
type tokensResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int32  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// SignIn はサインインを処理する。
// POST /api/session/signin
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	result, err := h.service.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		h.metrics.RecordSignInFailure()
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSignInSuccess()
	writeSuccessResponse(w, signInResponse{
		Tokens: tokensResponse{
			AccessToken:  result.Tokens.AccessToken,
			IDToken:      result.Tokens.IDToken,
			RefreshToken: result.Tokens.RefreshToken,
			ExpiresIn:    result.Tokens.ExpiresIn,
			TokenType:    result.Tokens.TokenType,
		},
		User: toUserResponse(result.User),
	})
}

// SignOut はサインアウトを処理する。
// トークンはAuthorizationヘッダーから、方式はボディの{method}から受け取る。
// POST /api/session/signout
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.TokenFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewNotAuthenticatedError())
		return
	}

	var req signOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	method := model.SignOutMethod(req.Method)
	if err := h.service.SignOut(r.Context(), token, method); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSignOut(string(method))
	writeSuccessResponse(w, nil)
}

// Me は本人のプロフィールを返す。
// GET /api/session/me
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.TokenFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewNotAuthenticatedError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccessResponse(w, toUserResponse(user))
}
