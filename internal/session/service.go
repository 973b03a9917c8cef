// Package session はサインイン・サインアウト・本人情報取得のフローを提供する。
//
// セッション状態はすべてIdPが所有する。このサービスはローカルに
// セッションを保存せず、トークンの発行・失効はIdPへの呼び出しに徹する。
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/nat20/internal/idp"
	"github.com/hitoshi/nat20/internal/model"
	"github.com/hitoshi/nat20/internal/repository"
)

// IdentityProvider はセッションフローが必要とするIdP操作のインターフェース。
type IdentityProvider interface {
	// Authenticate はユーザー名とパスワードで認証し、トークンを返す。
	Authenticate(ctx context.Context, username, password string) (*model.SessionTokens, error)
	// FetchProfile はユーザー名で属性を取得する。
	FetchProfile(ctx context.Context, username string) (*idp.Profile, error)
	// FetchProfileByToken はアクセストークンで本人の属性を取得する。
	FetchProfileByToken(ctx context.Context, accessToken string) (*idp.Profile, error)
	// RevokeRefreshToken は指定トークンのみを失効させる。
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
	// GlobalSignOut は該当ユーザーの全セッションを無効化する。
	GlobalSignOut(ctx context.Context, accessToken string) error
}

// SignInResult はサインイン成功時の戻り値。
type SignInResult struct {
	Tokens *model.SessionTokens
	User   *model.User
}

// Service はセッション管理のビジネスロジックを提供する。
type Service struct {
	idp      IdentityProvider
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(provider IdentityProvider, userRepo repository.UserRepository) *Service {
	return &Service{
		idp:      provider,
		userRepo: userRepo,
	}
}

// SignIn は認証してトークンとプロフィールを返す。
// プロフィールはIdPの属性を名前で対応付けて組み立て、
// ローカルにusers行があればそちらの内容（first_name/last_name等）で補完する。
func (s *Service) SignIn(ctx context.Context, username, password string) (*SignInResult, error) {
	if username == "" || password == "" {
		return nil, model.NewInvalidRequestError("username と password は必須です")
	}

	tokens, err := s.idp.Authenticate(ctx, username, password)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		slog.Error("authentication failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProviderError()
	}

	profile, err := s.idp.FetchProfile(ctx, username)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to fetch profile after sign-in: %w", err)
	}

	user, err := s.resolveUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	slog.Info("user signed in", slog.String("user_id", user.ID))

	return &SignInResult{Tokens: tokens, User: user}, nil
}

// SignOut は指定された方式でセッションを失効させる。
// basic はリフレッシュトークンの失効のみ、global は全セッションの無効化。
// 未対応の方式はIdPに到達する前にUNSUPPORTED_METHODで失敗させる。
func (s *Service) SignOut(ctx context.Context, token string, method model.SignOutMethod) error {
	if token == "" {
		return model.NewNotAuthenticatedError()
	}

	switch method {
	case model.SignOutBasic:
		if err := s.idp.RevokeRefreshToken(ctx, token); err != nil {
			slog.Error("token revocation failed", slog.String("error", err.Error()))
			return model.NewProviderError()
		}
	case model.SignOutGlobal:
		if err := s.idp.GlobalSignOut(ctx, token); err != nil {
			var apiErr *model.APIError
			if errors.As(err, &apiErr) {
				return apiErr
			}
			slog.Error("global sign-out failed", slog.String("error", err.Error()))
			return model.NewProviderError()
		}
	default:
		return model.NewUnsupportedMethodError(string(method))
	}

	slog.Info("user signed out", slog.String("method", string(method)))
	return nil
}

// CurrentUser はアクセストークンから本人のプロフィールを返す。副作用はない。
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*model.User, error) {
	if accessToken == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	profile, err := s.idp.FetchProfileByToken(ctx, accessToken)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		slog.Error("profile fetch by token failed", slog.String("error", err.Error()))
		return nil, model.NewNotAuthenticatedError()
	}

	return s.resolveUser(ctx, profile)
}

// resolveUser はIdPのプロフィールをUserに変換する。
// ローカル行が存在すればそちらを正とする（first_name/last_nameはローカルにのみある）。
// ローカル行の照会に失敗してもIdPの属性のみで組み立てて返す。
func (s *Service) resolveUser(ctx context.Context, profile *idp.Profile) (*model.User, error) {
	local, err := s.userRepo.FindByID(ctx, profile.Sub)
	if err != nil {
		slog.Warn("local user lookup failed, falling back to provider attributes",
			slog.String("sub", profile.Sub),
			slog.String("error", err.Error()),
		)
	}
	if local != nil {
		return local, nil
	}

	return &model.User{
		ID:          profile.Sub,
		Username:    profile.Username,
		Email:       profile.Email,
		PhoneNumber: profile.PhoneNumber,
	}, nil
}
