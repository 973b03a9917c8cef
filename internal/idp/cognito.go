// Package idp はCognitoユーザープールに対する管理操作のラッパーを提供する。
//
// 認証情報（パスワード、トークン）の状態はすべてCognito側が所有し、
// このパッケージはリモート呼び出しの薄い層に徹する。ローカル状態は持たない。
// 各操作はCognitoの例外型をアプリケーションのエラー分類（model.APIError）に
// 変換して返す。分類できないエラーはラップしてそのまま返し、呼び出し側で
// サーバーエラーとして扱う。
package idp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/hitoshi/nat20/internal/model"
)

// Profile はIdPから取得したユーザー属性を表す。
// 属性は必ず名前で対応付ける。Cognitoが返す属性配列の順序は保証されない。
type Profile struct {
	Sub         string
	Username    string
	Email       string
	PhoneNumber string
}

// LatencyRecorder はIdP呼び出しのレイテンシを操作別に記録するインターフェース。
// metrics.Collectorの部分集合として定義する。
type LatencyRecorder interface {
	RecordProviderLatency(operation string, duration time.Duration)
}

// Config はCognitoクライアントの設定。
type Config struct {
	Region     string
	UserPoolID string
	ClientID   string

	// ローカル開発用。未設定なら通常の資格情報チェーンを使う。
	AccessKeyID     string
	SecretAccessKey string
	EndpointURL     string

	// nilの場合はレイテンシを記録しない。
	Metrics LatencyRecorder
}

// CognitoProvider はCognitoユーザープールへの管理操作を発行するクライアント。
type CognitoProvider struct {
	client     *cognitoidentityprovider.Client
	userPoolID string
	clientID   string
	metrics    LatencyRecorder
}

// NewCognitoProvider はCognitoProviderを生成する。
// 静的資格情報が指定された場合はそれを使い、未指定なら
// 通常の資格情報チェーン（IAMロール、環境変数等）に従う。
func NewCognitoProvider(ctx context.Context, cfg Config) (*CognitoProvider, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := cognitoidentityprovider.NewFromConfig(awsCfg, func(o *cognitoidentityprovider.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
	})

	return &CognitoProvider{
		client:     client,
		userPoolID: cfg.UserPoolID,
		clientID:   cfg.ClientID,
		metrics:    cfg.Metrics,
	}, nil
}

// observe は操作のレイテンシを記録する。deferで使用する。
func (p *CognitoProvider) observe(operation string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordProviderLatency(operation, time.Since(start))
	}
}

// CreateIdentity は通知を抑制した状態でユーザープールにアカウントを作成し、
// IdPが発行したsub識別子を返す。
// ユーザー名が重複している場合はDUPLICATE_IDENTITYエラーを返す。
func (p *CognitoProvider) CreateIdentity(ctx context.Context, username, email, phoneNumber string) (string, error) {
	defer p.observe("admin_create_user", time.Now())

	attrs := []types.AttributeType{
		{Name: aws.String("email"), Value: aws.String(email)},
		{Name: aws.String("phone_number"), Value: aws.String(phoneNumber)},
	}

	out, err := p.client.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:     aws.String(p.userPoolID),
		Username:       aws.String(username),
		MessageAction:  types.MessageActionTypeSuppress,
		UserAttributes: attrs,
	})
	if err != nil {
		var exists *types.UsernameExistsException
		if errors.As(err, &exists) {
			return "", model.NewDuplicateIdentityError(username)
		}
		return "", fmt.Errorf("failed to create identity: %w", err)
	}

	if out.User == nil {
		return "", fmt.Errorf("identity provider returned no user for %q", username)
	}
	profile := profileFromAttributes(username, out.User.Attributes)
	if profile.Sub == "" {
		return "", fmt.Errorf("identity provider returned no sub attribute for %q", username)
	}

	return profile.Sub, nil
}

// SetPermanentCredential は永続パスワードを設定し、アカウントを確認済みにする。
func (p *CognitoProvider) SetPermanentCredential(ctx context.Context, username, password string) error {
	defer p.observe("admin_set_user_password", time.Now())

	_, err := p.client.AdminSetUserPassword(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		Permanent:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to set permanent credential: %w", err)
	}
	return nil
}

// Authenticate はユーザー名とパスワードで認証し、セッショントークンを返す。
// 認証失敗（パスワード不一致、ユーザー不在）はINVALID_CREDENTIALSエラーに丸める。
// ユーザーの存在有無をレスポンスから区別できないようにするため。
func (p *CognitoProvider) Authenticate(ctx context.Context, username, password string) (*model.SessionTokens, error) {
	defer p.observe("initiate_auth", time.Now())

	out, err := p.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		var notAuthorized *types.NotAuthorizedException
		var notFound *types.UserNotFoundException
		if errors.As(err, &notAuthorized) || errors.As(err, &notFound) {
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	result := out.AuthenticationResult
	if result == nil {
		// チャレンジ応答が必要なケース。本サービスはチャレンジフローを使わない。
		return nil, model.NewInvalidCredentialsError()
	}

	return &model.SessionTokens{
		AccessToken:  aws.ToString(result.AccessToken),
		IDToken:      aws.ToString(result.IdToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		ExpiresIn:    result.ExpiresIn,
		TokenType:    aws.ToString(result.TokenType),
	}, nil
}

// FetchProfile は管理APIでユーザー属性を取得する。
// ユーザーが存在しない場合はUSER_NOT_FOUNDエラーを返す。
func (p *CognitoProvider) FetchProfile(ctx context.Context, username string) (*Profile, error) {
	defer p.observe("admin_get_user", time.Now())

	out, err := p.client.AdminGetUser(ctx, &cognitoidentityprovider.AdminGetUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		var notFound *types.UserNotFoundException
		if errors.As(err, &notFound) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	profile := profileFromAttributes(aws.ToString(out.Username), out.UserAttributes)
	return &profile, nil
}

// FetchProfileByToken はアクセストークンで本人のユーザー属性を取得する。
// トークンが無効・失効している場合はNOT_AUTHENTICATEDエラーを返す。
func (p *CognitoProvider) FetchProfileByToken(ctx context.Context, accessToken string) (*Profile, error) {
	defer p.observe("get_user", time.Now())

	out, err := p.client.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		var notAuthorized *types.NotAuthorizedException
		if errors.As(err, &notAuthorized) {
			return nil, model.NewNotAuthenticatedError()
		}
		return nil, fmt.Errorf("failed to fetch profile by token: %w", err)
	}

	profile := profileFromAttributes(aws.ToString(out.Username), out.UserAttributes)
	return &profile, nil
}

// RevokeRefreshToken は指定されたリフレッシュトークンを失効させる。
// 他のセッションには影響しない。
func (p *CognitoProvider) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	defer p.observe("revoke_token", time.Now())

	_, err := p.client.RevokeToken(ctx, &cognitoidentityprovider.RevokeTokenInput{
		ClientId: aws.String(p.clientID),
		Token:    aws.String(refreshToken),
	})
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// GlobalSignOut は該当ユーザーの全セッションを無効化する。
func (p *CognitoProvider) GlobalSignOut(ctx context.Context, accessToken string) error {
	defer p.observe("global_sign_out", time.Now())

	_, err := p.client.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		var notAuthorized *types.NotAuthorizedException
		if errors.As(err, &notAuthorized) {
			return model.NewNotAuthenticatedError()
		}
		return fmt.Errorf("failed to global sign out: %w", err)
	}
	return nil
}

// DeleteIdentity はユーザープールからアカウントを削除する。
// アカウント作成サガの補償処理としてのみ使用する。
// すでに存在しない場合はエラーとしない（補償の再実行を安全にするため）。
func (p *CognitoProvider) DeleteIdentity(ctx context.Context, username string) error {
	defer p.observe("admin_delete_user", time.Now())

	_, err := p.client.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		var notFound *types.UserNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return nil
}

// profileFromAttributes はIdPの属性配列をProfileに変換する。
// 対応付けは属性名のみで行う。配列内の位置には依存しない。
func profileFromAttributes(username string, attrs []types.AttributeType) Profile {
	p := Profile{Username: username}
	for _, attr := range attrs {
		if attr.Name == nil || attr.Value == nil {
			continue
		}
		switch *attr.Name {
		case "sub":
			p.Sub = *attr.Value
		case "email":
			p.Email = *attr.Value
		case "phone_number":
			p.PhoneNumber = *attr.Value
		}
	}
	return p
}
