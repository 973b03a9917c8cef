// Package account はアカウント作成サガを提供する。
//
// アカウント作成はIdPとローカルDBにまたがる2段階の書き込みであり、
// 分散トランザクションは使わない。資格情報設定に失敗した場合は
// 補償処理（ID削除）で巻き戻し、資格情報のないアカウントを残さない。
// ローカル登録の失敗はIdP側の作成が既に成功した後に起きるため補償できず、
// 観測可能な部分失敗（PROVISIONING_FAILED）として呼び出し側へ伝える。
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/nat20/internal/model"
	"github.com/hitoshi/nat20/internal/repository"
)

// IdentityProvider はアカウント作成サガが必要とするIdP操作のインターフェース。
type IdentityProvider interface {
	// CreateIdentity はユーザープールにアカウントを作成しsubを返す。
	CreateIdentity(ctx context.Context, username, email, phoneNumber string) (string, error)
	// SetPermanentCredential は永続パスワードを設定し、アカウントを確認済みにする。
	SetPermanentCredential(ctx context.Context, username, password string) error
	// DeleteIdentity はアカウントを削除する。補償処理としてのみ使用する。
	DeleteIdentity(ctx context.Context, username string) error
}

// MetricsRecorder はアカウント作成の結果を記録するインターフェース。
type MetricsRecorder interface {
	RecordProvisioning(outcome string)
}

// アカウント作成の結果分類。メトリクスのラベル値として使う。
const (
	OutcomeSuccess        = "success"
	OutcomeConflict       = "conflict"
	OutcomeCompensated    = "compensated"
	OutcomePartialFailure = "partial_failure"
	OutcomeProviderError  = "provider_error"
)

// CreateAccountInput はアカウント作成の入力。
type CreateAccountInput struct {
	Username    string
	Password    string
	Email       string
	PhoneNumber string
	FirstName   string
	LastName    string
}

// Service はアカウント作成のビジネスロジックを提供する。
type Service struct {
	idp      IdentityProvider
	userRepo repository.UserRepository
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(idp IdentityProvider, userRepo repository.UserRepository, metrics MetricsRecorder) *Service {
	return &Service{
		idp:      idp,
		userRepo: userRepo,
		metrics:  metrics,
	}
}

// CreateAccount はIdPとローカルDBにアカウントを作成する。
//
// 手順:
//  1. 入力検証（username / password / email 必須）
//  2. IdPにアカウント作成（重複なら409相当で終了）
//  3. 永続パスワード設定（失敗時はIdPのアカウントを補償削除してから失敗を返す）
//  4. IdPが発行したsubをIDとしてローカルのusers行を作成
//     （一意制約違反は409相当、その他のDB失敗は補償不能な部分失敗）
//
// リトライは一切行わない。IdPのアカウント作成は冪等でないため、
// この層での自動再試行は重複アカウントを生みうる。
func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput) (*model.User, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	// 1. IdPにアカウントを作成
	sub, err := s.idp.CreateIdentity(ctx, input.Username, input.Email, input.PhoneNumber)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeDuplicateIdentity {
			s.record(OutcomeConflict)
			return nil, apiErr
		}
		slog.Error("identity creation failed",
			slog.String("username", input.Username),
			slog.String("error", err.Error()),
		)
		s.record(OutcomeProviderError)
		return nil, model.NewProvisioningFailedError()
	}

	// 2. 永続パスワードを設定（アカウントを利用可能な状態にする）
	if err := s.idp.SetPermanentCredential(ctx, input.Username, input.Password); err != nil {
		slog.Error("credential setup failed, compensating",
			slog.String("username", input.Username),
			slog.String("sub", sub),
			slog.String("error", err.Error()),
		)

		// 補償: 資格情報のないアカウントを残さない
		if delErr := s.idp.DeleteIdentity(ctx, input.Username); delErr != nil {
			// 補償にも失敗した場合は資格情報のないアカウントが残る。
			// 照合ジョブが拾えるようにログに残す。
			slog.Error("compensating delete failed, orphaned identity remains",
				slog.String("username", input.Username),
				slog.String("sub", sub),
				slog.String("error", delErr.Error()),
			)
		}

		s.record(OutcomeCompensated)
		return nil, model.NewProvisioningFailedError()
	}

	// 3. ローカルのusers行を作成
	user := &model.User{
		ID:          sub,
		Username:    input.Username,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeDuplicateKey {
			s.record(OutcomeConflict)
			return nil, apiErr
		}

		// IdP側の作成は完了しているため、ここからは補償できない。
		// 観測可能な部分失敗として記録し、照合ジョブの後始末に委ねる。
		slog.Error("local user insert failed after identity creation, reconciliation required",
			slog.String("username", input.Username),
			slog.String("sub", sub),
			slog.String("error", err.Error()),
		)
		s.record(OutcomePartialFailure)
		return nil, model.NewProvisioningFailedError()
	}

	slog.Info("account provisioned",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	s.record(OutcomeSuccess)

	return user, nil
}

// validateInput は必須フィールドを検証する。IdPやDBに到達する前に失敗させる。
func validateInput(input CreateAccountInput) error {
	var missing []string
	if input.Username == "" {
		missing = append(missing, "username")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return model.NewInvalidRequestError(fmt.Sprintf("必須フィールドがありません: %v", missing))
	}
	return nil
}

// record はメトリクスが設定されている場合のみ結果を記録する。
func (s *Service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordProvisioning(outcome)
	}
}
