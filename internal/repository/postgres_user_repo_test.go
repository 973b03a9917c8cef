package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"

	"github.com/hitoshi/nat20/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresCampaignRepoはCampaignRepositoryインターフェースを満たすことを検証
func TestPostgresCampaignRepo_ImplementsInterface(t *testing.T) {
	var _ CampaignRepository = (*PostgresCampaignRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresCampaignRepoが正しく初期化されることを検証
func TestNewPostgresCampaignRepo_Initializes(t *testing.T) {
	repo := NewPostgresCampaignRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// pqの一意制約違反がDUPLICATE_KEYエラーに分類されることの検証
// （DB接続なしでエラーコードの対応のみ確認する）
func TestUniqueViolation_MapsToDuplicateKey(t *testing.T) {
	pqErr := &pq.Error{Code: pq.ErrorCode(uniqueViolation)}

	var target *pq.Error
	if !errors.As(error(pqErr), &target) {
		t.Fatal("expected errors.As to match *pq.Error")
	}
	if target.Code != uniqueViolation {
		t.Errorf("Code = %q, want %q", target.Code, uniqueViolation)
	}

	apiErr := model.NewDuplicateKeyError()
	if apiErr.Code != model.ErrCodeDuplicateKey {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateKey)
	}
}

// キャンペーン一覧の上限が10件であることを検証
func TestCampaignListLimit_IsTen(t *testing.T) {
	if campaignListLimit != 10 {
		t.Errorf("campaignListLimit = %d, want 10", campaignListLimit)
	}
}
