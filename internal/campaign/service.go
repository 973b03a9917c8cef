// Package campaign はキャンペーン管理のドメインロジックを提供する。
package campaign

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hitoshi/nat20/internal/model"
	"github.com/hitoshi/nat20/internal/repository"
	"github.com/hitoshi/nat20/internal/security"
)

// CreateCampaignInput はキャンペーン作成の入力。
// CurrentPlayersは呼び出し側の指定をそのまま受け入れる（型の検証のみ）。
// 未指定の場合はDM本人のみを初期メンバーとする。
type CreateCampaignInput struct {
	DMID            string
	Title           string
	StartDate       string
	Description     string
	CurrentPlayers  []string
	PrivateCampaign bool
}

// Service はキャンペーン管理のサービス層。
type Service struct {
	repo      repository.CampaignRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(repo repository.CampaignRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
	}
}

// Create はキャンペーンを作成する。
// タイトルはタグを全除去、説明文は許可リストでサニタイズしてから保存する。
func (s *Service) Create(ctx context.Context, input CreateCampaignInput) (*model.Campaign, error) {
	if input.DMID == "" {
		return nil, model.NewInvalidRequestError("dm_id は必須です")
	}
	if input.Title == "" {
		return nil, model.NewInvalidRequestError("title は必須です")
	}

	players := input.CurrentPlayers
	if players == nil {
		players = []string{input.DMID}
	}

	campaign := &model.Campaign{
		ID:              uuid.New().String(),
		CampaignName:    s.sanitizer.SanitizePlain(input.Title),
		Description:     s.sanitizer.Sanitize(input.Description),
		StartDate:       input.StartDate,
		DMID:            input.DMID,
		CurrentPlayers:  players,
		PrivateCampaign: input.PrivateCampaign,
		ActiveCampaign:  true,
	}

	stored, err := s.repo.Create(ctx, campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	slog.Info("campaign created",
		slog.String("campaign_id", stored.ID),
		slog.String("dm_id", stored.DMID),
	)

	return stored, nil
}

// ListByDM は指定DMのキャンペーンを新しい順に最大10件返す。
func (s *Service) ListByDM(ctx context.Context, dmID string) ([]*model.Campaign, error) {
	if dmID == "" {
		return nil, model.NewInvalidRequestError("dm_id は必須です")
	}

	campaigns, err := s.repo.ListByDMID(ctx, dmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	return campaigns, nil
}

// Get は指定IDのキャンペーンを取得する。見つからない場合はnilを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Campaign, error) {
	if id == "" {
		return nil, model.NewInvalidRequestError("id は必須です")
	}

	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return campaign, nil
}
