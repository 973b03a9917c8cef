package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/nat20/internal/model"
)

// campaignListLimit はDMごとのキャンペーン一覧の最大件数。
const campaignListLimit = 10

// PostgresCampaignRepo はPostgreSQLを使用したキャンペーンリポジトリ。
type PostgresCampaignRepo struct {
	db *sql.DB
}

// NewPostgresCampaignRepo はPostgresCampaignRepoを生成する。
func NewPostgresCampaignRepo(db *sql.DB) *PostgresCampaignRepo {
	return &PostgresCampaignRepo{db: db}
}

// Create はキャンペーンを作成し、保存後の行を返す。
// created_at/updated_atは挿入時刻で設定する。
func (r *PostgresCampaignRepo) Create(ctx context.Context, campaign *model.Campaign) (*model.Campaign, error) {
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	stored := &model.Campaign{}
	var players pq.StringArray

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO campaigns (id, campaign_name, description, start_date, dm_id, current_players, private_campaign, active_campaign, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, campaign_name, description, start_date, dm_id, current_players, private_campaign, active_campaign, created_at, updated_at`,
		campaign.ID, campaign.CampaignName, campaign.Description, campaign.StartDate,
		campaign.DMID, pq.Array(campaign.CurrentPlayers), campaign.PrivateCampaign,
		campaign.ActiveCampaign, campaign.CreatedAt, campaign.UpdatedAt,
	).Scan(
		&stored.ID, &stored.CampaignName, &stored.Description, &stored.StartDate,
		&stored.DMID, &players, &stored.PrivateCampaign, &stored.ActiveCampaign,
		&stored.CreatedAt, &stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert campaign: %w", err)
	}

	stored.CurrentPlayers = players
	return stored, nil
}

// FindByID は指定IDのキャンペーンを取得する。見つからない場合はnilを返す。
func (r *PostgresCampaignRepo) FindByID(ctx context.Context, id string) (*model.Campaign, error) {
	campaign := &model.Campaign{}
	var players pq.StringArray

	err := r.db.QueryRowContext(ctx,
		`SELECT id, campaign_name, description, start_date, dm_id, current_players, private_campaign, active_campaign, created_at, updated_at
		 FROM campaigns WHERE id = $1`, id,
	).Scan(
		&campaign.ID, &campaign.CampaignName, &campaign.Description, &campaign.StartDate,
		&campaign.DMID, &players, &campaign.PrivateCampaign, &campaign.ActiveCampaign,
		&campaign.CreatedAt, &campaign.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}

	campaign.CurrentPlayers = players
	return campaign, nil
}

// ListByDMID は指定DMのキャンペーンを作成日時の降順で最大10件返す。
func (r *PostgresCampaignRepo) ListByDMID(ctx context.Context, dmID string) ([]*model.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, campaign_name, description, start_date, dm_id, current_players, private_campaign, active_campaign, created_at, updated_at
		 FROM campaigns WHERE dm_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		dmID, campaignListLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*model.Campaign
	for rows.Next() {
		campaign := &model.Campaign{}
		var players pq.StringArray

		if err := rows.Scan(
			&campaign.ID, &campaign.CampaignName, &campaign.Description, &campaign.StartDate,
			&campaign.DMID, &players, &campaign.PrivateCampaign, &campaign.ActiveCampaign,
			&campaign.CreatedAt, &campaign.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}

		campaign.CurrentPlayers = players
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}

	return campaigns, nil
}

// compile-time interface check
var _ CampaignRepository = (*PostgresCampaignRepo)(nil)
