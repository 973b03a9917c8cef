package model

import "time"

// Campaign はTRPGキャンペーンを表す。
// DMIDはキャンペーンを主催するユーザー（DM）のusers.idへの参照。
type Campaign struct {
	ID              string
	CampaignName    string
	Description     string
	StartDate       string
	DMID            string
	CurrentPlayers  []string
	PrivateCampaign bool
	ActiveCampaign  bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
