// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/nat20/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// ユーザー行の存在はIdP側に対応するアカウントが存在することを前提とする。
// この橋渡しはアカウント作成サガのみが行う。
type UserRepository interface {
	// Create はユーザーを単一トランザクションで作成する。
	// created_at/updated_atはリポジトリが挿入時刻で設定する。
	// 一意制約違反の場合はDUPLICATE_KEYエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// CampaignRepository はキャンペーンデータの永続化インターフェース。
type CampaignRepository interface {
	// Create はキャンペーンを作成し、保存後の行を返す。
	Create(ctx context.Context, campaign *model.Campaign) (*model.Campaign, error)

	// FindByID は指定IDのキャンペーンを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Campaign, error)

	// ListByDMID は指定DMのキャンペーンを作成日時の降順で最大10件返す。
	ListByDMID(ctx context.Context, dmID string) ([]*model.Campaign, error)
}
