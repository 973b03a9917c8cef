package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/nat20/internal/campaign"
	"github.com/hitoshi/nat20/internal/model"
)

// CampaignServiceInterface はキャンペーンハンドラーが必要とするサービスインターフェース。
type CampaignServiceInterface interface {
	// Create はキャンペーンを作成する。
	Create(ctx context.Context, input campaign.CreateCampaignInput) (*model.Campaign, error)
	// ListByDM は指定DMのキャンペーンを新しい順に最大10件返す。
	ListByDM(ctx context.Context, dmID string) ([]*model.Campaign, error)
	// Get は指定IDのキャンペーンを取得する。見つからない場合はnilを返す。
	Get(ctx context.Context, id string) (*model.Campaign, error)
}

// CampaignHandler はキャンペーン管理のHTTPハンドラー。
type CampaignHandler struct {
	service CampaignServiceInterface
}

// NewCampaignHandler はCampaignHandlerを生成する。
func NewCampaignHandler(service CampaignServiceInterface) *CampaignHandler {
	return &CampaignHandler{
		service: service,
	}
}

// createCampaignRequest はキャンペーン作成リクエストのボディ。
type createCampaignRequest struct {
	DMID            string   `json:"dm_id"`
	CampaignName    string   `json:"campaign_name"`
	Description     string   `json:"description"`
	StartDate       string   `json:"start_date"`
	CurrentPlayers  []string `json:"current_players"`
	PrivateCampaign bool     `json:"private_campaign"`
}

// campaignResponse はキャンペーン情報のAPIレスポンス。
type campaignResponse struct {
	ID              string   `json:"id"`
	CampaignName    string   `json:"campaign_name"`
	Description     string   `json:"description,omitempty"`
	StartDate       string   `json:"start_date,omitempty"`
	DMID            string   `json:"dm_id"`
	CurrentPlayers  []string `json:"current_players"`
	PrivateCampaign bool     `json:"private_campaign"`
	ActiveCampaign  bool     `json:"active_campaign"`
	CreatedAt       string   `json:"created_at,omitempty"`
}

// CreateCampaign はキャンペーン作成を処理する。
// POST /api/campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	created, err := h.service.Create(r.Context(), campaign.CreateCampaignInput{
		DMID:            req.DMID,
		Title:           req.CampaignName,
		Description:     req.Description,
		StartDate:       req.StartDate,
		CurrentPlayers:  req.CurrentPlayers,
		PrivateCampaign: req.PrivateCampaign,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccessResponse(w, toCampaignResponse(created))
}

// ListCampaigns は指定DMのキャンペーン一覧を返す。
// GET /api/campaigns?dm_id=xxx
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	dmID := r.URL.Query().Get("dm_id")

	campaigns, err := h.service.ListByDM(r.Context(), dmID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]campaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		resp = append(resp, toCampaignResponse(c))
	}

	writeSuccessResponse(w, resp)
}

// GetCampaign はキャンペーン詳細を返す。
// GET /api/campaigns/{id}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if found == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewCampaignNotFoundError(id))
		return
	}

	writeSuccessResponse(w, toCampaignResponse(found))
}

// toCampaignResponse はmodel.CampaignからAPIレスポンスに変換する。
func toCampaignResponse(c *model.Campaign) campaignResponse {
	resp := campaignResponse{
		ID:              c.ID,
		CampaignName:    c.CampaignName,
		Description:     c.Description,
		StartDate:       c.StartDate,
		DMID:            c.DMID,
		CurrentPlayers:  c.CurrentPlayers,
		PrivateCampaign: c.PrivateCampaign,
		ActiveCampaign:  c.ActiveCampaign,
	}
	if !c.CreatedAt.IsZero() {
		resp.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	return resp
}
