package queries

import (
	"context"
	"log/slog"
	"strings"

	application "clypzy/contexts/campaign-editorial/campaign-service/application"
	"clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	"clypzy/contexts/campaign-editorial/campaign-service/domain/services"
	"clypzy/contexts/campaign-editorial/campaign-service/ports"

	"github.com/shopspring/decimal"
)

type GetCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc GetCampaignUseCase) Execute(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(campaignID))
}

type GetHistoryUseCase struct {
	History ports.HistoryRepository
	Logger  *slog.Logger
}

func (uc GetHistoryUseCase) Execute(ctx context.Context, campaignID string) ([]entities.StateHistory, error) {
	return uc.History.ListStates(ctx, strings.TrimSpace(campaignID))
}

type FundingSummary struct {
	CampaignID      string
	RequiredDeposit decimal.Decimal
	Deposit         decimal.Decimal
	Headroom        decimal.Decimal
}

type GetFundingSummaryUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

// Execute reports how far a campaign's deposit exceeds the amount its goal
// requires.
func (uc GetFundingSummaryUseCase) Execute(ctx context.Context, campaignID string) (FundingSummary, error) {
	logger := application.ResolveLogger(uc.Logger)
	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return FundingSummary{}, err
	}
	required := services.RequiredDeposit(campaign.GoalViews, campaign.CPM)
	logger.Debug("campaign funding summary fetched",
		"event", "campaign_funding_summary_fetched",
		"module", "campaign-editorial/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
	)
	return FundingSummary{
		CampaignID:      campaign.CampaignID,
		RequiredDeposit: required,
		Deposit:         campaign.Deposit,
		Headroom:        campaign.Deposit.Sub(required),
	}, nil
}
