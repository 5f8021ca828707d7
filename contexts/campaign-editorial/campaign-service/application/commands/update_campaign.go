package commands

import (
	"context"
	"log/slog"
	"strings"

	application "clypzy/contexts/campaign-editorial/campaign-service/application"
	"clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/campaign-service/domain/errors"
	"clypzy/contexts/campaign-editorial/campaign-service/domain/services"
	"clypzy/contexts/campaign-editorial/campaign-service/ports"

	"github.com/shopspring/decimal"
)

// UpdateCampaignCommand carries a partial edit. Nil fields are left as they
// are.
type UpdateCampaignCommand struct {
	CampaignID        string
	ActorID           string
	ActorRole         entities.ActorRole
	Title             *string
	Description       *string
	SourceVideos      []string
	GoalViews         *int64
	CPM               *decimal.Decimal
	Deposit           *decimal.Decimal
	Currency          *string
	MinViewsForPayout *int64
}

func (cmd UpdateCampaignCommand) touchesFunding() bool {
	return cmd.GoalViews != nil || cmd.CPM != nil || cmd.Deposit != nil
}

type UpdateCampaignUseCase struct {
	Campaigns   ports.CampaignRepository
	Outbox      ports.OutboxWriter
	UnitOfWork  ports.UnitOfWork
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute applies the edit atomically. Funding is revalidated whenever goal
// views, CPM or deposit change; clip earnings are left untouched and pick up
// a new CPM on their next view update.
func (uc UpdateCampaignUseCase) Execute(ctx context.Context, cmd UpdateCampaignCommand) (entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	if campaignID == "" {
		return entities.Campaign{}, domainerrors.ErrInvalidCampaignInput
	}

	var updated entities.Campaign
	err := uc.UnitOfWork.Within(ctx, campaignScopeKey(campaignID), func(ctx context.Context) error {
		campaign, err := uc.Campaigns.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		if cmd.ActorRole != entities.ActorRoleAdmin && campaign.BrandID != strings.TrimSpace(cmd.ActorID) {
			return domainerrors.ErrForbidden
		}
		if !campaign.CanEdit() {
			return domainerrors.ErrCampaignNotEditable
		}

		if cmd.Title != nil {
			campaign.Title = strings.TrimSpace(*cmd.Title)
		}
		if cmd.Description != nil {
			campaign.Description = strings.TrimSpace(*cmd.Description)
		}
		if cmd.SourceVideos != nil {
			campaign.SourceVideos = trimAll(cmd.SourceVideos)
		}
		if cmd.GoalViews != nil {
			campaign.GoalViews = *cmd.GoalViews
		}
		if cmd.CPM != nil {
			campaign.CPM = *cmd.CPM
		}
		if cmd.Deposit != nil {
			campaign.Deposit = *cmd.Deposit
		}
		if cmd.Currency != nil {
			campaign.Currency = entities.NormalizeCurrency(*cmd.Currency)
		}
		if cmd.MinViewsForPayout != nil {
			campaign.MinViewsForPayout = *cmd.MinViewsForPayout
		}

		if !campaign.ValidateBasics() {
			return domainerrors.ErrInvalidCampaignInput
		}
		if cmd.touchesFunding() {
			if err := services.ValidateFunding(campaign.GoalViews, campaign.CPM, campaign.Deposit); err != nil {
				return err
			}
		}

		now := uc.Clock.Now().UTC()
		campaign.UpdatedAt = now
		if err := uc.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
			return err
		}
		if err := emitEvent(ctx, uc.Outbox, uc.IDGenerator, eventCampaignUpdated, campaignID, now, campaignEventData(campaign)); err != nil {
			return err
		}
		updated = campaign
		return nil
	})
	if err != nil {
		logger.Warn("campaign update rejected",
			"event", "campaign_update_failed",
			"module", "campaign-editorial/campaign-service",
			"layer", "application",
			"campaign_id", campaignID,
			"error", err.Error(),
		)
		return entities.Campaign{}, err
	}

	logger.Info("campaign updated",
		"event", "campaign_updated",
		"module", "campaign-editorial/campaign-service",
		"layer", "application",
		"campaign_id", campaignID,
		"funding_revalidated", cmd.touchesFunding(),
	)
	return updated, nil
}
