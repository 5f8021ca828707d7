package commands

import (
	"context"
	"log/slog"
	"strings"

	application "clypzy/contexts/campaign-editorial/campaign-service/application"
	"clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/campaign-service/domain/errors"
	"clypzy/contexts/campaign-editorial/campaign-service/ports"
)

type DeleteCampaignCommand struct {
	CampaignID string
	ActorID    string
	ActorRole  entities.ActorRole
}

type DeleteCampaignUseCase struct {
	Campaigns  ports.CampaignRepository
	UnitOfWork ports.UnitOfWork
	Logger     *slog.Logger
}

// Execute removes a campaign that never went live. Only admins may delete.
func (uc DeleteCampaignUseCase) Execute(ctx context.Context, cmd DeleteCampaignCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	if cmd.ActorRole != entities.ActorRoleAdmin {
		return domainerrors.ErrForbidden
	}

	err := uc.UnitOfWork.Within(ctx, campaignScopeKey(campaignID), func(ctx context.Context) error {
		campaign, err := uc.Campaigns.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		if !campaign.CanDelete() {
			return domainerrors.ErrCampaignNotDeletable
		}
		return uc.Campaigns.DeleteCampaign(ctx, campaignID)
	})
	if err != nil {
		return err
	}

	logger.Info("campaign deleted",
		"event", "campaign_deleted",
		"module", "campaign-editorial/campaign-service",
		"layer", "application",
		"campaign_id", campaignID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
	)
	return nil
}
