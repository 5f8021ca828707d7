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

type ChangeStatusCommand struct {
	CampaignID string
	ActorID    string
	Status     entities.CampaignStatus
	Reason     string
}

type ChangeStatusUseCase struct {
	Campaigns  ports.CampaignRepository
	History    ports.HistoryRepository
	Outbox     ports.OutboxWriter
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc ChangeStatusUseCase) Execute(ctx context.Context, cmd ChangeStatusCommand) (entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	if campaignID == "" || strings.TrimSpace(cmd.ActorID) == "" {
		return entities.Campaign{}, domainerrors.ErrInvalidCampaignInput
	}
	if !entities.IsValidStatus(cmd.Status) {
		return entities.Campaign{}, domainerrors.ErrInvalidStateTransition
	}

	var (
		updated entities.Campaign
		from    entities.CampaignStatus
	)
	err := uc.UnitOfWork.Within(ctx, campaignScopeKey(campaignID), func(ctx context.Context) error {
		campaign, err := uc.Campaigns.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		from = campaign.Status
		if !entities.CanTransition(from, cmd.Status) {
			return domainerrors.ErrInvalidStateTransition
		}

		now := uc.Clock.Now().UTC()
		campaign.Status = cmd.Status
		campaign.UpdatedAt = now
		switch cmd.Status {
		case entities.CampaignStatusLive:
			campaign.LaunchedAt = &now
		case entities.CampaignStatusCompleted:
			campaign.CompletedAt = &now
		}
		if err := uc.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
			return err
		}

		historyID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		if err := uc.History.AppendState(ctx, entities.StateHistory{
			HistoryID:    historyID,
			CampaignID:   campaign.CampaignID,
			FromState:    from,
			ToState:      campaign.Status,
			ChangedBy:    strings.TrimSpace(cmd.ActorID),
			ChangeReason: strings.TrimSpace(cmd.Reason),
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		data := campaignEventData(campaign)
		data["from_status"] = string(from)
		if err := emitEvent(ctx, uc.Outbox, uc.IDGen, eventCampaignStatusChanged, campaignID, now, data); err != nil {
			return err
		}
		updated = campaign
		return nil
	})
	if err != nil {
		logger.Warn("campaign state change rejected",
			"event", "campaign_state_change_failed",
			"module", "campaign-editorial/campaign-service",
			"layer", "application",
			"campaign_id", campaignID,
			"to_status", string(cmd.Status),
			"error", err.Error(),
		)
		return entities.Campaign{}, err
	}

	logger.Info("campaign state changed",
		"event", "campaign_state_changed",
		"module", "campaign-editorial/campaign-service",
		"layer", "application",
		"campaign_id", campaignID,
		"from_status", string(from),
		"to_status", string(updated.Status),
	)
	return updated, nil
}
