package commands

import (
	"context"
	"log/slog"
	"strings"

	application "clypzy/contexts/campaign-editorial/clip-service/application"
	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	"clypzy/contexts/campaign-editorial/clip-service/domain/services"
	"clypzy/contexts/campaign-editorial/clip-service/ports"
)

type TransitionClipCommand struct {
	ClipID  string
	Status  entities.ClipStatus
	ActorID string
}

type TransitionClipUseCase struct {
	Clips      ports.ClipRepository
	Audits     ports.AuditRepository
	Campaigns  ports.CampaignReader
	Wallets    ports.WalletAggregator
	Outbox     ports.OutboxWriter
	UnitOfWork ports.UnitOfWork
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// Execute moves a clip through review. Approval refreshes the clip's earnings
// at the campaign's current CPM. Every move into or out of approved recomputes
// the creator's wallet in the same unit of work, so a flagged clip leaves the
// balance at once.
func (uc TransitionClipUseCase) Execute(ctx context.Context, cmd TransitionClipCommand) (entities.Clip, error) {
	logger := application.ResolveLogger(uc.Logger)
	clipID := strings.TrimSpace(cmd.ClipID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if clipID == "" || actorID == "" {
		return entities.Clip{}, domainerrors.ErrInvalidClipInput
	}

	current, err := uc.Clips.GetClip(ctx, clipID)
	if err != nil {
		return entities.Clip{}, err
	}

	var (
		updated entities.Clip
		from    entities.ClipStatus
		balance string
	)
	err = uc.UnitOfWork.Within(ctx, CreatorScopeKey(current.CreatorID), func(ctx context.Context) error {
		clip, err := uc.Clips.GetClip(ctx, clipID)
		if err != nil {
			return err
		}
		from = clip.Status
		if err := entities.Transition(from, cmd.Status); err != nil {
			return err
		}

		now := uc.Clock.Now().UTC()
		oldEarnings := clip.Earnings
		clip.Status = cmd.Status
		clip.ReviewedBy = actorID
		clip.UpdatedAt = now
		switch cmd.Status {
		case entities.ClipStatusApproved:
			campaign, err := uc.Campaigns.GetCampaign(ctx, clip.CampaignID)
			if err != nil {
				return err
			}
			earnings, err := services.CalculateEarnings(clip.Views, campaign.CPM)
			if err != nil {
				return err
			}
			clip.Earnings = earnings
			clip.CPMApplied = campaign.CPM
			clip.ApprovedAt = &now
		case entities.ClipStatusFlagged:
			clip.FlaggedAt = &now
		}

		if err := uc.Clips.UpdateClip(ctx, clip); err != nil {
			return err
		}
		if err := appendAudit(ctx, uc.Audits, uc.IDGen, entities.ClipAudit{
			ClipID:      clip.ClipID,
			CreatorID:   clip.CreatorID,
			Action:      entities.AuditActionStatusChanged,
			ActorID:     actorID,
			FromStatus:  from,
			ToStatus:    clip.Status,
			OldViews:    clip.Views,
			NewViews:    clip.Views,
			OldEarnings: oldEarnings,
			NewEarnings: clip.Earnings,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		if from == entities.ClipStatusApproved || clip.Status == entities.ClipStatusApproved {
			total, err := uc.Wallets.Recompute(ctx, clip.CreatorID)
			if err != nil {
				return err
			}
			balance = total.String()
		}
		if err := emitEvent(ctx, uc.Outbox, uc.IDGen, eventClipStatusChanged, clip, now, map[string]any{
			"from_status": string(from),
			"reviewed_by": actorID,
		}); err != nil {
			return err
		}
		updated = clip
		return nil
	})
	if err != nil {
		logger.Warn("clip status transition rejected",
			"event", "clip_transition_failed",
			"module", "campaign-editorial/clip-service",
			"layer", "application",
			"clip_id", clipID,
			"to_status", string(cmd.Status),
			"error", err.Error(),
		)
		return entities.Clip{}, err
	}

	if uc.Metrics != nil {
		uc.Metrics.RecordTransition(string(from), string(updated.Status))
	}
	logger.Info("clip status changed",
		"event", "clip_status_changed",
		"module", "campaign-editorial/clip-service",
		"layer", "application",
		"clip_id", updated.ClipID,
		"creator_id", updated.CreatorID,
		"from_status", string(from),
		"to_status", string(updated.Status),
		"wallet_balance", balance,
	)
	return updated, nil
}
