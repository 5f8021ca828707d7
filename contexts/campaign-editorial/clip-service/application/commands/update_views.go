package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "clypzy/contexts/campaign-editorial/clip-service/application"
	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	"clypzy/contexts/campaign-editorial/clip-service/domain/services"
	"clypzy/contexts/campaign-editorial/clip-service/ports"
)

type UpdateViewsCommand struct {
	ClipID  string
	Views   int64
	ActorID string
}

type UpdateViewsUseCase struct {
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

// Execute sets an approved clip's view count, reprices it at the campaign's
// current CPM and recomputes the creator's wallet, all in one unit of work.
// Views are absolute, so repeating a call with the same count changes nothing.
func (uc UpdateViewsUseCase) Execute(ctx context.Context, cmd UpdateViewsCommand) (entities.Clip, error) {
	logger := application.ResolveLogger(uc.Logger)
	clipID := strings.TrimSpace(cmd.ClipID)
	if cmd.Views < 0 {
		uc.record("invalid_views")
		return entities.Clip{}, domainerrors.ErrInvalidViews
	}

	current, err := uc.Clips.GetClip(ctx, clipID)
	if err != nil {
		uc.record("not_found")
		return entities.Clip{}, err
	}

	var (
		updated  entities.Clip
		oldViews int64
		balance  string
	)
	err = uc.UnitOfWork.Within(ctx, CreatorScopeKey(current.CreatorID), func(ctx context.Context) error {
		clip, err := uc.Clips.GetClip(ctx, clipID)
		if err != nil {
			return err
		}
		if clip.Status != entities.ClipStatusApproved {
			return domainerrors.ErrInvalidClipState
		}
		campaign, err := uc.Campaigns.GetCampaign(ctx, clip.CampaignID)
		if err != nil {
			return err
		}
		earnings, err := services.CalculateEarnings(cmd.Views, campaign.CPM)
		if err != nil {
			return err
		}

		now := uc.Clock.Now().UTC()
		oldViews = clip.Views
		oldEarnings := clip.Earnings
		clip.Views = cmd.Views
		clip.Earnings = earnings
		clip.CPMApplied = campaign.CPM
		clip.UpdatedAt = now
		if err := uc.Clips.UpdateClip(ctx, clip); err != nil {
			return err
		}
		if err := appendAudit(ctx, uc.Audits, uc.IDGen, entities.ClipAudit{
			ClipID:      clip.ClipID,
			CreatorID:   clip.CreatorID,
			Action:      entities.AuditActionViewsUpdated,
			ActorID:     strings.TrimSpace(cmd.ActorID),
			FromStatus:  clip.Status,
			ToStatus:    clip.Status,
			OldViews:    oldViews,
			NewViews:    clip.Views,
			OldEarnings: oldEarnings,
			NewEarnings: clip.Earnings,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		total, err := uc.Wallets.Recompute(ctx, clip.CreatorID)
		if err != nil {
			return err
		}
		balance = total.String()
		if err := emitEvent(ctx, uc.Outbox, uc.IDGen, eventClipViewsUpdated, clip, now, map[string]any{
			"previous_views": oldViews,
			"cpm_applied":    clip.CPMApplied.String(),
		}); err != nil {
			return err
		}
		updated = clip
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrInvalidClipState):
			uc.record("invalid_state")
		default:
			uc.record("failed")
		}
		logger.Warn("clip view update rejected",
			"event", "clip_views_update_failed",
			"module", "campaign-editorial/clip-service",
			"layer", "application",
			"clip_id", clipID,
			"views", cmd.Views,
			"error", err.Error(),
		)
		return entities.Clip{}, err
	}

	uc.record("ok")
	logger.Info("clip views updated",
		"event", "clip_views_updated",
		"module", "campaign-editorial/clip-service",
		"layer", "application",
		"clip_id", updated.ClipID,
		"creator_id", updated.CreatorID,
		"previous_views", oldViews,
		"views", updated.Views,
		"earnings", services.DisplayAmount(updated.Earnings),
		"wallet_balance", balance,
	)
	return updated, nil
}

func (uc UpdateViewsUseCase) record(outcome string) {
	if uc.Metrics != nil {
		uc.Metrics.RecordViewUpdate(outcome)
	}
}
