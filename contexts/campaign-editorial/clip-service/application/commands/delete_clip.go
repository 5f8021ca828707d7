package commands

import (
	"context"
	"log/slog"
	"strings"

	application "clypzy/contexts/campaign-editorial/clip-service/application"
	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	"clypzy/contexts/campaign-editorial/clip-service/ports"
)

type DeleteClipCommand struct {
	ClipID        string
	RequesterID   string
	RequesterRole entities.ActorRole
}

type DeleteClipUseCase struct {
	Clips      ports.ClipRepository
	Audits     ports.AuditRepository
	Wallets    ports.WalletAggregator
	Outbox     ports.OutboxWriter
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// Execute removes a clip. Creators may delete only their own clips that are
// not approved; admins may delete any clip. Removing an approved clip
// recomputes the creator's wallet in the same unit of work.
func (uc DeleteClipUseCase) Execute(ctx context.Context, cmd DeleteClipCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	clipID := strings.TrimSpace(cmd.ClipID)
	requesterID := strings.TrimSpace(cmd.RequesterID)

	current, err := uc.Clips.GetClip(ctx, clipID)
	if err != nil {
		return err
	}

	var removed entities.Clip
	err = uc.UnitOfWork.Within(ctx, CreatorScopeKey(current.CreatorID), func(ctx context.Context) error {
		clip, err := uc.Clips.GetClip(ctx, clipID)
		if err != nil {
			return err
		}
		if cmd.RequesterRole != entities.ActorRoleAdmin {
			if clip.CreatorID != requesterID {
				return domainerrors.ErrForbidden
			}
			if clip.Status == entities.ClipStatusApproved {
				return domainerrors.ErrApprovedClipNotDeletable
			}
		}

		now := uc.Clock.Now().UTC()
		if err := uc.Clips.DeleteClip(ctx, clipID); err != nil {
			return err
		}
		if err := appendAudit(ctx, uc.Audits, uc.IDGen, entities.ClipAudit{
			ClipID:      clip.ClipID,
			CreatorID:   clip.CreatorID,
			Action:      entities.AuditActionDeleted,
			ActorID:     requesterID,
			FromStatus:  clip.Status,
			OldViews:    clip.Views,
			OldEarnings: clip.Earnings,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		if clip.Status == entities.ClipStatusApproved {
			if _, err := uc.Wallets.Recompute(ctx, clip.CreatorID); err != nil {
				return err
			}
		}
		if err := emitEvent(ctx, uc.Outbox, uc.IDGen, eventClipDeleted, clip, now, map[string]any{
			"deleted_by": requesterID,
		}); err != nil {
			return err
		}
		removed = clip
		return nil
	})
	if err != nil {
		logger.Warn("clip delete rejected",
			"event", "clip_delete_failed",
			"module", "campaign-editorial/clip-service",
			"layer", "application",
			"clip_id", clipID,
			"requester_id", requesterID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("clip deleted",
		"event", "clip_deleted",
		"module", "campaign-editorial/clip-service",
		"layer", "application",
		"clip_id", removed.ClipID,
		"creator_id", removed.CreatorID,
		"status", string(removed.Status),
	)
	return nil
}
