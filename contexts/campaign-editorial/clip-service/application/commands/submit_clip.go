package commands

import (
	"context"
	"log/slog"
	"strings"

	application "clypzy/contexts/campaign-editorial/clip-service/application"
	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	"clypzy/contexts/campaign-editorial/clip-service/ports"

	"github.com/shopspring/decimal"
)

type SubmitClipCommand struct {
	CreatorID         string
	CampaignID        string
	ClipLink          string
	OriginalVideoLink string
	ClipTimestamps    []string
	CreatorMessage    string
}

type SubmitClipUseCase struct {
	Clips      ports.ClipRepository
	Audits     ports.AuditRepository
	Campaigns  ports.CampaignReader
	Creators   ports.CreatorDirectory
	Outbox     ports.OutboxWriter
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// Execute creates a pending clip against a live campaign for a registered
// creator.
func (uc SubmitClipUseCase) Execute(ctx context.Context, cmd SubmitClipCommand) (entities.Clip, error) {
	logger := application.ResolveLogger(uc.Logger)
	clip := entities.Clip{
		CampaignID:        strings.TrimSpace(cmd.CampaignID),
		CreatorID:         strings.TrimSpace(cmd.CreatorID),
		ClipLink:          strings.TrimSpace(cmd.ClipLink),
		OriginalVideoLink: strings.TrimSpace(cmd.OriginalVideoLink),
		ClipTimestamps:    trimAll(cmd.ClipTimestamps),
		CreatorMessage:    strings.TrimSpace(cmd.CreatorMessage),
		Views:             0,
		Earnings:          decimal.Zero,
		CPMApplied:        decimal.Zero,
		Status:            entities.ClipStatusPending,
	}
	if err := clip.ValidateSubmission(); err != nil {
		return entities.Clip{}, err
	}

	exists, err := uc.Creators.CreatorExists(ctx, clip.CreatorID)
	if err != nil {
		return entities.Clip{}, err
	}
	if !exists {
		logger.Warn("clip submission rejected for unknown creator",
			"event", "clip_submit_creator_not_found",
			"module", "campaign-editorial/clip-service",
			"layer", "application",
			"creator_id", clip.CreatorID,
		)
		return entities.Clip{}, domainerrors.ErrCreatorNotFound
	}

	campaign, err := uc.Campaigns.GetCampaign(ctx, clip.CampaignID)
	if err != nil {
		return entities.Clip{}, err
	}
	if !campaign.IsLive() {
		logger.Warn("clip submission rejected for non-live campaign",
			"event", "clip_submit_campaign_not_live",
			"module", "campaign-editorial/clip-service",
			"layer", "application",
			"campaign_id", clip.CampaignID,
			"campaign_status", campaign.Status,
		)
		return entities.Clip{}, domainerrors.ErrCampaignNotLive
	}

	clipID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Clip{}, err
	}
	now := uc.Clock.Now().UTC()
	clip.ClipID = clipID
	clip.SubmittedAt = now
	clip.UpdatedAt = now

	err = uc.UnitOfWork.Within(ctx, CreatorScopeKey(clip.CreatorID), func(ctx context.Context) error {
		if err := uc.Clips.CreateClip(ctx, clip); err != nil {
			return err
		}
		if err := appendAudit(ctx, uc.Audits, uc.IDGen, entities.ClipAudit{
			ClipID:      clip.ClipID,
			CreatorID:   clip.CreatorID,
			Action:      entities.AuditActionSubmitted,
			ActorID:     clip.CreatorID,
			ToStatus:    clip.Status,
			OldEarnings: decimal.Zero,
			NewEarnings: decimal.Zero,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		return emitEvent(ctx, uc.Outbox, uc.IDGen, eventClipSubmitted, clip, now, nil)
	})
	if err != nil {
		logger.Error("clip submission failed",
			"event", "clip_submit_failed",
			"module", "campaign-editorial/clip-service",
			"layer", "application",
			"campaign_id", clip.CampaignID,
			"creator_id", clip.CreatorID,
			"error", err.Error(),
		)
		return entities.Clip{}, err
	}

	logger.Info("clip submitted",
		"event", "clip_submitted",
		"module", "campaign-editorial/clip-service",
		"layer", "application",
		"clip_id", clip.ClipID,
		"campaign_id", clip.CampaignID,
		"creator_id", clip.CreatorID,
	)
	return clip, nil
}

func trimAll(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}
