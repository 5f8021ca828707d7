package queries

import (
	"context"
	"log/slog"
	"strings"

	application "clypzy/contexts/campaign-editorial/clip-service/application"
	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	"clypzy/contexts/campaign-editorial/clip-service/ports"
)

type GetClipUseCase struct {
	Clips  ports.ClipRepository
	Logger *slog.Logger
}

// Execute returns a clip. Creators may only read their own clips.
func (uc GetClipUseCase) Execute(ctx context.Context, clipID string, viewer entities.Viewer) (entities.Clip, error) {
	clip, err := uc.Clips.GetClip(ctx, strings.TrimSpace(clipID))
	if err != nil {
		return entities.Clip{}, err
	}
	if !viewer.CanSee(clip.CreatorID) {
		return entities.Clip{}, domainerrors.ErrForbidden
	}
	return clip, nil
}

type ListClipsQuery struct {
	CampaignID string
	CreatorID  string
	Status     string
	Viewer     entities.Viewer
}

type ListClipsUseCase struct {
	Clips  ports.ClipRepository
	Logger *slog.Logger
}

// Execute lists clips newest first. A creator's listing is always narrowed
// to their own clips whatever filter they pass.
func (uc ListClipsUseCase) Execute(ctx context.Context, query ListClipsQuery) ([]entities.Clip, error) {
	logger := application.ResolveLogger(uc.Logger)
	filter := ports.ClipFilter{
		CampaignID: strings.TrimSpace(query.CampaignID),
		CreatorID:  strings.TrimSpace(query.CreatorID),
		Status:     entities.ClipStatus(strings.ToLower(strings.TrimSpace(query.Status))),
	}
	if query.Viewer.Role != entities.ActorRoleAdmin {
		filter.CreatorID = strings.TrimSpace(query.Viewer.UserID)
	}
	items, err := uc.Clips.ListClips(ctx, filter)
	if err != nil {
		return nil, err
	}
	logger.Debug("clips listed",
		"event", "clips_listed",
		"module", "campaign-editorial/clip-service",
		"layer", "application",
		"count", len(items),
	)
	return items, nil
}

type ListAuditsUseCase struct {
	Audits ports.AuditRepository
	Logger *slog.Logger
}

func (uc ListAuditsUseCase) Execute(ctx context.Context, clipID string) ([]entities.ClipAudit, error) {
	return uc.Audits.ListAudits(ctx, strings.TrimSpace(clipID))
}
