package queries

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

// ClipAnalytics summarizes a set of clips. Views and earnings count approved
// clips only, matching what the wallet pays out.
type ClipAnalytics struct {
	TotalClips    int
	ApprovedClips int
	PendingClips  int
	FlaggedClips  int
	TotalViews    int64
	TotalEarnings decimal.Decimal
}

func summarize(clips []entities.Clip) ClipAnalytics {
	out := ClipAnalytics{TotalClips: len(clips), TotalEarnings: decimal.Zero}
	for _, clip := range clips {
		switch clip.Status {
		case entities.ClipStatusApproved:
			out.ApprovedClips++
			out.TotalViews += clip.Views
			out.TotalEarnings = out.TotalEarnings.Add(clip.Earnings)
		case entities.ClipStatusPending:
			out.PendingClips++
		case entities.ClipStatusFlagged:
			out.FlaggedClips++
		}
	}
	return out
}

type CreatorAnalyticsResult struct {
	CreatorID string
	ClipAnalytics
}

type CreatorAnalyticsUseCase struct {
	Clips  ports.ClipRepository
	Logger *slog.Logger
}

func (uc CreatorAnalyticsUseCase) Execute(ctx context.Context, creatorID string, viewer entities.Viewer) (CreatorAnalyticsResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		creatorID = strings.TrimSpace(viewer.UserID)
	}
	if creatorID == "" {
		return CreatorAnalyticsResult{}, domainerrors.ErrInvalidClipInput
	}
	if !viewer.CanSee(creatorID) {
		return CreatorAnalyticsResult{}, domainerrors.ErrForbidden
	}
	clips, err := uc.Clips.ListClips(ctx, ports.ClipFilter{CreatorID: creatorID})
	if err != nil {
		return CreatorAnalyticsResult{}, err
	}
	logger.Debug("creator clip analytics computed",
		"event", "clip_creator_analytics_computed",
		"module", "campaign-editorial/clip-service",
		"layer", "application",
		"creator_id", creatorID,
		"clip_count", len(clips),
	)
	return CreatorAnalyticsResult{CreatorID: creatorID, ClipAnalytics: summarize(clips)}, nil
}

type CampaignAnalyticsResult struct {
	CampaignID     string
	UniqueCreators int
	ClipAnalytics
}

type CampaignAnalyticsUseCase struct {
	Clips  ports.ClipRepository
	Logger *slog.Logger
}

func (uc CampaignAnalyticsUseCase) Execute(ctx context.Context, campaignID string) (CampaignAnalyticsResult, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return CampaignAnalyticsResult{}, domainerrors.ErrInvalidClipInput
	}
	clips, err := uc.Clips.ListClips(ctx, ports.ClipFilter{CampaignID: campaignID})
	if err != nil {
		return CampaignAnalyticsResult{}, err
	}
	creators := make(map[string]struct{}, len(clips))
	for _, clip := range clips {
		creators[clip.CreatorID] = struct{}{}
	}
	return CampaignAnalyticsResult{
		CampaignID:     campaignID,
		UniqueCreators: len(creators),
		ClipAnalytics:  summarize(clips),
	}, nil
}
