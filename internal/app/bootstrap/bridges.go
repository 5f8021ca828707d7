package bootstrap

import (
	"context"
	"errors"

	campaignservice "clypzy/contexts/campaign-editorial/campaign-service"
	campaignerrors "clypzy/contexts/campaign-editorial/campaign-service/domain/errors"
	clipmemory "clypzy/contexts/campaign-editorial/clip-service/adapters/memory"
	clipentities "clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	cliperrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	clipports "clypzy/contexts/campaign-editorial/clip-service/ports"
	walletservice "clypzy/contexts/finance-core/wallet-service"
	walletentities "clypzy/contexts/finance-core/wallet-service/domain/entities"
	walleterrors "clypzy/contexts/finance-core/wallet-service/domain/errors"
	walletports "clypzy/contexts/finance-core/wallet-service/ports"
)

// campaignSnapshots serves clip review's campaign lookups from the campaign
// module when both run on memory stores.
type campaignSnapshots struct {
	campaigns campaignservice.Module
}

func (s campaignSnapshots) GetCampaign(ctx context.Context, campaignID string) (clipentities.CampaignSnapshot, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, campaignerrors.ErrCampaignNotFound) {
			return clipentities.CampaignSnapshot{}, cliperrors.ErrCampaignNotFound
		}
		return clipentities.CampaignSnapshot{}, err
	}
	return clipentities.CampaignSnapshot{
		CampaignID: campaign.CampaignID,
		Status:     string(campaign.Status),
		CPM:        campaign.CPM,
		Currency:   string(campaign.Currency),
	}, nil
}

// walletCreators treats a creator as registered once their wallet is open.
type walletCreators struct {
	wallets walletservice.Module
}

func (c walletCreators) CreatorExists(ctx context.Context, creatorID string) (bool, error) {
	if _, err := c.wallets.GetCreatorWallet(ctx, creatorID); err != nil {
		if errors.Is(err, walleterrors.ErrWalletNotFound) || errors.Is(err, walleterrors.ErrInvalidWalletInput) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// memoryEarnings lists approved clip earnings from the clip memory store.
type memoryEarnings struct {
	clips *clipmemory.Store
}

func (s memoryEarnings) ListApprovedEarnings(ctx context.Context, creatorID string) ([]walletentities.ApprovedEarning, error) {
	clips, err := s.clips.ListClips(ctx, clipports.ClipFilter{
		CreatorID: creatorID,
		Status:    clipentities.ClipStatusApproved,
	})
	if err != nil {
		return nil, err
	}
	items := make([]walletentities.ApprovedEarning, 0, len(clips))
	for _, clip := range clips {
		items = append(items, walletentities.ApprovedEarning{ClipID: clip.ClipID, Earnings: clip.Earnings})
	}
	return items, nil
}

var _ clipports.CampaignReader = campaignSnapshots{}
var _ clipports.CreatorDirectory = walletCreators{}
var _ walletports.EarningsSource = memoryEarnings{}
