package commands

import (
	"context"
	"time"

	"clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	"clypzy/contexts/campaign-editorial/campaign-service/ports"
	contractsv1 "clypzy/contracts/gen/events/v1"
)

const (
	eventCampaignCreated       = "campaign.created"
	eventCampaignUpdated       = "campaign.updated"
	eventCampaignStatusChanged = "campaign.status_changed"
)

var campaignSource = contractsv1.Source{
	Service:          "campaign-service",
	PartitionKeyPath: "campaign_id",
}

func campaignScopeKey(campaignID string) string {
	return "campaign:" + campaignID
}

func newCampaignEnvelope(
	eventID string,
	eventType string,
	campaignID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	return campaignSource.New(eventID, eventType, campaignID, occurredAt, data)
}

func campaignEventData(campaign entities.Campaign) map[string]any {
	return map[string]any{
		"campaign_id":          campaign.CampaignID,
		"brand_id":             campaign.BrandID,
		"status":               string(campaign.Status),
		"goal_views":           campaign.GoalViews,
		"cpm":                  campaign.CPM.String(),
		"deposit":              campaign.Deposit.String(),
		"currency":             string(campaign.Currency),
		"min_views_for_payout": campaign.MinViewsForPayout,
	}
}

// emitEvent appends one campaign event to the outbox. It is a no-op when the
// use case was built without an outbox.
func emitEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	campaignID string,
	occurredAt time.Time,
	data map[string]any,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newCampaignEnvelope(eventID, eventType, campaignID, occurredAt, data)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, envelope)
}
