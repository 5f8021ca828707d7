package commands

import (
	"context"
	"time"

	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	"clypzy/contexts/campaign-editorial/clip-service/ports"
	contractsv1 "clypzy/contracts/gen/events/v1"
)

const (
	eventClipSubmitted     = "clip.submitted"
	eventClipStatusChanged = "clip.status_changed"
	eventClipViewsUpdated  = "clip.views_updated"
	eventClipDeleted       = "clip.deleted"
)

var clipSource = contractsv1.Source{
	Service:          "clip-service",
	PartitionKeyPath: "creator_id",
}

// CreatorScopeKey is the unit of work key guarding one creator's approved
// clips and wallet.
func CreatorScopeKey(creatorID string) string {
	return "creator:" + creatorID
}

func clipEventData(clip entities.Clip) map[string]any {
	return map[string]any{
		"clip_id":     clip.ClipID,
		"campaign_id": clip.CampaignID,
		"creator_id":  clip.CreatorID,
		"status":      string(clip.Status),
		"views":       clip.Views,
		"earnings":    clip.Earnings.String(),
	}
}

// emitEvent appends one clip event keyed by creator so a consumer sees a
// creator's events in order. It is a no-op without an outbox.
func emitEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	clip entities.Clip,
	occurredAt time.Time,
	extra map[string]any,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := clipEventData(clip)
	for key, value := range extra {
		data[key] = value
	}
	envelope, err := clipSource.New(eventID, eventType, clip.CreatorID, occurredAt, data)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, envelope)
}

func appendAudit(
	ctx context.Context,
	audits ports.AuditRepository,
	idGen ports.IDGenerator,
	audit entities.ClipAudit,
) error {
	auditID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	audit.AuditID = auditID
	return audits.AppendAudit(ctx, audit)
}
