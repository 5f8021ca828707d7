package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "clypzy/contexts/campaign-editorial/clip-service/application"
	"clypzy/contexts/campaign-editorial/clip-service/application/commands"
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	"clypzy/contexts/campaign-editorial/clip-service/ports"
)

const (
	ViewsReportedTopic = "clip.views_reported"
	defaultViewSyncCG  = "clip-service-view-sync-cg"
	viewSyncActorID    = "system:view-sync"
)

type viewsReportedPayload struct {
	ClipID string `json:"clip_id"`
	Views  *int64 `json:"views"`
}

// ViewSyncConsumer applies view counts reported by the external scrape job.
// The dedup reservation and the view update share the creator's unit of
// work, so a failed update leaves the event free for redelivery.
type ViewSyncConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Clips         ports.ClipRepository
	UnitOfWork    ports.UnitOfWork
	UpdateViews   commands.UpdateViewsUseCase
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c ViewSyncConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("view sync consumer disabled by feature flag",
			"event", "clip_view_sync_disabled",
			"module", "campaign-editorial/clip-service",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultViewSyncCG
	}
	if err := c.Subscriber.Subscribe(ctx, ViewsReportedTopic, group, c.Handle); err != nil {
		logger.Error("view sync consumer subscribe failed",
			"event", "clip_view_sync_subscribe_failed",
			"module", "campaign-editorial/clip-service",
			"layer", "worker",
			"topic", ViewsReportedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("view sync consumer subscribed",
		"event", "clip_view_sync_started",
		"module", "campaign-editorial/clip-service",
		"layer", "worker",
		"topic", ViewsReportedTopic,
		"consumer_group", group,
	)
	return nil
}

// Handle applies one clip.views_reported event. Reports for clips that are
// gone or no longer approved are acknowledged and dropped.
func (c ViewSyncConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	var payload viewsReportedPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil || strings.TrimSpace(payload.ClipID) == "" || payload.Views == nil {
		logger.Error("views reported payload invalid",
			"event", "clip_view_sync_decode_failed",
			"module", "campaign-editorial/clip-service",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	current, err := c.Clips.GetClip(ctx, strings.TrimSpace(payload.ClipID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrClipNotFound) {
			c.logDropped(logger, event, payload.ClipID, err)
			return nil
		}
		return err
	}

	var (
		replayed bool
		views    int64
	)
	err = c.UnitOfWork.Within(ctx, commands.CreatorScopeKey(current.CreatorID), func(ctx context.Context) error {
		alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, event.DataHash(), c.now().Add(c.dedupTTL()))
		if err != nil {
			return err
		}
		if alreadyProcessed {
			replayed = true
			return nil
		}
		clip, err := c.UpdateViews.Execute(ctx, commands.UpdateViewsCommand{
			ClipID:  current.ClipID,
			Views:   *payload.Views,
			ActorID: viewSyncActorID,
		})
		if err != nil {
			return err
		}
		views = clip.Views
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrClipNotFound) ||
			errors.Is(err, domainerrors.ErrInvalidClipState) ||
			errors.Is(err, domainerrors.ErrInvalidViews) ||
			errors.Is(err, domainerrors.ErrConflict) {
			c.logDropped(logger, event, payload.ClipID, err)
			return nil
		}
		logger.Error("views reported apply failed",
			"event", "clip_view_sync_apply_failed",
			"module", "campaign-editorial/clip-service",
			"layer", "worker",
			"event_id", event.EventID,
			"clip_id", payload.ClipID,
			"error", err.Error(),
		)
		return err
	}
	if replayed {
		logger.Debug("views reported replay skipped",
			"event", "clip_view_sync_replayed",
			"module", "campaign-editorial/clip-service",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	logger.Info("views reported applied",
		"event", "clip_view_sync_applied",
		"module", "campaign-editorial/clip-service",
		"layer", "worker",
		"event_id", event.EventID,
		"clip_id", current.ClipID,
		"views", views,
	)
	return nil
}

func (c ViewSyncConsumer) logDropped(logger *slog.Logger, event ports.EventEnvelope, clipID string, err error) {
	logger.Warn("views reported for ineligible clip dropped",
		"event", "clip_view_sync_dropped",
		"module", "campaign-editorial/clip-service",
		"layer", "worker",
		"event_id", event.EventID,
		"clip_id", clipID,
		"error", err.Error(),
	)
}

func (c ViewSyncConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (c ViewSyncConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
