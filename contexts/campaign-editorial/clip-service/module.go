package clipservice

import (
	"context"
	"log/slog"
	"time"

	"clypzy/contexts/campaign-editorial/clip-service/adapters/memory"
	"clypzy/contexts/campaign-editorial/clip-service/application/commands"
	"clypzy/contexts/campaign-editorial/clip-service/application/queries"
	"clypzy/contexts/campaign-editorial/clip-service/application/workers"
	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	"clypzy/contexts/campaign-editorial/clip-service/ports"
	"clypzy/internal/platform/lock"
)

// Module is the clip review facade used by the composition root.
type Module struct {
	submitClip        commands.SubmitClipUseCase
	transitionClip    commands.TransitionClipUseCase
	updateViews       commands.UpdateViewsUseCase
	deleteClip        commands.DeleteClipUseCase
	getClip           queries.GetClipUseCase
	listClips         queries.ListClipsUseCase
	listAudits        queries.ListAuditsUseCase
	creatorAnalytics  queries.CreatorAnalyticsUseCase
	campaignAnalytics queries.CampaignAnalyticsUseCase
	deps              Dependencies

	Store *memory.Store
}

type Dependencies struct {
	Clips      ports.ClipRepository
	Audits     ports.AuditRepository
	Campaigns  ports.CampaignReader
	Creators   ports.CreatorDirectory
	Wallets    ports.WalletAggregator
	Outbox     ports.OutboxWriter
	Dedup      ports.EventDedupStore
	UnitOfWork ports.UnitOfWork
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		submitClip: commands.SubmitClipUseCase{
			Clips:      deps.Clips,
			Audits:     deps.Audits,
			Campaigns:  deps.Campaigns,
			Creators:   deps.Creators,
			Outbox:     deps.Outbox,
			UnitOfWork: deps.UnitOfWork,
			Clock:      deps.Clock,
			IDGen:      deps.IDGen,
			Logger:     deps.Logger,
		},
		transitionClip: commands.TransitionClipUseCase{
			Clips:      deps.Clips,
			Audits:     deps.Audits,
			Campaigns:  deps.Campaigns,
			Wallets:    deps.Wallets,
			Outbox:     deps.Outbox,
			UnitOfWork: deps.UnitOfWork,
			Metrics:    deps.Metrics,
			Clock:      deps.Clock,
			IDGen:      deps.IDGen,
			Logger:     deps.Logger,
		},
		updateViews: commands.UpdateViewsUseCase{
			Clips:      deps.Clips,
			Audits:     deps.Audits,
			Campaigns:  deps.Campaigns,
			Wallets:    deps.Wallets,
			Outbox:     deps.Outbox,
			UnitOfWork: deps.UnitOfWork,
			Metrics:    deps.Metrics,
			Clock:      deps.Clock,
			IDGen:      deps.IDGen,
			Logger:     deps.Logger,
		},
		deleteClip: commands.DeleteClipUseCase{
			Clips:      deps.Clips,
			Audits:     deps.Audits,
			Wallets:    deps.Wallets,
			Outbox:     deps.Outbox,
			UnitOfWork: deps.UnitOfWork,
			Clock:      deps.Clock,
			IDGen:      deps.IDGen,
			Logger:     deps.Logger,
		},
		getClip:           queries.GetClipUseCase{Clips: deps.Clips, Logger: deps.Logger},
		listClips:         queries.ListClipsUseCase{Clips: deps.Clips, Logger: deps.Logger},
		listAudits:        queries.ListAuditsUseCase{Audits: deps.Audits, Logger: deps.Logger},
		creatorAnalytics:  queries.CreatorAnalyticsUseCase{Clips: deps.Clips, Logger: deps.Logger},
		campaignAnalytics: queries.CampaignAnalyticsUseCase{Clips: deps.Clips, Logger: deps.Logger},
		deps:              deps,
	}
}

// NewInMemoryModule wires the module to a memory store. Campaign lookups,
// creator registration and wallet recomputes come from the caller; a nil
// unitOfWork gets a private lock scope.
func NewInMemoryModule(
	seed []entities.Clip,
	campaigns ports.CampaignReader,
	creators ports.CreatorDirectory,
	wallets ports.WalletAggregator,
	unitOfWork ports.UnitOfWork,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	if unitOfWork == nil {
		unitOfWork = lock.NewScope()
	}
	module := NewModule(Dependencies{
		Clips:      store,
		Audits:     store,
		Campaigns:  campaigns,
		Creators:   creators,
		Wallets:    wallets,
		Outbox:     store,
		Dedup:      store,
		UnitOfWork: unitOfWork,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

// ViewSyncConsumer builds the consumer that applies externally reported view
// counts through this module's update path.
func (m Module) ViewSyncConsumer(subscriber ports.EventSubscriber, dedupTTL time.Duration, disabled bool) workers.ViewSyncConsumer {
	return workers.ViewSyncConsumer{
		Subscriber:  subscriber,
		Dedup:       m.deps.Dedup,
		Clips:       m.deps.Clips,
		UnitOfWork:  m.deps.UnitOfWork,
		UpdateViews: m.updateViews,
		Clock:       m.deps.Clock,
		DedupTTL:    dedupTTL,
		Disabled:    disabled,
		Logger:      m.deps.Logger,
	}
}

func (m Module) SubmitClip(ctx context.Context, cmd commands.SubmitClipCommand) (entities.Clip, error) {
	return m.submitClip.Execute(ctx, cmd)
}

func (m Module) TransitionClipStatus(ctx context.Context, cmd commands.TransitionClipCommand) (entities.Clip, error) {
	return m.transitionClip.Execute(ctx, cmd)
}

func (m Module) UpdateClipViews(ctx context.Context, cmd commands.UpdateViewsCommand) (entities.Clip, error) {
	return m.updateViews.Execute(ctx, cmd)
}

func (m Module) DeleteClip(ctx context.Context, cmd commands.DeleteClipCommand) error {
	return m.deleteClip.Execute(ctx, cmd)
}

func (m Module) GetClip(ctx context.Context, clipID string, viewer entities.Viewer) (entities.Clip, error) {
	return m.getClip.Execute(ctx, clipID, viewer)
}

func (m Module) ListClips(ctx context.Context, query queries.ListClipsQuery) ([]entities.Clip, error) {
	return m.listClips.Execute(ctx, query)
}

func (m Module) ClipAudits(ctx context.Context, clipID string) ([]entities.ClipAudit, error) {
	return m.listAudits.Execute(ctx, clipID)
}

func (m Module) CreatorAnalytics(ctx context.Context, creatorID string, viewer entities.Viewer) (queries.CreatorAnalyticsResult, error) {
	return m.creatorAnalytics.Execute(ctx, creatorID, viewer)
}

func (m Module) CampaignAnalytics(ctx context.Context, campaignID string) (queries.CampaignAnalyticsResult, error) {
	return m.campaignAnalytics.Execute(ctx, campaignID)
}
