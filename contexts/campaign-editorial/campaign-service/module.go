package campaignservice

import (
	"context"
	"log/slog"
	"time"

	"clypzy/contexts/campaign-editorial/campaign-service/adapters/memory"
	"clypzy/contexts/campaign-editorial/campaign-service/application/commands"
	"clypzy/contexts/campaign-editorial/campaign-service/application/queries"
	"clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	"clypzy/contexts/campaign-editorial/campaign-service/ports"
	"clypzy/internal/platform/lock"
)

// Module is the campaign service facade used by the composition root.
type Module struct {
	createCampaign commands.CreateCampaignUseCase
	updateCampaign commands.UpdateCampaignUseCase
	changeStatus   commands.ChangeStatusUseCase
	deleteCampaign commands.DeleteCampaignUseCase
	getCampaign    queries.GetCampaignUseCase
	listCampaigns  queries.ListCampaignsUseCase
	getHistory     queries.GetHistoryUseCase
	getFunding     queries.GetFundingSummaryUseCase

	Store *memory.Store
}

type Dependencies struct {
	Campaigns      ports.CampaignRepository
	History        ports.HistoryRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	UnitOfWork     ports.UnitOfWork
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		createCampaign: commands.CreateCampaignUseCase{
			Campaigns:      deps.Campaigns,
			Idempotency:    deps.Idempotency,
			Outbox:         deps.Outbox,
			UnitOfWork:     deps.UnitOfWork,
			Clock:          deps.Clock,
			IDGenerator:    deps.IDGenerator,
			IdempotencyTTL: deps.IdempotencyTTL,
			Logger:         deps.Logger,
		},
		updateCampaign: commands.UpdateCampaignUseCase{
			Campaigns:   deps.Campaigns,
			Outbox:      deps.Outbox,
			UnitOfWork:  deps.UnitOfWork,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		changeStatus: commands.ChangeStatusUseCase{
			Campaigns:  deps.Campaigns,
			History:    deps.History,
			Outbox:     deps.Outbox,
			UnitOfWork: deps.UnitOfWork,
			Clock:      deps.Clock,
			IDGen:      deps.IDGenerator,
			Logger:     deps.Logger,
		},
		deleteCampaign: commands.DeleteCampaignUseCase{
			Campaigns:  deps.Campaigns,
			UnitOfWork: deps.UnitOfWork,
			Logger:     deps.Logger,
		},
		getCampaign:   queries.GetCampaignUseCase{Campaigns: deps.Campaigns, Logger: deps.Logger},
		listCampaigns: queries.ListCampaignsUseCase{Campaigns: deps.Campaigns, Logger: deps.Logger},
		getHistory:    queries.GetHistoryUseCase{History: deps.History, Logger: deps.Logger},
		getFunding:    queries.GetFundingSummaryUseCase{Campaigns: deps.Campaigns, Logger: deps.Logger},
	}
}

// NewInMemoryModule wires the module to a memory store. A nil unitOfWork gets
// a private lock scope.
func NewInMemoryModule(seed []entities.Campaign, unitOfWork ports.UnitOfWork, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	if unitOfWork == nil {
		unitOfWork = lock.NewScope()
	}
	module := NewModule(Dependencies{
		Campaigns:      store,
		History:        store,
		Idempotency:    store,
		Outbox:         store,
		UnitOfWork:     unitOfWork,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}

func (m Module) CreateCampaign(ctx context.Context, cmd commands.CreateCampaignCommand) (commands.CreateCampaignResult, error) {
	return m.createCampaign.Execute(ctx, cmd)
}

func (m Module) UpdateCampaign(ctx context.Context, cmd commands.UpdateCampaignCommand) (entities.Campaign, error) {
	return m.updateCampaign.Execute(ctx, cmd)
}

func (m Module) ChangeStatus(ctx context.Context, cmd commands.ChangeStatusCommand) (entities.Campaign, error) {
	return m.changeStatus.Execute(ctx, cmd)
}

func (m Module) DeleteCampaign(ctx context.Context, cmd commands.DeleteCampaignCommand) error {
	return m.deleteCampaign.Execute(ctx, cmd)
}

func (m Module) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return m.getCampaign.Execute(ctx, campaignID)
}

func (m Module) ListCampaigns(ctx context.Context, query queries.ListCampaignsQuery) ([]entities.Campaign, error) {
	return m.listCampaigns.Execute(ctx, query)
}

func (m Module) StateHistory(ctx context.Context, campaignID string) ([]entities.StateHistory, error) {
	return m.getHistory.Execute(ctx, campaignID)
}

func (m Module) FundingSummary(ctx context.Context, campaignID string) (queries.FundingSummary, error) {
	return m.getFunding.Execute(ctx, campaignID)
}
