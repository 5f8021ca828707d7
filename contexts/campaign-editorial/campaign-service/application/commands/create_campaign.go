package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "clypzy/contexts/campaign-editorial/campaign-service/application"
	"clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/campaign-service/domain/errors"
	"clypzy/contexts/campaign-editorial/campaign-service/domain/services"
	"clypzy/contexts/campaign-editorial/campaign-service/ports"

	"github.com/shopspring/decimal"
)

type CreateCampaignCommand struct {
	BrandID           string
	IdempotencyKey    string
	Title             string
	Description       string
	SourceVideos      []string
	GoalViews         int64
	CPM               decimal.Decimal
	Deposit           decimal.Decimal
	Currency          string
	MinViewsForPayout int64
}

type CreateCampaignUseCase struct {
	Campaigns      ports.CampaignRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	UnitOfWork     ports.UnitOfWork
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type CreateCampaignResult struct {
	Campaign entities.Campaign
	Replayed bool
}

type createCampaignReplayPayload struct {
	CampaignID        string                  `json:"campaign_id"`
	BrandID           string                  `json:"brand_id"`
	Title             string                  `json:"title"`
	Description       string                  `json:"description"`
	SourceVideos      []string                `json:"source_videos"`
	GoalViews         int64                   `json:"goal_views"`
	CPM               decimal.Decimal         `json:"cpm"`
	Deposit           decimal.Decimal         `json:"deposit"`
	Currency          entities.Currency       `json:"currency"`
	MinViewsForPayout int64                   `json:"min_views_for_payout"`
	Status            entities.CampaignStatus `json:"status"`
	CreatedAt         time.Time               `json:"created_at"`
}

func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (CreateCampaignResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.Clock.Now().UTC()

	campaign := entities.Campaign{
		BrandID:           strings.TrimSpace(cmd.BrandID),
		Title:             strings.TrimSpace(cmd.Title),
		Description:       strings.TrimSpace(cmd.Description),
		SourceVideos:      trimAll(cmd.SourceVideos),
		GoalViews:         cmd.GoalViews,
		CPM:               cmd.CPM,
		Deposit:           cmd.Deposit,
		Currency:          entities.NormalizeCurrency(cmd.Currency),
		MinViewsForPayout: cmd.MinViewsForPayout,
		Status:            entities.CampaignStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if !campaign.ValidateBasics() {
		logger.Warn("campaign create rejected",
			"event", "campaign_create_invalid_input",
			"module", "campaign-editorial/campaign-service",
			"layer", "application",
			"brand_id", campaign.BrandID,
		)
		return CreateCampaignResult{}, domainerrors.ErrInvalidCampaignInput
	}
	if err := services.ValidateFunding(campaign.GoalViews, campaign.CPM, campaign.Deposit); err != nil {
		logger.Warn("campaign create rejected by funding check",
			"event", "campaign_create_underfunded",
			"module", "campaign-editorial/campaign-service",
			"layer", "application",
			"brand_id", campaign.BrandID,
			"error", err.Error(),
		)
		return CreateCampaignResult{}, err
	}

	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	if idempotencyKey == "" || uc.Idempotency == nil {
		if err := uc.create(ctx, &campaign, "", "", now); err != nil {
			return CreateCampaignResult{}, err
		}
		return CreateCampaignResult{Campaign: campaign}, nil
	}

	var result CreateCampaignResult
	requestHash := hashCreateCampaignCommand(cmd)
	err := uc.UnitOfWork.Within(ctx, "campaign-create:"+idempotencyKey, func(ctx context.Context) error {
		record, found, err := uc.Idempotency.GetRecord(ctx, idempotencyKey, now)
		if err != nil {
			return err
		}
		if found {
			if record.RequestHash != requestHash {
				return domainerrors.ErrIdempotencyKeyConflict
			}
			var payload createCampaignReplayPayload
			if err := json.Unmarshal(record.ResponsePayload, &payload); err != nil {
				return err
			}
			result = CreateCampaignResult{Campaign: payload.toEntity(), Replayed: true}
			return nil
		}
		if err := uc.create(ctx, &campaign, idempotencyKey, requestHash, now); err != nil {
			return err
		}
		result = CreateCampaignResult{Campaign: campaign}
		return nil
	})
	if err != nil {
		return CreateCampaignResult{}, err
	}
	if result.Replayed {
		logger.Info("campaign create replayed",
			"event", "campaign_create_replayed",
			"module", "campaign-editorial/campaign-service",
			"layer", "application",
			"campaign_id", result.Campaign.CampaignID,
		)
	}
	return result, nil
}

func (uc CreateCampaignUseCase) create(
	ctx context.Context,
	campaign *entities.Campaign,
	idempotencyKey string,
	requestHash string,
	now time.Time,
) error {
	logger := application.ResolveLogger(uc.Logger)
	campaignID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	campaign.CampaignID = campaignID

	err = uc.UnitOfWork.Within(ctx, campaignScopeKey(campaignID), func(ctx context.Context) error {
		if err := uc.Campaigns.CreateCampaign(ctx, *campaign); err != nil {
			return err
		}
		if err := emitEvent(ctx, uc.Outbox, uc.IDGenerator, eventCampaignCreated, campaignID, now, campaignEventData(*campaign)); err != nil {
			return err
		}
		if idempotencyKey == "" {
			return nil
		}
		serialized, err := json.Marshal(replayPayloadFromEntity(*campaign))
		if err != nil {
			return err
		}
		return uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
			Key:             idempotencyKey,
			RequestHash:     requestHash,
			ResponsePayload: serialized,
			ExpiresAt:       now.Add(uc.idempotencyTTL()),
		})
	})
	if err != nil {
		logger.Error("campaign create failed",
			"event", "campaign_create_failed",
			"module", "campaign-editorial/campaign-service",
			"layer", "application",
			"campaign_id", campaignID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", "campaign-editorial/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"brand_id", campaign.BrandID,
		"required_deposit", services.RequiredDeposit(campaign.GoalViews, campaign.CPM).StringFixed(2),
	)
	return nil
}

func (uc CreateCampaignUseCase) idempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func replayPayloadFromEntity(campaign entities.Campaign) createCampaignReplayPayload {
	return createCampaignReplayPayload{
		CampaignID:        campaign.CampaignID,
		BrandID:           campaign.BrandID,
		Title:             campaign.Title,
		Description:       campaign.Description,
		SourceVideos:      append([]string(nil), campaign.SourceVideos...),
		GoalViews:         campaign.GoalViews,
		CPM:               campaign.CPM,
		Deposit:           campaign.Deposit,
		Currency:          campaign.Currency,
		MinViewsForPayout: campaign.MinViewsForPayout,
		Status:            campaign.Status,
		CreatedAt:         campaign.CreatedAt,
	}
}

func (p createCampaignReplayPayload) toEntity() entities.Campaign {
	return entities.Campaign{
		CampaignID:        p.CampaignID,
		BrandID:           p.BrandID,
		Title:             p.Title,
		Description:       p.Description,
		SourceVideos:      append([]string(nil), p.SourceVideos...),
		GoalViews:         p.GoalViews,
		CPM:               p.CPM,
		Deposit:           p.Deposit,
		Currency:          p.Currency,
		MinViewsForPayout: p.MinViewsForPayout,
		Status:            p.Status,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.CreatedAt,
	}
}

func hashCreateCampaignCommand(cmd CreateCampaignCommand) string {
	payload := map[string]any{
		"brand_id":             strings.TrimSpace(cmd.BrandID),
		"title":                strings.TrimSpace(cmd.Title),
		"description":          strings.TrimSpace(cmd.Description),
		"source_videos":        trimAll(cmd.SourceVideos),
		"goal_views":           cmd.GoalViews,
		"cpm":                  cmd.CPM.String(),
		"deposit":              cmd.Deposit.String(),
		"currency":             string(entities.NormalizeCurrency(cmd.Currency)),
		"min_views_for_payout": cmd.MinViewsForPayout,
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
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
