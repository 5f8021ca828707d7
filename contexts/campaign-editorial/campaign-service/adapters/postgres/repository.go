package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/campaign-service/domain/errors"
	"clypzy/contexts/campaign-editorial/campaign-service/ports"
	"clypzy/internal/platform/db"
	"clypzy/internal/shared/outbox"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	outbox *outbox.Store
	logger *slog.Logger
}

func NewRepository(conn *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     conn,
		outbox: outbox.NewStore(conn, "campaign_outbox", ""),
		logger: logger,
	}
}

func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&campaignModel{},
		&stateHistoryModel{},
		&idempotencyModel{},
	); err != nil {
		return r.logError("campaign_repo_migrate_failed", err)
	}
	return r.outbox.Migrate(ctx)
}

// Outbox exposes the campaign outbox table to the relay.
func (r *Repository) Outbox() *outbox.Store {
	return r.outbox
}

func (r *Repository) CreateCampaign(ctx context.Context, campaign entities.Campaign) error {
	row, err := campaignModelFromEntity(campaign)
	if err != nil {
		return err
	}
	if err := db.Conn(ctx, r.db).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("campaign_repo_create_failed", err, "campaign_id", row.CampaignID)
	}
	return nil
}

func (r *Repository) UpdateCampaign(ctx context.Context, campaign entities.Campaign) error {
	row, err := campaignModelFromEntity(campaign)
	if err != nil {
		return err
	}
	result := db.Conn(ctx, r.db).
		Model(&campaignModel{}).
		Where("campaign_id = ?", row.CampaignID).
		Updates(map[string]any{
			"brand_id":             row.BrandID,
			"title":                row.Title,
			"description":          row.Description,
			"source_videos":        row.SourceVideos,
			"goal_views":           row.GoalViews,
			"cpm":                  row.CPM,
			"deposit":              row.Deposit,
			"currency":             row.Currency,
			"min_views_for_payout": row.MinViewsForPayout,
			"status":               row.Status,
			"updated_at":           row.UpdatedAt,
			"launched_at":          row.LaunchedAt,
			"completed_at":         row.CompletedAt,
		})
	if result.Error != nil {
		return r.logError("campaign_repo_update_failed", result.Error, "campaign_id", row.CampaignID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}
	return nil
}

func (r *Repository) DeleteCampaign(ctx context.Context, campaignID string) error {
	result := db.Conn(ctx, r.db).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Delete(&campaignModel{})
	if result.Error != nil {
		return r.logError("campaign_repo_delete_failed", result.Error, "campaign_id", campaignID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}
	return nil
}

func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	var row campaignModel
	err := db.Conn(ctx, r.db).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Campaign{}, r.logError("campaign_repo_get_failed", err, "campaign_id", campaignID)
	}
	return row.toEntity()
}

func (r *Repository) ListCampaigns(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	tx := db.Conn(ctx, r.db).Model(&campaignModel{})
	if strings.TrimSpace(filter.BrandID) != "" {
		tx = tx.Where("brand_id = ?", strings.TrimSpace(filter.BrandID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []campaignModel
	if err := tx.Order("created_at DESC").Order("campaign_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("campaign_repo_list_failed", err)
	}
	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) AppendState(ctx context.Context, item entities.StateHistory) error {
	row := stateHistoryModel{
		HistoryID:    item.HistoryID,
		CampaignID:   item.CampaignID,
		FromState:    string(item.FromState),
		ToState:      string(item.ToState),
		ChangedBy:    item.ChangedBy,
		ChangeReason: item.ChangeReason,
		CreatedAt:    item.CreatedAt.UTC(),
	}
	if err := db.Conn(ctx, r.db).Create(&row).Error; err != nil {
		return r.logError("campaign_repo_append_state_failed", err, "campaign_id", item.CampaignID)
	}
	return nil
}

func (r *Repository) ListStates(ctx context.Context, campaignID string) ([]entities.StateHistory, error) {
	var rows []stateHistoryModel
	if err := db.Conn(ctx, r.db).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("campaign_repo_list_states_failed", err, "campaign_id", campaignID)
	}
	items := make([]entities.StateHistory, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.StateHistory{
			HistoryID:    row.HistoryID,
			CampaignID:   row.CampaignID,
			FromState:    entities.CampaignStatus(row.FromState),
			ToState:      entities.CampaignStatus(row.ToState),
			ChangedBy:    row.ChangedBy,
			ChangeReason: row.ChangeReason,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := db.Conn(ctx, r.db).
		Where("idempotency_key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("campaign_repo_idempotency_get_failed", err, "idempotency_key", key)
	}
	if !row.ExpiresAt.After(now) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	create := db.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("campaign_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := db.Conn(ctx, r.db).
		Where("idempotency_key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("campaign_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	if err := r.outbox.Append(ctx, envelope); err != nil {
		if errors.Is(err, outbox.ErrPayloadConflict) {
			return domainerrors.ErrConflict
		}
		return r.logError("campaign_repo_append_outbox_failed", err, "event_id", envelope.EventID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := []any{
		"event", event,
		"module", "campaign-editorial/campaign-service",
		"layer", "adapter",
		"error", err.Error(),
	}
	r.logger.Error("campaign repository operation failed", append(fields, attrs...)...)
	return err
}

type campaignModel struct {
	CampaignID        string          `gorm:"column:campaign_id;primaryKey"`
	BrandID           string          `gorm:"column:brand_id;index"`
	Title             string          `gorm:"column:title"`
	Description       string          `gorm:"column:description"`
	SourceVideos      []byte          `gorm:"column:source_videos;type:jsonb"`
	GoalViews         int64           `gorm:"column:goal_views"`
	CPM               decimal.Decimal `gorm:"column:cpm;type:numeric(20,6)"`
	Deposit           decimal.Decimal `gorm:"column:deposit;type:numeric(20,6)"`
	Currency          string          `gorm:"column:currency"`
	MinViewsForPayout int64           `gorm:"column:min_views_for_payout"`
	Status            string          `gorm:"column:status;index"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
	LaunchedAt        *time.Time      `gorm:"column:launched_at"`
	CompletedAt       *time.Time      `gorm:"column:completed_at"`
}

func (campaignModel) TableName() string {
	return "campaigns"
}

func campaignModelFromEntity(item entities.Campaign) (campaignModel, error) {
	videos, err := json.Marshal(copyOrEmpty(item.SourceVideos))
	if err != nil {
		return campaignModel{}, err
	}
	return campaignModel{
		CampaignID:        strings.TrimSpace(item.CampaignID),
		BrandID:           strings.TrimSpace(item.BrandID),
		Title:             item.Title,
		Description:       item.Description,
		SourceVideos:      videos,
		GoalViews:         item.GoalViews,
		CPM:               item.CPM,
		Deposit:           item.Deposit,
		Currency:          string(item.Currency),
		MinViewsForPayout: item.MinViewsForPayout,
		Status:            string(item.Status),
		CreatedAt:         item.CreatedAt.UTC(),
		UpdatedAt:         item.UpdatedAt.UTC(),
		LaunchedAt:        normalizeOptionalTime(item.LaunchedAt),
		CompletedAt:       normalizeOptionalTime(item.CompletedAt),
	}, nil
}

func (m campaignModel) toEntity() (entities.Campaign, error) {
	var videos []string
	if len(m.SourceVideos) > 0 {
		if err := json.Unmarshal(m.SourceVideos, &videos); err != nil {
			return entities.Campaign{}, err
		}
	}
	return entities.Campaign{
		CampaignID:        m.CampaignID,
		BrandID:           m.BrandID,
		Title:             m.Title,
		Description:       m.Description,
		SourceVideos:      videos,
		GoalViews:         m.GoalViews,
		CPM:               m.CPM,
		Deposit:           m.Deposit,
		Currency:          entities.Currency(m.Currency),
		MinViewsForPayout: m.MinViewsForPayout,
		Status:            entities.CampaignStatus(m.Status),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
		LaunchedAt:        normalizeOptionalTime(m.LaunchedAt),
		CompletedAt:       normalizeOptionalTime(m.CompletedAt),
	}, nil
}

type stateHistoryModel struct {
	HistoryID    string    `gorm:"column:history_id;primaryKey"`
	CampaignID   string    `gorm:"column:campaign_id;index"`
	FromState    string    `gorm:"column:from_state"`
	ToState      string    `gorm:"column:to_state"`
	ChangedBy    string    `gorm:"column:changed_by"`
	ChangeReason string    `gorm:"column:change_reason"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (stateHistoryModel) TableName() string {
	return "campaign_state_history"
}

type idempotencyModel struct {
	Key             string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "campaign_idempotency"
}

func copyOrEmpty(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	return append([]string(nil), items...)
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

var _ ports.CampaignRepository = (*Repository)(nil)
var _ ports.HistoryRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
