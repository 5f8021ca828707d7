package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	"clypzy/contexts/campaign-editorial/clip-service/ports"
	"clypzy/internal/platform/db"
	"clypzy/internal/shared/outbox"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
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
		outbox: outbox.NewStore(conn, "clip_outbox", "clip_event_dedup"),
		logger: logger,
	}
}

func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&clipModel{}, &auditModel{}); err != nil {
		return r.logError("clip_repo_migrate_failed", err)
	}
	return r.outbox.Migrate(ctx)
}

// Outbox exposes the clip outbox table to the relay.
func (r *Repository) Outbox() *outbox.Store {
	return r.outbox
}

func (r *Repository) CreateClip(ctx context.Context, clip entities.Clip) error {
	row, err := clipModelFromEntity(clip)
	if err != nil {
		return err
	}
	if err := db.Conn(ctx, r.db).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("clip_repo_create_failed", err, "clip_id", row.ClipID)
	}
	return nil
}

func (r *Repository) UpdateClip(ctx context.Context, clip entities.Clip) error {
	row, err := clipModelFromEntity(clip)
	if err != nil {
		return err
	}
	result := db.Conn(ctx, r.db).
		Model(&clipModel{}).
		Where("clip_id = ?", row.ClipID).
		Updates(map[string]any{
			"clip_link":           row.ClipLink,
			"original_video_link": row.OriginalVideoLink,
			"clip_timestamps":     row.ClipTimestamps,
			"creator_message":     row.CreatorMessage,
			"views":               row.Views,
			"earnings":            row.Earnings,
			"cpm_applied":         row.CPMApplied,
			"status":              row.Status,
			"reviewed_by":         row.ReviewedBy,
			"updated_at":          row.UpdatedAt,
			"approved_at":         row.ApprovedAt,
			"flagged_at":          row.FlaggedAt,
		})
	if result.Error != nil {
		return r.logError("clip_repo_update_failed", result.Error, "clip_id", row.ClipID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrClipNotFound
	}
	return nil
}

func (r *Repository) DeleteClip(ctx context.Context, clipID string) error {
	result := db.Conn(ctx, r.db).
		Where("clip_id = ?", strings.TrimSpace(clipID)).
		Delete(&clipModel{})
	if result.Error != nil {
		return r.logError("clip_repo_delete_failed", result.Error, "clip_id", clipID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrClipNotFound
	}
	return nil
}

func (r *Repository) GetClip(ctx context.Context, clipID string) (entities.Clip, error) {
	var row clipModel
	err := db.Conn(ctx, r.db).
		Where("clip_id = ?", strings.TrimSpace(clipID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Clip{}, domainerrors.ErrClipNotFound
		}
		return entities.Clip{}, r.logError("clip_repo_get_failed", err, "clip_id", clipID)
	}
	return row.toEntity()
}

func (r *Repository) ListClips(ctx context.Context, filter ports.ClipFilter) ([]entities.Clip, error) {
	tx := db.Conn(ctx, r.db).Model(&clipModel{})
	if strings.TrimSpace(filter.CreatorID) != "" {
		tx = tx.Where("creator_id = ?", strings.TrimSpace(filter.CreatorID))
	}
	if strings.TrimSpace(filter.CampaignID) != "" {
		tx = tx.Where("campaign_id = ?", strings.TrimSpace(filter.CampaignID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []clipModel
	if err := tx.Order("submitted_at DESC").Order("clip_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("clip_repo_list_failed", err)
	}
	items := make([]entities.Clip, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) AppendAudit(ctx context.Context, audit entities.ClipAudit) error {
	row := auditModel{
		AuditID:     audit.AuditID,
		ClipID:      audit.ClipID,
		CreatorID:   audit.CreatorID,
		Action:      string(audit.Action),
		ActorID:     audit.ActorID,
		FromStatus:  string(audit.FromStatus),
		ToStatus:    string(audit.ToStatus),
		OldViews:    audit.OldViews,
		NewViews:    audit.NewViews,
		OldEarnings: audit.OldEarnings,
		NewEarnings: audit.NewEarnings,
		CreatedAt:   audit.CreatedAt.UTC(),
	}
	if err := db.Conn(ctx, r.db).Create(&row).Error; err != nil {
		return r.logError("clip_repo_append_audit_failed", err, "clip_id", audit.ClipID)
	}
	return nil
}

func (r *Repository) ListAudits(ctx context.Context, clipID string) ([]entities.ClipAudit, error) {
	var rows []auditModel
	if err := db.Conn(ctx, r.db).
		Where("clip_id = ?", strings.TrimSpace(clipID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("clip_repo_list_audits_failed", err, "clip_id", clipID)
	}
	items := make([]entities.ClipAudit, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.ClipAudit{
			AuditID:     row.AuditID,
			ClipID:      row.ClipID,
			CreatorID:   row.CreatorID,
			Action:      entities.AuditAction(row.Action),
			ActorID:     row.ActorID,
			FromStatus:  entities.ClipStatus(row.FromStatus),
			ToStatus:    entities.ClipStatus(row.ToStatus),
			OldViews:    row.OldViews,
			NewViews:    row.NewViews,
			OldEarnings: row.OldEarnings,
			NewEarnings: row.NewEarnings,
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	if err := r.outbox.Append(ctx, envelope); err != nil {
		if errors.Is(err, outbox.ErrPayloadConflict) {
			return domainerrors.ErrConflict
		}
		return r.logError("clip_repo_append_outbox_failed", err, "event_id", envelope.EventID)
	}
	return nil
}

func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	reserved, err := r.outbox.ReserveEvent(ctx, eventID, payloadHash, expiresAt)
	if err != nil {
		if errors.Is(err, outbox.ErrPayloadConflict) {
			return false, domainerrors.ErrConflict
		}
		return false, r.logError("clip_repo_reserve_event_failed", err, "event_id", eventID)
	}
	return reserved, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := []any{
		"event", event,
		"module", "campaign-editorial/clip-service",
		"layer", "adapter",
		"error", err.Error(),
	}
	r.logger.Error("clip repository operation failed", append(fields, attrs...)...)
	return err
}

// CampaignReader reads the campaign columns clip review depends on straight
// from the campaigns table owned by the campaign service.
type CampaignReader struct {
	db *gorm.DB
}

func NewCampaignReader(conn *gorm.DB) *CampaignReader {
	return &CampaignReader{db: conn}
}

func (r *CampaignReader) GetCampaign(ctx context.Context, campaignID string) (entities.CampaignSnapshot, error) {
	var row campaignProjection
	err := db.Conn(ctx, r.db).
		Table("campaigns").
		Select("campaign_id", "status", "cpm", "currency").
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CampaignSnapshot{}, domainerrors.ErrCampaignNotFound
		}
		return entities.CampaignSnapshot{}, err
	}
	return entities.CampaignSnapshot{
		CampaignID: row.CampaignID,
		Status:     row.Status,
		CPM:        row.CPM,
		Currency:   row.Currency,
	}, nil
}

type campaignProjection struct {
	CampaignID string          `gorm:"column:campaign_id"`
	Status     string          `gorm:"column:status"`
	CPM        decimal.Decimal `gorm:"column:cpm"`
	Currency   string          `gorm:"column:currency"`
}

type clipModel struct {
	ClipID            string          `gorm:"column:clip_id;primaryKey"`
	CampaignID        string          `gorm:"column:campaign_id;index"`
	CreatorID         string          `gorm:"column:creator_id;index"`
	ClipLink          string          `gorm:"column:clip_link"`
	OriginalVideoLink string          `gorm:"column:original_video_link"`
	ClipTimestamps    []byte          `gorm:"column:clip_timestamps;type:jsonb"`
	CreatorMessage    string          `gorm:"column:creator_message"`
	Views             int64           `gorm:"column:views"`
	Earnings          decimal.Decimal `gorm:"column:earnings;type:numeric(20,6)"`
	CPMApplied        decimal.Decimal `gorm:"column:cpm_applied;type:numeric(20,6)"`
	Status            string          `gorm:"column:status;index"`
	ReviewedBy        string          `gorm:"column:reviewed_by"`
	SubmittedAt       time.Time       `gorm:"column:submitted_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
	ApprovedAt        *time.Time      `gorm:"column:approved_at"`
	FlaggedAt         *time.Time      `gorm:"column:flagged_at"`
}

func (clipModel) TableName() string {
	return "clips"
}

func clipModelFromEntity(item entities.Clip) (clipModel, error) {
	timestamps := item.ClipTimestamps
	if timestamps == nil {
		timestamps = []string{}
	}
	encoded, err := json.Marshal(timestamps)
	if err != nil {
		return clipModel{}, err
	}
	return clipModel{
		ClipID:            strings.TrimSpace(item.ClipID),
		CampaignID:        strings.TrimSpace(item.CampaignID),
		CreatorID:         strings.TrimSpace(item.CreatorID),
		ClipLink:          item.ClipLink,
		OriginalVideoLink: item.OriginalVideoLink,
		ClipTimestamps:    encoded,
		CreatorMessage:    item.CreatorMessage,
		Views:             item.Views,
		Earnings:          item.Earnings,
		CPMApplied:        item.CPMApplied,
		Status:            string(item.Status),
		ReviewedBy:        item.ReviewedBy,
		SubmittedAt:       item.SubmittedAt.UTC(),
		UpdatedAt:         item.UpdatedAt.UTC(),
		ApprovedAt:        normalizeOptionalTime(item.ApprovedAt),
		FlaggedAt:         normalizeOptionalTime(item.FlaggedAt),
	}, nil
}

func (m clipModel) toEntity() (entities.Clip, error) {
	var timestamps []string
	if len(m.ClipTimestamps) > 0 {
		if err := json.Unmarshal(m.ClipTimestamps, &timestamps); err != nil {
			return entities.Clip{}, err
		}
	}
	return entities.Clip{
		ClipID:            m.ClipID,
		CampaignID:        m.CampaignID,
		CreatorID:         m.CreatorID,
		ClipLink:          m.ClipLink,
		OriginalVideoLink: m.OriginalVideoLink,
		ClipTimestamps:    timestamps,
		CreatorMessage:    m.CreatorMessage,
		Views:             m.Views,
		Earnings:          m.Earnings,
		CPMApplied:        m.CPMApplied,
		Status:            entities.ClipStatus(m.Status),
		ReviewedBy:        m.ReviewedBy,
		SubmittedAt:       m.SubmittedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
		ApprovedAt:        normalizeOptionalTime(m.ApprovedAt),
		FlaggedAt:         normalizeOptionalTime(m.FlaggedAt),
	}, nil
}

type auditModel struct {
	AuditID     string          `gorm:"column:audit_id;primaryKey"`
	ClipID      string          `gorm:"column:clip_id;index"`
	CreatorID   string          `gorm:"column:creator_id"`
	Action      string          `gorm:"column:action"`
	ActorID     string          `gorm:"column:actor_id"`
	FromStatus  string          `gorm:"column:from_status"`
	ToStatus    string          `gorm:"column:to_status"`
	OldViews    int64           `gorm:"column:old_views"`
	NewViews    int64           `gorm:"column:new_views"`
	OldEarnings decimal.Decimal `gorm:"column:old_earnings;type:numeric(20,6)"`
	NewEarnings decimal.Decimal `gorm:"column:new_earnings;type:numeric(20,6)"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
}

func (auditModel) TableName() string {
	return "clip_audits"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

var _ ports.ClipRepository = (*Repository)(nil)
var _ ports.AuditRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
var _ ports.CampaignReader = (*CampaignReader)(nil)
