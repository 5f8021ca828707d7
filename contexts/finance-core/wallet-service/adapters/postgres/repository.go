package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"clypzy/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "clypzy/contexts/finance-core/wallet-service/domain/errors"
	"clypzy/contexts/finance-core/wallet-service/ports"
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
		outbox: outbox.NewStore(conn, "wallet_outbox", ""),
		logger: logger,
	}
}

func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&walletModel{}); err != nil {
		return r.logError("wallet_repo_migrate_failed", err)
	}
	return r.outbox.Migrate(ctx)
}

// Outbox exposes the wallet outbox table to the relay.
func (r *Repository) Outbox() *outbox.Store {
	return r.outbox
}

func (r *Repository) CreateWallet(ctx context.Context, wallet entities.Wallet) error {
	row := walletModelFromEntity(wallet)
	if err := db.Conn(ctx, r.db).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("wallet_repo_create_failed", err, "user_id", row.UserID)
	}
	return nil
}

func (r *Repository) UpdateWallet(ctx context.Context, wallet entities.Wallet) error {
	row := walletModelFromEntity(wallet)
	result := db.Conn(ctx, r.db).
		Model(&walletModel{}).
		Where("user_id = ?", row.UserID).
		Updates(map[string]any{
			"available_balance":   row.AvailableBalance,
			"approved_clip_count": row.ApprovedClipCount,
			"last_recomputed_at":  row.LastRecomputedAt,
			"updated_at":          row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("wallet_repo_update_failed", result.Error, "user_id", row.UserID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrWalletNotFound
	}
	return nil
}

func (r *Repository) GetWallet(ctx context.Context, userID string) (entities.Wallet, error) {
	// Unregistered creators are routine here, so a miss is not a gorm error.
	var rows []walletModel
	result := db.Conn(ctx, r.db).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Limit(1).
		Find(&rows)
	if result.Error != nil {
		return entities.Wallet{}, r.logError("wallet_repo_get_failed", result.Error, "user_id", userID)
	}
	if result.RowsAffected == 0 || len(rows) == 0 {
		return entities.Wallet{}, domainerrors.ErrWalletNotFound
	}
	return rows[0].toEntity(), nil
}

func (r *Repository) ListWalletIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := db.Conn(ctx, r.db).
		Model(&walletModel{}).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, r.logError("wallet_repo_list_ids_failed", err)
	}
	return ids, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	if err := r.outbox.Append(ctx, envelope); err != nil {
		if errors.Is(err, outbox.ErrPayloadConflict) {
			return domainerrors.ErrConflict
		}
		return r.logError("wallet_repo_append_outbox_failed", err, "event_id", envelope.EventID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := []any{
		"event", event,
		"module", "finance-core/wallet-service",
		"layer", "adapter",
		"error", err.Error(),
	}
	r.logger.Error("wallet repository operation failed", append(fields, attrs...)...)
	return err
}

// EarningsReader sums from the clips table owned by the clip service. Reads
// go through the transaction in ctx so a recompute sees the clip write that
// triggered it.
type EarningsReader struct {
	db *gorm.DB
}

func NewEarningsReader(conn *gorm.DB) *EarningsReader {
	return &EarningsReader{db: conn}
}

func (r *EarningsReader) ListApprovedEarnings(ctx context.Context, creatorID string) ([]entities.ApprovedEarning, error) {
	var rows []approvedClipProjection
	if err := db.Conn(ctx, r.db).
		Table("clips").
		Select("clip_id", "earnings").
		Where("creator_id = ? AND status = ?", strings.TrimSpace(creatorID), "approved").
		Order("clip_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.ApprovedEarning, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.ApprovedEarning{ClipID: row.ClipID, Earnings: row.Earnings})
	}
	return items, nil
}

type approvedClipProjection struct {
	ClipID   string          `gorm:"column:clip_id"`
	Earnings decimal.Decimal `gorm:"column:earnings"`
}

type walletModel struct {
	UserID            string          `gorm:"column:user_id;primaryKey"`
	AvailableBalance  decimal.Decimal `gorm:"column:available_balance;type:numeric(20,6)"`
	Currency          string          `gorm:"column:currency"`
	ApprovedClipCount int             `gorm:"column:approved_clip_count"`
	LastRecomputedAt  *time.Time      `gorm:"column:last_recomputed_at"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}

func (walletModel) TableName() string {
	return "wallets"
}

func walletModelFromEntity(item entities.Wallet) walletModel {
	return walletModel{
		UserID:            strings.TrimSpace(item.UserID),
		AvailableBalance:  item.AvailableBalance,
		Currency:          string(item.Currency),
		ApprovedClipCount: item.ApprovedClipCount,
		LastRecomputedAt:  normalizeOptionalTime(item.LastRecomputedAt),
		CreatedAt:         item.CreatedAt.UTC(),
		UpdatedAt:         item.UpdatedAt.UTC(),
	}
}

func (m walletModel) toEntity() entities.Wallet {
	return entities.Wallet{
		UserID:            m.UserID,
		AvailableBalance:  m.AvailableBalance,
		Currency:          entities.Currency(m.Currency),
		ApprovedClipCount: m.ApprovedClipCount,
		LastRecomputedAt:  normalizeOptionalTime(m.LastRecomputedAt),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

var _ ports.WalletRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.EarningsSource = (*EarningsReader)(nil)
