package entities

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"

	"github.com/shopspring/decimal"
)

const MaxCreatorMessageLength = 1000

var timestampPattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)

type ActorRole string

const (
	ActorRoleCreator ActorRole = "creator"
	ActorRoleAdmin   ActorRole = "admin"
)

// Viewer identifies who is reading clip data.
type Viewer struct {
	UserID string
	Role   ActorRole
}

// CanSee reports whether the viewer may read data owned by creatorID.
func (v Viewer) CanSee(creatorID string) bool {
	return v.Role == ActorRoleAdmin || strings.TrimSpace(v.UserID) == creatorID
}

type Clip struct {
	ClipID            string
	CampaignID        string
	CreatorID         string
	ClipLink          string
	OriginalVideoLink string
	ClipTimestamps    []string
	CreatorMessage    string
	Views             int64
	Earnings          decimal.Decimal
	CPMApplied        decimal.Decimal
	Status            ClipStatus
	ReviewedBy        string
	SubmittedAt       time.Time
	UpdatedAt         time.Time
	ApprovedAt        *time.Time
	FlaggedAt         *time.Time
}

// ValidateSubmission checks the fields a creator supplies.
func (c Clip) ValidateSubmission() error {
	if strings.TrimSpace(c.CampaignID) == "" ||
		strings.TrimSpace(c.CreatorID) == "" ||
		strings.TrimSpace(c.ClipLink) == "" {
		return domainerrors.ErrInvalidClipInput
	}
	if utf8.RuneCountInString(c.CreatorMessage) > MaxCreatorMessageLength {
		return domainerrors.ErrMessageTooLong
	}
	for _, ts := range c.ClipTimestamps {
		if !timestampPattern.MatchString(ts) {
			return domainerrors.ErrInvalidTimestamp
		}
	}
	return nil
}

type AuditAction string

const (
	AuditActionSubmitted     AuditAction = "submitted"
	AuditActionStatusChanged AuditAction = "status_changed"
	AuditActionViewsUpdated  AuditAction = "views_updated"
	AuditActionDeleted       AuditAction = "deleted"
)

// ClipAudit is an append-only record of one clip mutation.
type ClipAudit struct {
	AuditID     string
	ClipID      string
	CreatorID   string
	Action      AuditAction
	ActorID     string
	FromStatus  ClipStatus
	ToStatus    ClipStatus
	OldViews    int64
	NewViews    int64
	OldEarnings decimal.Decimal
	NewEarnings decimal.Decimal
	CreatedAt   time.Time
}

// CampaignSnapshot is the part of a campaign clip review depends on.
type CampaignSnapshot struct {
	CampaignID string
	Status     string
	CPM        decimal.Decimal
	Currency   string
}

const CampaignStatusLive = "live"

func (c CampaignSnapshot) IsLive() bool {
	return c.Status == CampaignStatusLive
}
