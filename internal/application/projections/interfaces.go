package projections

import (
	"context"

	"backoffice/internal/adapters/storage/audit"
	domainAudit "backoffice/internal/domain/audit"
	"backoffice/internal/domain/coupon"
	"backoffice/internal/domain/record"
)

// AuditStore interface for audit trail queries.
type AuditStore interface {
	List(ctx context.Context, filter audit.Filter, limit int) ([]domainAudit.Event, error)
}

// Counter counts the records of an upstream collection.
type Counter interface {
	Count(ctx context.Context, resource string) (int, error)
}

// CouponSource reads a coupon and its sub-lists.
type CouponSource interface {
	Get(ctx context.Context, id record.ID) (coupon.Coupon, error)
	Stores(ctx context.Context, id record.ID) ([]coupon.Store, error)
	Usage(ctx context.Context, id record.ID) ([]coupon.Usage, error)
}
