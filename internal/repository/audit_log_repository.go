package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

//監査ログの絞り込み条件。
type AuditLogFilter struct {
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	Limit        int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
