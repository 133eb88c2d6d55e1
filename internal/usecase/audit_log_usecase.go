package usecase

import (
	"context"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 管理者向けの監査ログ参照
type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type ListAuditLogsInput struct {
	Action       string
	ResourceType string
	ResourceID   *int64
	Since        *time.Time
	Limit        int
}

func (u *AuditLogUsecase) List(ctx context.Context, identity model.Identity, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if !identity.Authenticated() {
		return nil, NewHTTPError(KindUnauthorized, "unauthorized")
	}
	if identity.Role != model.RoleAdmin {
		return nil, NewHTTPError(KindForbidden, "admin only")
	}
	if in.Limit < 0 || in.Limit > 200 {
		return nil, NewHTTPError(KindValidation, "invalid limit")
	}

	f := repo.AuditLogFilter{ResourceID: in.ResourceID, CreatedFrom: in.Since, Limit: in.Limit}
	switch a := model.AuditAction(strings.ToUpper(strings.TrimSpace(in.Action))); a {
	case "":
	case model.AuditActionUpdateStock, model.AuditActionSettlePayment:
		f.Action = &a
	default:
		return nil, NewHTTPError(KindValidation, "invalid action")
	}
	switch rt := model.AuditResourceType(strings.ToLower(strings.TrimSpace(in.ResourceType))); rt {
	case "":
	case model.AuditResourceProduct, model.AuditResourceOrder:
		f.ResourceType = &rt
	default:
		return nil, NewHTTPError(KindValidation, "invalid resourceType")
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, dbError(err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
