package usecase_test

import (
	"context"
	"testing"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditLogUsecase_List_AdminOnly(t *testing.T) {
	audit := new(AuditRepoMock)

	_, err := usecase.NewAuditLogUsecase(audit).List(context.Background(), seller(10), usecase.ListAuditLogsInput{})
	assertKind(t, err, usecase.KindForbidden)
	audit.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAuditLogUsecase_List_Filters(t *testing.T) {
	audit := new(AuditRepoMock)
	action := model.AuditActionSettlePayment
	rt := model.AuditResourceOrder
	audit.On("List", mock.Anything, repo.AuditLogFilter{Action: &action, ResourceType: &rt, Limit: 20}).
		Return([]model.AuditLog{{ID: 1, Action: action}}, nil)

	logs, err := usecase.NewAuditLogUsecase(audit).List(context.Background(), admin(1), usecase.ListAuditLogsInput{
		Action:       "settle_payment",
		ResourceType: "ORDER",
		Limit:        20,
	})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	audit.AssertExpectations(t)
}

func TestAuditLogUsecase_List_InvalidAction(t *testing.T) {
	_, err := usecase.NewAuditLogUsecase(new(AuditRepoMock)).List(context.Background(), admin(1), usecase.ListAuditLogsInput{Action: "DROP"})
	assertKind(t, err, usecase.KindValidation)
}
