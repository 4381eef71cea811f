package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/pkg/db"
	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox/payloads"
)

func newTestService(t *testing.T) (Service, *gorm.DB, Repository) {
	t.Helper()
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.Wrap(conn), outbox.NewService(outbox.NewRepository(conn), logger.Nop()), logger.Nop())
	require.NoError(t, err)
	return svc, conn, repo
}

func outboxRows(t *testing.T, conn *gorm.DB) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, conn.Order("created_at").Find(&rows).Error)
	return rows
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil)
	require.Error(t, err)
}

func TestVerifyExitByQRCodeEmitsEvent(t *testing.T) {
	svc, conn, repo := newTestService(t)
	ctx := context.Background()
	order := newOrderModel("SP-1700000000000", "u1", enums.OrderStatusFlagged, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	dto, err := svc.VerifyExit(ctx, order.ExitQRCode, "staff-1")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusVerified, dto.Status)
	require.NotNil(t, dto.VerifiedAt)
	require.Equal(t, "staff-1", *dto.VerifiedBy)

	rows := outboxRows(t, conn)
	require.Len(t, rows, 1)
	require.Equal(t, enums.EventOrderVerified, rows[0].EventType)
	require.Equal(t, order.ID, rows[0].AggregateID)

	var env outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	var data payloads.OrderVerifiedEvent
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, enums.OrderStatusFlagged, data.PreviousStatus)
	require.Equal(t, "staff-1", data.VerifiedBy)
}

func TestVerifyExitRejectsAlreadyVerified(t *testing.T) {
	svc, conn, repo := newTestService(t)
	ctx := context.Background()
	order := newOrderModel("SP-2", "u1", enums.OrderStatusPending, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	_, err := svc.VerifyExit(ctx, "SP-2", "staff-1")
	require.NoError(t, err)
	_, err = svc.VerifyExit(ctx, "SP-2", "staff-1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Len(t, outboxRows(t, conn), 1)
}

func TestVerifyExitValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.VerifyExit(ctx, "", "staff-1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.VerifyExit(ctx, "SP-missing", "staff-1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.VerifyExit(ctx, "EXIT-SP-missing-1", "staff-1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.VerifyExit(ctx, "SP-1", "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestDeleteEmitsEventAndRemovesRow(t *testing.T) {
	svc, conn, repo := newTestService(t)
	ctx := context.Background()
	order := newOrderModel("SP-3", "u1", enums.OrderStatusPending, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, svc.Delete(ctx, "SP-3", "staff-1"))
	_, err := svc.Get(ctx, "SP-3")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	rows := outboxRows(t, conn)
	require.Len(t, rows, 1)
	require.Equal(t, enums.EventOrderDeleted, rows[0].EventType)

	err = svc.Delete(ctx, "SP-3", "staff-1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListStatsAndUserOrders(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newOrderModel("SP-10", "u1", enums.OrderStatusPending, base)))
	require.NoError(t, repo.Create(ctx, newOrderModel("SP-11", "u2", enums.OrderStatusFlagged, base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newOrderModel("SP-12", "u1", enums.OrderStatusFlagged, base.Add(2*time.Minute))))

	flagged := enums.OrderStatusFlagged
	list, err := svc.List(ctx, ListFilter{Status: &flagged})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, list[0].NeedsManualVerification)
	require.NotEmpty(t, list[0].TriggeredRules)

	bogus := enums.OrderStatus("shipped")
	_, err = svc.List(ctx, ListFilter{Status: &bogus})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	mine, err := svc.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	_, err = svc.ListForUser(ctx, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Total: 3, Pending: 1, Flagged: 2}, *stats)
}

func TestOrderDTOWireNames(t *testing.T) {
	dto := FromModel(*newOrderModel("SP-20", "u1", enums.OrderStatusFlagged, time.Now().UTC()))
	raw, err := json.Marshal(dto)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"suspicionScore", "needsManualVerification", "triggeredRules", "exitQrCode", "shippingInfo"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing %s in %s", key, raw)
		}
	}
}
