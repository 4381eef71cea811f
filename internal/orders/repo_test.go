package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	"github.com/angelmondragon/scanpay-backend/pkg/pagination"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	order := newOrderModel("SP-100", "u1", enums.OrderStatusFlagged, base)
	require.NoError(t, repo.Create(ctx, order))

	byNumber, err := repo.FindByOrderNumber(ctx, "SP-100")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
	assert.Equal(t, []string{"High-Value Items Only", "High Total Cart Value"}, []string(byNumber.TriggeredRules))
	require.Len(t, byNumber.Items, 1)
	assert.True(t, byNumber.TotalAmount.Equal(order.TotalAmount))

	byQR, err := repo.FindByExitQRCode(ctx, order.ExitQRCode)
	require.NoError(t, err)
	assert.Equal(t, "SP-100", byQR.OrderNumber)

	_, err = repo.FindByOrderNumber(ctx, "SP-404")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryListFiltersAndOrders(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newOrderModel("SP-1", "u1", enums.OrderStatusPending, base)))
	require.NoError(t, repo.Create(ctx, newOrderModel("SP-2", "u2", enums.OrderStatusFlagged, base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newOrderModel("SP-3", "u1", enums.OrderStatusFlagged, base.Add(2*time.Minute))))

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "SP-3", all[0].OrderNumber)

	flagged := enums.OrderStatusFlagged
	onlyFlagged, err := repo.List(ctx, ListFilter{Status: &flagged})
	require.NoError(t, err)
	require.Len(t, onlyFlagged, 2)

	mine, err := repo.List(ctx, ListFilter{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "SP-3", mine[0].OrderNumber)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[enums.OrderStatusPending])
	assert.Equal(t, int64(2), counts[enums.OrderStatusFlagged])
}

func TestRepositoryListResumesAfterCursor(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newOrderModel("SP-1", "u1", enums.OrderStatusPending, base)))
	require.NoError(t, repo.Create(ctx, newOrderModel("SP-2", "u1", enums.OrderStatusPending, base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newOrderModel("SP-3", "u1", enums.OrderStatusPending, base.Add(time.Minute))))

	first, err := repo.List(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "SP-3", first[0].OrderNumber)
	assert.Equal(t, "SP-2", first[1].OrderNumber)

	last := first[len(first)-1]
	rest, err := repo.List(ctx, ListFilter{Limit: 2, After: &pagination.Cursor{CreatedAt: last.CreatedAt, Key: last.OrderNumber}})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "SP-1", rest[0].OrderNumber)
}

func TestRepositoryCountByStatusEmpty(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestRepositoryMarkVerifiedOnce(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	order := newOrderModel("SP-7", "u1", enums.OrderStatusPending, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	changed, err := repo.MarkVerified(ctx, order.ID, "staff-1", time.Now().UTC())
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = repo.MarkVerified(ctx, order.ID, "staff-2", time.Now().UTC())
	require.NoError(t, err)
	require.False(t, changed)

	got, err := repo.FindByOrderNumber(ctx, "SP-7")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusVerified, got.Status)
	require.NotNil(t, got.VerifiedBy)
	assert.Equal(t, "staff-1", *got.VerifiedBy)
}

func TestRepositoryDeleteMissing(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	order := newOrderModel("SP-8", "u1", enums.OrderStatusPending, time.Now().UTC())
	require.NoError(t, repo.Create(context.Background(), order))

	require.NoError(t, repo.Delete(context.Background(), order.ID))
	err := repo.Delete(context.Background(), order.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
