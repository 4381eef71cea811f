package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

const outboxDDL = `
CREATE TABLE outbox_events (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	payload BLOB NOT NULL,
	created_at DATETIME,
	published_at DATETIME,
	attempt_count INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	terminal_at DATETIME
)`

func newOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(outboxDDL).Error)
	return conn
}

func TestServiceEmitWritesEnvelope(t *testing.T) {
	conn := newOutboxDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, logger.Nop())
	orderID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{UserID: "user-1", Role: "customer"},
			Data:          map[string]string{"order_number": "SP-1"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, orderID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.Equal(t, 1, envelope.Version)
	require.NotEmpty(t, envelope.EventID)
	require.Equal(t, "user-1", envelope.Actor.UserID)
	require.JSONEq(t, `{"order_number":"SP-1"}`, string(envelope.Data))
}

func TestServiceEmitRejectsUnknownTypes(t *testing.T) {
	conn := newOutboxDB(t)
	svc := NewService(NewRepository(conn), nil)

	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.OutboxEventType("order_shipped"),
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	})
	require.Error(t, err)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
}

func TestServiceEmitIfNotExists(t *testing.T) {
	conn := newOutboxDB(t)
	svc := NewService(NewRepository(conn), nil)
	event := DomainEvent{
		EventType:     enums.EventOrderVerified,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]string{"verified_by": "staff"},
	}

	require.NoError(t, svc.EmitIfNotExists(context.Background(), conn, event))
	require.NoError(t, svc.EmitIfNotExists(context.Background(), conn, event))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := newOutboxDB(t)
	repo := NewRepository(conn)

	first := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventOrderFlagged, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	third := models.OutboxEvent{EventType: enums.EventOrderVerified, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	for _, row := range []models.OutboxEvent{first, second, third} {
		require.NoError(t, repo.Insert(conn, row))
	}

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, repo.MarkPublishedTx(conn, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("publish timeout")))
	require.NoError(t, repo.MarkTerminalTx(conn, rows[2].ID, errors.New("bad payload"), 3))

	pending, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, rows[1].ID, pending[0].ID)
	require.Equal(t, 1, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)
	require.Equal(t, "publish timeout", *pending[0].LastError)

	var terminal models.OutboxEvent
	require.NoError(t, conn.First(&terminal, "id = ?", rows[2].ID).Error)
	require.NotNil(t, terminal.TerminalAt)
	require.Equal(t, 3, terminal.AttemptCount)

	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("again")))
	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("again")))
	exhausted, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Empty(t, exhausted)
}

func TestRepositoryRetentionKeepsPendingRows(t *testing.T) {
	conn := newOutboxDB(t)
	repo := NewRepository(conn)
	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()

	oldPublished := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), PublishedAt: &old}
	newPublished := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), PublishedAt: &recent}
	oldTerminal := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderFlagged, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), TerminalAt: &old}
	pending := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderVerified, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: old}
	for _, row := range []models.OutboxEvent{oldPublished, newPublished, oldTerminal, pending} {
		require.NoError(t, repo.Insert(conn, row))
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	deleted, err := repo.DeletePublishedBefore(conn, cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	deleted, err = repo.DeleteTerminalBefore(conn, cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, conn.Order("event_type").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	ids := []uuid.UUID{remaining[0].ID, remaining[1].ID}
	require.ElementsMatch(t, []uuid.UUID{newPublished.ID, pending.ID}, ids)

	_, err = repo.DeletePublishedBefore(nil, cutoff)
	require.Error(t, err)
}
