package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox/payloads"
)

// ExitCodePrefix marks the payload of an exit QR code.
const ExitCodePrefix = "EXIT-"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the staff and customer facing order surface.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]OrderDTO, error)
	ListForUser(ctx context.Context, userID string) ([]OrderDTO, error)
	Get(ctx context.Context, orderNumber string) (*OrderDTO, error)
	VerifyExit(ctx context.Context, code, staffID string) (*OrderDTO, error)
	Delete(ctx context.Context, orderNumber, staffID string) error
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the order service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher, logg: logg, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]OrderDTO, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return fromModels(rows), nil
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]OrderDTO, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication Required")
	}
	return s.List(ctx, ListFilter{UserID: userID})
}

func (s *service) Get(ctx context.Context, orderNumber string) (*OrderDTO, error) {
	order, err := s.findByNumber(ctx, s.repo, orderNumber)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) findByNumber(ctx context.Context, repo Repository, orderNumber string) (*models.Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return order, nil
}

// findByCode accepts either an order number or an exit QR payload.
func (s *service) findByCode(ctx context.Context, repo Repository, code string) (*models.Order, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification code is required")
	}
	if !strings.HasPrefix(code, ExitCodePrefix) {
		return s.findByNumber(ctx, repo, code)
	}
	order, err := repo.FindByExitQRCode(ctx, code)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return order, nil
}

func (s *service) VerifyExit(ctx context.Context, code, staffID string) (*OrderDTO, error) {
	if strings.TrimSpace(staffID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff identity required")
	}
	var verified *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.findByCode(ctx, repo, code)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusVerified {
			return alreadyVerified(order)
		}
		at := s.now().UTC()
		changed, err := repo.MarkVerified(ctx, order.ID, staffID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify order")
		}
		if !changed {
			return alreadyVerified(order)
		}
		previous := order.Status
		order.Status = enums.OrderStatusVerified
		order.VerifiedAt = &at
		order.VerifiedBy = &staffID
		verified = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderVerified,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: staffID, Role: enums.RoleStaff.String()},
			OccurredAt:    at,
			Data: payloads.OrderVerifiedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				PreviousStatus: previous,
				VerifiedBy:     staffID,
				VerifiedAt:     at,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithOrderNumber(s.logg.WithUserID(ctx, staffID), verified.OrderNumber)
	s.logg.Info(logCtx, "order exit verified")
	dto := FromModel(*verified)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, orderNumber, staffID string) error {
	if strings.TrimSpace(staffID) == "" {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff identity required")
	}
	var deleted *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.findByNumber(ctx, repo, orderNumber)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, order.ID); err != nil {
			return mapLookupErr(err)
		}
		at := s.now().UTC()
		deleted = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: staffID, Role: enums.RoleStaff.String()},
			OccurredAt:    at,
			Data: payloads.OrderDeletedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				DeletedBy:   staffID,
				DeletedAt:   at,
			},
		})
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithOrderNumber(s.logg.WithUserID(ctx, staffID), deleted.OrderNumber), "order deleted")
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	out := &Stats{
		Pending:  counts[enums.OrderStatusPending],
		Flagged:  counts[enums.OrderStatusFlagged],
		Verified: counts[enums.OrderStatusVerified],
	}
	out.Total = out.Pending + out.Flagged + out.Verified
	return out, nil
}

func alreadyVerified(order *models.Order) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "Order Already Verified").
		WithDetails(map[string]any{"orderNumber": order.OrderNumber, "verifiedAt": order.VerifiedAt})
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
