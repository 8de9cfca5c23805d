package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/cart"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/observ"
	"github.com/lalith-99/deliverypro/internal/realtime"
	"github.com/lalith-99/deliverypro/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrConcurrentUpdate   = errors.New("order was changed by someone else, reload and retry")
	ErrTenantUnavailable  = errors.New("company is not accepting orders")
	ErrProductUnavailable = errors.New("product is not available")
	ErrDriverNotFound     = errors.New("driver not found")
	ErrNotAssignedDriver  = errors.New("order is not assigned to this driver")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
)

// activeForDriver are the statuses a driver still has work to do on.
var activeForDriver = []models.OrderStatus{
	models.OrderAccepted,
	models.OrderPreparing,
	models.OrderOnTheWay,
	models.OrderAtDoor,
}

// Service owns every write to an order. Handlers never update status
// fields directly.
type Service struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	tenants   repository.TenantRepository
	drivers   repository.DriverRepository
	publisher realtime.Publisher
	metrics   *observ.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	tenants repository.TenantRepository,
	drivers repository.DriverRepository,
	publisher realtime.Publisher,
	metrics *observ.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		orders:    orders,
		products:  products,
		tenants:   tenants,
		drivers:   drivers,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type CreateInput struct {
	TenantID      uuid.UUID
	Items         []ItemInput
	Address       models.Address
	PaymentMethod models.PaymentMethod
	ChangeFor     *decimal.Decimal
}

// Create prices the requested items from the live catalog, validates the
// result like a checkout would, and writes the order with its items in one
// transaction.
func (s *Service) Create(ctx context.Context, clientID uuid.UUID, in CreateInput) (*models.Order, error) {
	if in.TenantID == uuid.Nil {
		return nil, cart.ErrNoTenant
	}
	tenant, err := s.tenants.GetByID(ctx, in.TenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if tenant == nil || tenant.Status != models.TenantActive {
		return nil, ErrTenantUnavailable
	}

	c := cart.New()
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		p, err := s.products.GetByID(ctx, in.TenantID, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product: %w", err)
		}
		if p == nil || !p.Available() {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, item.ProductID)
		}
		for i := 0; i < item.Quantity; i++ {
			c.Add(*p)
		}
	}

	draft, err := c.Checkout(cart.CheckoutInput{
		TenantID:      in.TenantID,
		Address:       in.Address,
		PaymentMethod: in.PaymentMethod,
		ChangeFor:     in.ChangeFor,
	})
	if err != nil {
		return nil, err
	}

	o := &models.Order{
		TenantID:      draft.TenantID,
		ClientID:      clientID,
		Address:       draft.Address,
		PaymentMethod: draft.PaymentMethod,
		ChangeFor:     draft.ChangeFor,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		Total:         draft.Total,
	}
	items := make([]models.OrderItem, 0, len(draft.Lines))
	for _, l := range draft.Lines {
		items = append(items, models.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	created, err := s.orders.CreateWithItems(ctx, o, items)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", created.ID.String()),
		zap.String("tenant_id", created.TenantID.String()),
		zap.String("total", created.Total.StringFixed(2)),
	)
	s.metrics.OrderTransition("", string(created.Status))
	s.publish(ctx, created, realtime.EventInsert)
	return created, nil
}

func (s *Service) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) Accept(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	return s.mutate(ctx, tenantID, orderID, func(o *models.Order) error {
		return Accept(o, s.now())
	})
}

// AssignDriver attaches one of the tenant's own drivers to an accepted order.
func (s *Service) AssignDriver(ctx context.Context, tenantID, orderID, driverID uuid.UUID) (*models.Order, error) {
	d, err := s.drivers.GetByID(ctx, tenantID, driverID)
	if err != nil {
		return nil, fmt.Errorf("load driver: %w", err)
	}
	if d == nil {
		return nil, ErrDriverNotFound
	}
	return s.mutate(ctx, tenantID, orderID, func(o *models.Order) error {
		return AssignDriver(o, d.ID)
	})
}

// UpdateStatus applies a company-requested target status.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, to models.OrderStatus, reason string) (*models.Order, error) {
	return s.mutate(ctx, tenantID, orderID, func(o *models.Order) error {
		return Transition(o, to, reason, s.now())
	})
}

func (s *Service) Cancel(ctx context.Context, tenantID, orderID uuid.UUID, reason string) (*models.Order, error) {
	return s.mutate(ctx, tenantID, orderID, func(o *models.Order) error {
		return Cancel(o, reason)
	})
}

// Advance moves an order one step forward on behalf of its assigned driver.
func (s *Service) Advance(ctx context.Context, tenantID, driverID, orderID uuid.UUID) (*models.Order, error) {
	return s.mutate(ctx, tenantID, orderID, func(o *models.Order) error {
		if o.AssignedDriver == nil || *o.AssignedDriver != driverID {
			return ErrNotAssignedDriver
		}
		return Advance(o, s.now())
	})
}

func (s *Service) ListForTenant(ctx context.Context, tenantID uuid.UUID, statuses []models.OrderStatus) ([]models.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{
		TenantID:  tenantID,
		Statuses:  statuses,
		WithItems: true,
	})
}

func (s *Service) ListForClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{
		ClientID:  &clientID,
		WithItems: true,
	})
}

// ListForDriver returns the driver's orders that are not finished yet.
func (s *Service) ListForDriver(ctx context.Context, tenantID, driverID uuid.UUID) ([]models.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{
		TenantID:  tenantID,
		DriverID:  &driverID,
		Statuses:  activeForDriver,
		WithItems: true,
	})
}

// mutate is the single write path for an existing order.
//
// It works in three steps:
//  1. Load the order and remember its status and driver as prev.
//  2. Run fn, one of the lifecycle functions, against the loaded copy.
//  3. Ask the store to write the result WHERE status and driver still
//     equal prev.
//
// If step 3 matches no row, another request changed the order after step
// 1. Nothing is written and the caller gets ErrConcurrentUpdate, so two
// drivers tapping "advance" at once produce one transition, not two.
// Metrics and the realtime event only fire after a successful write.
func (s *Service) mutate(ctx context.Context, tenantID, orderID uuid.UUID, fn func(*models.Order) error) (*models.Order, error) {
	o, err := s.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	prev := repository.OrderSnapshot{Status: o.Status, AssignedDriver: o.AssignedDriver}

	if err := fn(o); err != nil {
		return nil, err
	}

	ok, err := s.orders.UpdateLifecycle(ctx, o, prev)
	if err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	if !ok {
		s.logger.Warn("conditional order update lost a race",
			zap.String("order_id", o.ID.String()),
			zap.String("expected_status", string(prev.Status)),
		)
		return nil, ErrConcurrentUpdate
	}

	if prev.Status != o.Status {
		s.metrics.OrderTransition(string(prev.Status), string(o.Status))
	}
	s.publish(ctx, o, realtime.EventUpdate)
	return o, nil
}

func (s *Service) publish(ctx context.Context, o *models.Order, ev realtime.Event) {
	if s.publisher == nil {
		return
	}
	clientID := o.ClientID
	s.publisher.Publish(ctx, realtime.Change{
		Table:    realtime.TableOrders,
		Event:    ev,
		TenantID: o.TenantID,
		ClientID: &clientID,
		ID:       o.ID,
	})
}
