package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/cart"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/realtime"
	"github.com/lalith-99/deliverypro/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]models.Order
	// stale makes the next UpdateLifecycle lose its race.
	stale bool
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[uuid.UUID]models.Order)}
}

func (f *fakeOrders) CreateWithItems(_ context.Context, o *models.Order, items []models.OrderItem) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	created := *o
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	for _, it := range items {
		it.ID = uuid.New()
		it.OrderID = created.ID
		created.Items = append(created.Items, it)
	}
	f.orders[created.ID] = created
	return &created, nil
}

func (f *fakeOrders) GetByID(_ context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeOrders) List(_ context.Context, flt repository.OrderFilter) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Order, 0)
	for _, o := range f.orders {
		if flt.TenantID != uuid.Nil && o.TenantID != flt.TenantID {
			continue
		}
		if flt.ClientID != nil && o.ClientID != *flt.ClientID {
			continue
		}
		if flt.DriverID != nil && (o.AssignedDriver == nil || *o.AssignedDriver != *flt.DriverID) {
			continue
		}
		if len(flt.Statuses) > 0 && !containsStatus(flt.Statuses, o.Status) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func containsStatus(list []models.OrderStatus, s models.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (f *fakeOrders) UpdateLifecycle(_ context.Context, o *models.Order, prev repository.OrderSnapshot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stale {
		f.stale = false
		return false, nil
	}
	cur, ok := f.orders[o.ID]
	if !ok || cur.Status != prev.Status {
		return false, nil
	}
	if (cur.AssignedDriver == nil) != (prev.AssignedDriver == nil) {
		return false, nil
	}
	f.orders[o.ID] = *o
	return true, nil
}

type fakeProducts struct{ byID map[uuid.UUID]models.Product }

func (f *fakeProducts) Create(context.Context, *models.Product) (*models.Product, error) { return nil, nil }
func (f *fakeProducts) Update(context.Context, *models.Product) (*models.Product, error) { return nil, nil }
func (f *fakeProducts) ListByTenant(context.Context, uuid.UUID, bool) ([]models.Product, error) {
	return nil, nil
}
func (f *fakeProducts) Delete(context.Context, uuid.UUID, uuid.UUID) (bool, bool, error) {
	return false, false, nil
}

func (f *fakeProducts) GetByID(_ context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	p, ok := f.byID[productID]
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	return &p, nil
}

type fakeTenants struct{ byID map[uuid.UUID]models.Tenant }

func (f *fakeTenants) Create(context.Context, *models.Tenant) (*models.Tenant, error) { return nil, nil }
func (f *fakeTenants) GetByDomain(context.Context, string) (*models.Tenant, error)    { return nil, nil }
func (f *fakeTenants) List(context.Context, bool) ([]models.Tenant, error)            { return nil, nil }
func (f *fakeTenants) UpdateStatus(context.Context, uuid.UUID, models.TenantStatus) (*models.Tenant, error) {
	return nil, nil
}

func (f *fakeTenants) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

type fakeDrivers struct{ byID map[uuid.UUID]models.Driver }

func (f *fakeDrivers) Create(context.Context, *models.Driver) (*models.Driver, error) { return nil, nil }
func (f *fakeDrivers) GetByUserID(context.Context, uuid.UUID) (*models.Driver, error) { return nil, nil }
func (f *fakeDrivers) List(context.Context, repository.DriverFilter) ([]models.Driver, error) {
	return nil, nil
}
func (f *fakeDrivers) UpdateStatus(context.Context, uuid.UUID, uuid.UUID, models.DriverStatus) error {
	return nil
}

func (f *fakeDrivers) GetByID(_ context.Context, tenantID, driverID uuid.UUID) (*models.Driver, error) {
	d, ok := f.byID[driverID]
	if !ok || d.TenantID != tenantID {
		return nil, nil
	}
	return &d, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c realtime.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
}

type fixture struct {
	svc      *Service
	orders   *fakeOrders
	pub      *recordingPublisher
	tenantID uuid.UUID
	clientID uuid.UUID
	burger   models.Product
	soda     models.Product
	driver   models.Driver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tenantID := uuid.New()
	burger := models.Product{ID: uuid.New(), TenantID: tenantID, Name: "Burger", Price: decimal.RequireFromString("10.00"), Stock: 5, Active: true}
	soda := models.Product{ID: uuid.New(), TenantID: tenantID, Name: "Soda", Price: decimal.RequireFromString("5.50"), Stock: 5, Active: true}
	driver := models.Driver{ID: uuid.New(), TenantID: tenantID, Name: "Ana", Status: models.DriverActive}

	f := &fixture{
		orders:   newFakeOrders(),
		pub:      &recordingPublisher{},
		tenantID: tenantID,
		clientID: uuid.New(),
		burger:   burger,
		soda:     soda,
		driver:   driver,
	}
	f.svc = NewService(
		f.orders,
		&fakeProducts{byID: map[uuid.UUID]models.Product{burger.ID: burger, soda.ID: soda}},
		&fakeTenants{byID: map[uuid.UUID]models.Tenant{tenantID: {ID: tenantID, Status: models.TenantActive}}},
		&fakeDrivers{byID: map[uuid.UUID]models.Driver{driver.ID: driver}},
		f.pub,
		nil,
		zap.NewNop(),
	)
	return f
}

func (f *fixture) input() CreateInput {
	return CreateInput{
		TenantID: f.tenantID,
		Items: []ItemInput{
			{ProductID: f.burger.ID, Quantity: 2},
			{ProductID: f.soda.ID, Quantity: 1},
		},
		Address: models.Address{
			Street: "Rua A", Number: "1", Neighborhood: "Centro",
			City: "Recife", State: "PE", ZipCode: "50000000",
		},
		PaymentMethod: models.PaymentPix,
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.clientID, f.input())
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, o.Status)
	assert.Equal(t, models.PaymentPending, o.PaymentStatus)
	assert.True(t, decimal.RequireFromString("25.50").Equal(o.Total), "total %s", o.Total)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Burger", o.Items[0].Name)
	assert.Equal(t, 2, o.Items[0].Quantity)

	require.Len(t, f.pub.changes, 1)
	ch := f.pub.changes[0]
	assert.Equal(t, realtime.EventInsert, ch.Event)
	assert.Equal(t, realtime.TableOrders, ch.Table)
	assert.Equal(t, f.tenantID, ch.TenantID)
	require.NotNil(t, ch.ClientID)
	assert.Equal(t, f.clientID, *ch.ClientID)
}

func TestCreateOrderRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown product", func(t *testing.T) {
		in := f.input()
		in.Items = []ItemInput{{ProductID: uuid.New(), Quantity: 1}}
		_, err := f.svc.Create(ctx, f.clientID, in)
		assert.ErrorIs(t, err, ErrProductUnavailable)
	})

	t.Run("zero quantity", func(t *testing.T) {
		in := f.input()
		in.Items[0].Quantity = 0
		_, err := f.svc.Create(ctx, f.clientID, in)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		in := f.input()
		in.TenantID = uuid.New()
		_, err := f.svc.Create(ctx, f.clientID, in)
		assert.ErrorIs(t, err, ErrTenantUnavailable)
	})

	t.Run("no tenant", func(t *testing.T) {
		in := f.input()
		in.TenantID = uuid.Nil
		_, err := f.svc.Create(ctx, f.clientID, in)
		assert.ErrorIs(t, err, cart.ErrNoTenant)
	})

	t.Run("incomplete address", func(t *testing.T) {
		in := f.input()
		in.Address.ZipCode = ""
		_, err := f.svc.Create(ctx, f.clientID, in)
		assert.ErrorIs(t, err, cart.ErrAddressIncomplete)
	})

	assert.Empty(t, f.orders.orders)
}

func TestDriverFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.clientID, f.input())
	require.NoError(t, err)

	_, err = f.svc.AssignDriver(ctx, f.tenantID, o.ID, f.driver.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "cannot assign before accepting")

	_, err = f.svc.Accept(ctx, f.tenantID, o.ID)
	require.NoError(t, err)
	_, err = f.svc.AssignDriver(ctx, f.tenantID, o.ID, uuid.New())
	assert.ErrorIs(t, err, ErrDriverNotFound)
	_, err = f.svc.AssignDriver(ctx, f.tenantID, o.ID, f.driver.ID)
	require.NoError(t, err)

	_, err = f.svc.Advance(ctx, f.tenantID, uuid.New(), o.ID)
	assert.ErrorIs(t, err, ErrNotAssignedDriver)

	active, err := f.svc.ListForDriver(ctx, f.tenantID, f.driver.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	var last *models.Order
	for i := 0; i < 4; i++ {
		last, err = f.svc.Advance(ctx, f.tenantID, f.driver.ID, o.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, models.OrderDelivered, last.Status)
	assert.Equal(t, models.PaymentPaid, last.PaymentStatus)

	_, err = f.svc.Advance(ctx, f.tenantID, f.driver.ID, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	active, err = f.svc.ListForDriver(ctx, f.tenantID, f.driver.ID)
	require.NoError(t, err)
	assert.Empty(t, active, "delivered orders leave the driver's list")
}

func TestCancelFromCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, f.clientID, f.input())
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.tenantID, o.ID, "")
	assert.ErrorIs(t, err, ErrCancelReasonRequired)

	cancelled, err := f.svc.Cancel(ctx, f.tenantID, o.ID, "closed early")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)

	_, err = f.svc.UpdateStatus(ctx, f.tenantID, o.ID, models.OrderAccepted, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOtherTenantCannotSeeOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, f.clientID, f.input())
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, uuid.New(), o.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestLostRaceIsReported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, f.clientID, f.input())
	require.NoError(t, err)

	f.orders.stale = true
	_, err = f.svc.Accept(ctx, f.tenantID, o.ID)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)

	stored, err := f.svc.Get(ctx, f.tenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.Status)
}
