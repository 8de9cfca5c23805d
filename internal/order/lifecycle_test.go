package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func pendingOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
	}
}

func TestFullDeliveryPath(t *testing.T) {
	o := pendingOrder()
	driver := uuid.New()

	require.NoError(t, Accept(o, t0))
	require.NoError(t, AssignDriver(o, driver))
	assert.Equal(t, models.OrderAccepted, o.Status, "assignment leaves status alone")

	want := []models.OrderStatus{
		models.OrderPreparing,
		models.OrderOnTheWay,
		models.OrderAtDoor,
		models.OrderDelivered,
	}
	for i, st := range want {
		require.NoError(t, Advance(o, t0.Add(time.Duration(i+1)*time.Minute)))
		assert.Equal(t, st, o.Status)
	}

	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)
	require.NotNil(t, o.AcceptedAt)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, t0, *o.AcceptedAt)
	assert.Equal(t, t0.Add(4*time.Minute), *o.DeliveredAt)
	assert.Equal(t, driver, *o.AssignedDriver)
}

func TestAdvanceFromTerminalFails(t *testing.T) {
	for _, st := range []models.OrderStatus{models.OrderDelivered, models.OrderCancelled, models.OrderPending} {
		t.Run(string(st), func(t *testing.T) {
			o := pendingOrder()
			o.Status = st
			err := Advance(o, t0)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, st, o.Status)
		})
	}
}

func TestAcceptOnlyFromPending(t *testing.T) {
	o := pendingOrder()
	o.Status = models.OrderPreparing
	assert.ErrorIs(t, Accept(o, t0), ErrInvalidTransition)
	assert.Nil(t, o.AcceptedAt)
}

func TestAssignDriver(t *testing.T) {
	t.Run("requires accepted", func(t *testing.T) {
		o := pendingOrder()
		err := AssignDriver(o, uuid.New())
		assert.ErrorIs(t, err, ErrDriverAssignRequiresAccepted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Nil(t, o.AssignedDriver)
	})

	t.Run("no reassignment", func(t *testing.T) {
		o := pendingOrder()
		require.NoError(t, Accept(o, t0))
		first := uuid.New()
		require.NoError(t, AssignDriver(o, first))
		assert.ErrorIs(t, AssignDriver(o, uuid.New()), ErrDriverAlreadyAssigned)
		assert.Equal(t, first, *o.AssignedDriver)
	})
}

func TestCancel(t *testing.T) {
	t.Run("needs a reason", func(t *testing.T) {
		o := pendingOrder()
		assert.ErrorIs(t, Cancel(o, "   "), ErrCancelReasonRequired)
		assert.Equal(t, models.OrderPending, o.Status)
	})

	t.Run("from any open status", func(t *testing.T) {
		o := pendingOrder()
		o.Status = models.OrderAtDoor
		require.NoError(t, Cancel(o, " client gave up "))
		assert.Equal(t, models.OrderCancelled, o.Status)
		assert.Equal(t, "client gave up", *o.CancelReason)
	})

	t.Run("not after delivery", func(t *testing.T) {
		o := pendingOrder()
		o.Status = models.OrderDelivered
		assert.ErrorIs(t, Cancel(o, "late"), ErrInvalidTransition)
	})
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.OrderStatus
		to      models.OrderStatus
		reason  string
		wantErr error
	}{
		{"accept", models.OrderPending, models.OrderAccepted, "", nil},
		{"next step", models.OrderAccepted, models.OrderPreparing, "", nil},
		{"skip ahead", models.OrderPending, models.OrderDelivered, "", ErrInvalidTransition},
		{"backwards", models.OrderOnTheWay, models.OrderPreparing, "", ErrInvalidTransition},
		{"cancel", models.OrderPreparing, models.OrderCancelled, "out of stock", nil},
		{"cancel without reason", models.OrderPreparing, models.OrderCancelled, "", ErrCancelReasonRequired},
		{"from delivered", models.OrderDelivered, models.OrderCancelled, "x", ErrInvalidTransition},
		{"re-accept", models.OrderAccepted, models.OrderAccepted, "", ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := pendingOrder()
			o.Status = tt.from
			err := Transition(o, tt.to, tt.reason, t0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, o.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, o.Status)
		})
	}
}

func TestTimestampsAreNotRewritten(t *testing.T) {
	o := pendingOrder()
	earlier := t0.Add(-time.Hour)
	o.Status = models.OrderAccepted
	o.PreparingAt = &earlier

	require.NoError(t, Advance(o, t0))
	assert.Equal(t, earlier, *o.PreparingAt)
}
