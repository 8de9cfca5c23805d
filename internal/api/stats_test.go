package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedStats struct {
	counts    repository.PlatformCounts
	paid      []models.Order
	err       error
	daySince  time.Time
	paidSince time.Time
}

func (f *fixedStats) PlatformCounts(_ context.Context, dayStart time.Time) (repository.PlatformCounts, error) {
	f.daySince = dayStart
	return f.counts, f.err
}

func (f *fixedStats) PaidOrdersSince(_ context.Context, since time.Time) ([]models.Order, error) {
	f.paidSince = since
	return f.paid, nil
}

func TestPlatformStats(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	stats := &fixedStats{
		counts: repository.PlatformCounts{Tenants: 4, ActiveTenants: 3, Clients: 120, OrdersToday: 17},
		paid: []models.Order{
			{PaymentStatus: models.PaymentPaid, Total: decimal.RequireFromString("80.00"), CreatedAt: time.Date(2024, 3, 2, 12, 0, 0, 0, brt)},
			{PaymentStatus: models.PaymentPaid, Total: decimal.RequireFromString("19.90"), CreatedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, brt)},
		},
	}
	h := NewStatsHandler(stats, brt, zap.NewNop())
	// 01:30 UTC on the 11th is still the 10th in BRT.
	h.now = func() time.Time { return time.Date(2024, 3, 11, 1, 30, 0, 0, time.UTC) }

	r := gin.New()
	r.GET("/v1/admin/stats", h.Platform)
	w := send(r, http.MethodGet, "/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 4, body["total_companies"])
	assert.EqualValues(t, 3, body["active_companies"])
	assert.EqualValues(t, 120, body["total_clients"])
	assert.EqualValues(t, 17, body["orders_today"])
	assert.Equal(t, "99.9", body["monthly_revenue"])

	assert.True(t, stats.daySince.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, brt)))
	assert.True(t, stats.paidSince.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, brt)))
}

func TestPlatformStatsStoreFailure(t *testing.T) {
	h := NewStatsHandler(&fixedStats{err: errors.New("pool closed")}, nil, zap.NewNop())
	r := gin.New()
	r.GET("/v1/admin/stats", h.Platform)

	w := send(r, http.MethodGet, "/v1/admin/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
