package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var base = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func endAt(d time.Duration) *time.Time {
	t := base.Add(d)
	return &t
}

func order(driver *uuid.UUID, status models.OrderStatus, total string) models.Order {
	return models.Order{
		ID:             uuid.New(),
		AssignedDriver: driver,
		Status:         status,
		Total:          decimal.RequireFromString(total),
	}
}

func TestFormatSessionDuration(t *testing.T) {
	tests := []struct {
		name string
		end  *time.Time
		want string
	}{
		{"ninety minutes", endAt(90 * time.Minute), "1h 30min"},
		{"truncates seconds", endAt(59*time.Minute + 59*time.Second), "0h 59min"},
		{"long shift", endAt(10*time.Hour + 5*time.Minute), "10h 5min"},
		{"open session uses now", nil, "2h 0min"},
		{"end before start", endAt(-time.Minute), "0h 0min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSessionDuration(base, tt.end, base.Add(2*time.Hour)))
		})
	}
}

func TestOpenSessionMeasuredToNow(t *testing.T) {
	assert.Equal(t, "1h 30min", FormatSessionDuration(base, nil, base.Add(5400*time.Second)))
}

func TestSessionStats(t *testing.T) {
	sessions := []models.DriverSession{
		{StartedAt: base, EndedAt: endAt(time.Hour)},
		{StartedAt: base, EndedAt: endAt(2 * time.Hour)},
		{StartedAt: base},
	}
	sum := SessionStats(sessions, base.Add(3*time.Hour))

	assert.Equal(t, 3, sum.Count)
	assert.Equal(t, int64(6*3600), sum.TotalSeconds)
	assert.Equal(t, int64(2*3600), sum.AverageSeconds)
	assert.InDelta(t, 6.0, sum.TotalHours, 1e-9)
	assert.InDelta(t, 2.0, sum.AverageHours, 1e-9)

	empty := SessionStats(nil, base)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.AverageSeconds)
	assert.Zero(t, empty.AverageHours)
}

func TestRevenueStats(t *testing.T) {
	orders := []models.Order{
		order(nil, models.OrderDelivered, "30.00"),
		order(nil, models.OrderDelivered, "20.00"),
		order(nil, models.OrderDelivered, "10.00"),
		order(nil, models.OrderCancelled, "99.00"),
		order(nil, models.OrderPending, "5.00"),
	}
	sum := RevenueStats(orders)

	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 3, sum.Delivered)
	assert.Equal(t, 1, sum.Cancelled)
	assert.InDelta(t, 20.0, sum.CancellationRate, 1e-9)
	assert.Equal(t, "60.00", sum.Revenue.StringFixed(2))
	assert.Equal(t, "20.00", sum.AverageTicket.StringFixed(2))
}

func TestRevenueStatsEmpty(t *testing.T) {
	sum := RevenueStats(nil)
	assert.Zero(t, sum.Total)
	assert.Zero(t, sum.CancellationRate)
	assert.True(t, sum.Revenue.IsZero())
	assert.True(t, sum.AverageTicket.IsZero())
}

func TestAverageTicketRounds(t *testing.T) {
	orders := []models.Order{
		order(nil, models.OrderDelivered, "10.00"),
		order(nil, models.OrderDelivered, "10.00"),
		order(nil, models.OrderDelivered, "10.01"),
	}
	assert.Equal(t, "10.00", RevenueStats(orders).AverageTicket.String())
}

func TestDriverBreakdown(t *testing.T) {
	ana, bia, gone := uuid.New(), uuid.New(), uuid.New()
	names := map[uuid.UUID]string{ana: "Ana", bia: "Bia"}

	orders := []models.Order{
		order(&ana, models.OrderDelivered, "10.00"),
		order(&bia, models.OrderDelivered, "15.00"),
		order(&bia, models.OrderDelivered, "5.00"),
		order(&bia, models.OrderCancelled, "8.00"),
		order(&gone, models.OrderDelivered, "12.00"),
		order(nil, models.OrderDelivered, "100.00"),
		order(&ana, models.OrderOnTheWay, "7.00"),
	}
	stats := DriverBreakdown(orders, names)
	require.Len(t, stats, 3)

	assert.Equal(t, "Bia", stats[0].Name)
	assert.Equal(t, 2, stats[0].Deliveries)
	assert.Equal(t, 1, stats[0].Cancellations)
	assert.Equal(t, "20.00", stats[0].Revenue.StringFixed(2))
	assert.InDelta(t, 100.0/3, stats[0].CancellationRate(), 1e-9)

	// Ties keep first-seen order.
	assert.Equal(t, "Ana", stats[1].Name)
	assert.Equal(t, "N/A", stats[2].Name)
	assert.Zero(t, stats[1].CancellationRate())
}

func TestSessionsTableAndCSV(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	driver := uuid.New()
	sessions := []models.DriverSession{
		{DriverID: driver, StartedAt: base, EndedAt: endAt(90 * time.Minute)},
		{DriverID: uuid.New(), StartedAt: base},
	}
	names := map[uuid.UUID]string{driver: "Carla"}

	tbl := SessionsTable(sessions, names, base.Add(45*time.Minute), loc)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"Carla", "03/06/2024", "09:00:00", "03/06/2024", "10:30:00", "1h 30min", "Finished"}, tbl.Rows[0])
	assert.Equal(t, []string{"N/A", "03/06/2024", "09:00:00", "-", "-", "0h 45min", "Active"}, tbl.Rows[1])

	csv := string(SessionsCSV(sessions, names, base.Add(45*time.Minute), loc))
	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Driver,Start Date,Start Time,End Date,End Time,Online Time,Status", lines[0])
	assert.Equal(t, "Carla,03/06/2024,09:00:00,03/06/2024,10:30:00,1h 30min,Finished", lines[1])
}

func TestDriverBreakdownCSV(t *testing.T) {
	stats := []DriverStat{{
		Name:          "Ana",
		Deliveries:    3,
		Cancellations: 1,
		Revenue:       decimal.RequireFromString("42.5"),
	}}
	want := "Driver,Deliveries,Cancellations,Cancellation Rate (%),Revenue\nAna,3,1,25.0,R$ 42.50"
	assert.Equal(t, want, string(DriverBreakdownCSV(stats)))
}

func TestFilename(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "driver_sessions_2024-01-01_2024-01-31.csv", Filename(SessionsReport, start, end, "csv"))
}

func TestXLSX(t *testing.T) {
	tbl := DriverBreakdownTable([]DriverStat{
		{Name: "Ana", Deliveries: 2, Revenue: decimal.NewFromInt(20)},
		{Name: "Bia", Deliveries: 1, Cancellations: 1, Revenue: decimal.NewFromInt(9)},
	})

	data, err := XLSX(tbl)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, tbl.Headers, rows[0])
	assert.Equal(t, []string{"Bia", "1", "1", "50.0", "R$ 9.00"}, rows[2])
}

func TestMonthlyRevenue(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, brt)
	monthStart := MonthStart(now)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, brt), monthStart)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, brt), DayStart(now))

	paid := func(total string, at time.Time) models.Order {
		return models.Order{PaymentStatus: models.PaymentPaid, Total: decimal.RequireFromString(total), CreatedAt: at}
	}
	orders := []models.Order{
		paid("100.00", now),
		paid("25.50", monthStart),
		paid("999.00", monthStart.Add(-time.Second)),
		{PaymentStatus: models.PaymentPending, Total: decimal.NewFromInt(40), CreatedAt: now},
		{PaymentStatus: models.PaymentFailed, Total: decimal.NewFromInt(60), CreatedAt: now},
	}

	assert.Equal(t, "125.50", MonthlyRevenue(orders, monthStart).StringFixed(2))
	assert.True(t, MonthlyRevenue(nil, monthStart).IsZero())
}
