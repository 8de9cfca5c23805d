// Package report turns already-filtered session and order rows into the
// numbers and tables the company dashboard shows and exports. Nothing here
// touches the database; zero denominators always yield 0.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/shopspring/decimal"
)

type SessionSummary struct {
	Count          int     `json:"count"`
	TotalSeconds   int64   `json:"total_seconds"`
	AverageSeconds int64   `json:"average_seconds"`
	TotalHours     float64 `json:"total_hours"`
	AverageHours   float64 `json:"average_hours"`
}

// sessionSeconds measures an open session up to now.
func sessionSeconds(start time.Time, end *time.Time, now time.Time) int64 {
	stop := now
	if end != nil {
		stop = *end
	}
	secs := int64(stop.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

func SessionStats(sessions []models.DriverSession, now time.Time) SessionSummary {
	var total int64
	for _, s := range sessions {
		total += sessionSeconds(s.StartedAt, s.EndedAt, now)
	}

	sum := SessionSummary{
		Count:        len(sessions),
		TotalSeconds: total,
		TotalHours:   float64(total) / 3600,
	}
	if sum.Count > 0 {
		sum.AverageSeconds = total / int64(sum.Count)
		sum.AverageHours = sum.TotalHours / float64(sum.Count)
	}
	return sum
}

// FormatSessionDuration renders online time as "<h>h <m>min", truncating
// both parts. An open session is measured up to now.
func FormatSessionDuration(start time.Time, end *time.Time, now time.Time) string {
	secs := sessionSeconds(start, end, now)
	return fmt.Sprintf("%dh %dmin", secs/3600, (secs%3600)/60)
}

type RevenueSummary struct {
	Total            int             `json:"total_orders"`
	Delivered        int             `json:"delivered_orders"`
	Cancelled        int             `json:"cancelled_orders"`
	CancellationRate float64         `json:"cancellation_rate"`
	Revenue          decimal.Decimal `json:"revenue"`
	AverageTicket    decimal.Decimal `json:"average_ticket"`
}

// RevenueStats counts only delivered orders as revenue. The cancellation
// rate is a percentage of all orders in the set.
func RevenueStats(orders []models.Order) RevenueSummary {
	sum := RevenueSummary{Total: len(orders), Revenue: decimal.Zero, AverageTicket: decimal.Zero}
	for _, o := range orders {
		switch o.Status {
		case models.OrderDelivered:
			sum.Delivered++
			sum.Revenue = sum.Revenue.Add(o.Total)
		case models.OrderCancelled:
			sum.Cancelled++
		}
	}
	sum.CancellationRate = percent(sum.Cancelled, sum.Total)
	if sum.Delivered > 0 {
		sum.AverageTicket = sum.Revenue.Div(decimal.NewFromInt(int64(sum.Delivered))).Round(2)
	}
	return sum
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

type DriverStat struct {
	DriverID      uuid.UUID       `json:"driver_id"`
	Name          string          `json:"name"`
	Deliveries    int             `json:"deliveries"`
	Cancellations int             `json:"cancellations"`
	Revenue       decimal.Decimal `json:"revenue"`
}

// CancellationRate is cancellations over the driver's finished orders.
func (d DriverStat) CancellationRate() float64 {
	return percent(d.Cancellations, d.Deliveries+d.Cancellations)
}

// DriverBreakdown groups orders by assigned driver, most deliveries first.
// Orders without a driver are skipped. Drivers missing from names show as
// "N/A". Ties keep first-seen order.
func DriverBreakdown(orders []models.Order, names map[uuid.UUID]string) []DriverStat {
	index := make(map[uuid.UUID]int)
	stats := make([]DriverStat, 0)

	for _, o := range orders {
		if o.AssignedDriver == nil {
			continue
		}
		id := *o.AssignedDriver
		i, ok := index[id]
		if !ok {
			name, found := names[id]
			if !found || name == "" {
				name = "N/A"
			}
			stats = append(stats, DriverStat{DriverID: id, Name: name, Revenue: decimal.Zero})
			i = len(stats) - 1
			index[id] = i
		}
		switch o.Status {
		case models.OrderDelivered:
			stats[i].Deliveries++
			stats[i].Revenue = stats[i].Revenue.Add(o.Total)
		case models.OrderCancelled:
			stats[i].Cancellations++
		}
	}

	sort.SliceStable(stats, func(a, b int) bool {
		return stats[a].Deliveries > stats[b].Deliveries
	})
	return stats
}

// Filename is "<name>_<start>_<end>.<ext>" with ISO dates.
func Filename(name string, start, end time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", name, start.Format(time.DateOnly), end.Format(time.DateOnly), ext)
}
