package report

import (
	"time"

	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/shopspring/decimal"
)

// MonthStart is midnight on the first day of now's month, in now's zone.
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// DayStart is midnight of now's day, in now's zone.
func DayStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// MonthlyRevenue sums the totals of PAID orders created since monthStart.
// Unlike RevenueStats it counts payment, not delivery, so a paid order
// that is still on its way is already revenue.
func MonthlyRevenue(orders []models.Order, monthStart time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		if o.PaymentStatus != models.PaymentPaid || o.CreatedAt.Before(monthStart) {
			continue
		}
		sum = sum.Add(o.Total)
	}
	return sum.Round(2)
}
