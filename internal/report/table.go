package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
)

const (
	SessionsReport = "driver_sessions"
	RevenueReport  = "order_revenue"
)

// Table is an export-ready grid: one header row, then data rows. Both the
// CSV and XLSX writers render it.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04:05"
)

// SessionsTable lists each session with local start/end and online time.
func SessionsTable(sessions []models.DriverSession, names map[uuid.UUID]string, now time.Time, loc *time.Location) Table {
	if loc == nil {
		loc = time.UTC
	}
	t := Table{
		Title:   "Driver sessions",
		Headers: []string{"Driver", "Start Date", "Start Time", "End Date", "End Time", "Online Time", "Status"},
		Rows:    make([][]string, 0, len(sessions)),
	}
	for _, s := range sessions {
		name := names[s.DriverID]
		if name == "" {
			name = "N/A"
		}
		start := s.StartedAt.In(loc)
		endDate, endTime, status := "-", "-", "Active"
		if s.EndedAt != nil {
			end := s.EndedAt.In(loc)
			endDate, endTime, status = end.Format(dateLayout), end.Format(timeLayout), "Finished"
		}
		t.Rows = append(t.Rows, []string{
			name,
			start.Format(dateLayout),
			start.Format(timeLayout),
			endDate,
			endTime,
			FormatSessionDuration(s.StartedAt, s.EndedAt, now),
			status,
		})
	}
	return t
}

func DriverBreakdownTable(stats []DriverStat) Table {
	t := Table{
		Title:   "Revenue by driver",
		Headers: []string{"Driver", "Deliveries", "Cancellations", "Cancellation Rate (%)", "Revenue"},
		Rows:    make([][]string, 0, len(stats)),
	}
	for _, d := range stats {
		t.Rows = append(t.Rows, []string{
			d.Name,
			strconv.Itoa(d.Deliveries),
			strconv.Itoa(d.Cancellations),
			fmt.Sprintf("%.1f", d.CancellationRate()),
			"R$ " + d.Revenue.StringFixed(2),
		})
	}
	return t
}
