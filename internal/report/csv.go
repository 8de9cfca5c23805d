package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
)

// CSV joins cells with commas and rows with newlines. Cells are not quoted;
// the exported fields are names and numbers.
func CSV(t Table) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(t.Headers, ","))
	for _, row := range t.Rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, ","))
	}
	return []byte(b.String())
}

func SessionsCSV(sessions []models.DriverSession, names map[uuid.UUID]string, now time.Time, loc *time.Location) []byte {
	return CSV(SessionsTable(sessions, names, now, loc))
}

func DriverBreakdownCSV(stats []DriverStat) []byte {
	return CSV(DriverBreakdownTable(stats))
}
