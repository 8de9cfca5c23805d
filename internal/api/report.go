package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/middleware"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/report"
	"github.com/lalith-99/deliverypro/internal/repository"
	"go.uber.org/zap"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportHandler serves the company's session and revenue reports as JSON,
// CSV or XLSX.
type ReportHandler struct {
	sessions repository.SessionRepository
	orders   repository.OrderRepository
	drivers  repository.DriverRepository
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewReportHandler(
	sessions repository.SessionRepository,
	orders repository.OrderRepository,
	drivers repository.DriverRepository,
	loc *time.Location,
	logger *zap.Logger,
) *ReportHandler {
	return &ReportHandler{
		sessions: sessions,
		orders:   orders,
		drivers:  drivers,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// driverFilter reads the optional ?driver_id.
func driverFilter(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("driver_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid driver id"})
		return nil, false
	}
	return &id, true
}

func (h *ReportHandler) driverNames(c *gin.Context, tenantID uuid.UUID) (map[uuid.UUID]string, error) {
	drivers, err := h.drivers.List(c.Request.Context(), repository.DriverFilter{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(drivers))
	for _, d := range drivers {
		names[d.ID] = d.Name
	}
	return names, nil
}

// export writes t in the requested file format. It reports false when the
// format is json and the caller should answer itself.
func (h *ReportHandler) export(c *gin.Context, name string, start, end time.Time, t report.Table) bool {
	switch format := strings.ToLower(c.DefaultQuery("format", "json")); format {
	case "json":
		return false
	case "csv":
		c.Header("Content-Disposition", `attachment; filename="`+report.Filename(name, start, end, "csv")+`"`)
		c.Data(http.StatusOK, mimeCSV, report.CSV(t))
	case "xlsx":
		data, err := report.XLSX(t)
		if err != nil {
			internalError(c, h.logger, "failed to build spreadsheet", err)
			return true
		}
		c.Header("Content-Disposition", `attachment; filename="`+report.Filename(name, start, end, "xlsx")+`"`)
		c.Data(http.StatusOK, mimeXLSX, data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json, csv or xlsx"})
	}
	return true
}

// Sessions handles GET /v1/company/reports/sessions
func (h *ReportHandler) Sessions(c *gin.Context) {
	start, end, ok := dateRange(c, h.loc)
	if !ok {
		return
	}
	driverID, ok := driverFilter(c)
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)

	sessions, err := h.sessions.List(c.Request.Context(), repository.SessionFilter{
		TenantID: tenantID,
		DriverID: driverID,
		From:     start,
		To:       end,
	})
	if err != nil {
		internalError(c, h.logger, "failed to load sessions", err)
		return
	}
	names, err := h.driverNames(c, tenantID)
	if err != nil {
		internalError(c, h.logger, "failed to load drivers", err)
		return
	}

	now := h.now()
	if h.export(c, report.SessionsReport, start, end, report.SessionsTable(sessions, names, now, h.loc)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":  report.SessionStats(sessions, now),
		"sessions": sessions,
	})
}

// Revenue handles GET /v1/company/reports/revenue
func (h *ReportHandler) Revenue(c *gin.Context) {
	start, end, ok := dateRange(c, h.loc)
	if !ok {
		return
	}
	driverID, ok := driverFilter(c)
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)

	f := repository.OrderFilter{
		TenantID: tenantID,
		DriverID: driverID,
		From:     &start,
		To:       &end,
	}
	if raw := c.Query("status"); raw != "" {
		st, err := models.ParseOrderStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.Statuses = []models.OrderStatus{st}
	}

	orders, err := h.orders.List(c.Request.Context(), f)
	if err != nil {
		internalError(c, h.logger, "failed to load orders", err)
		return
	}
	names, err := h.driverNames(c, tenantID)
	if err != nil {
		internalError(c, h.logger, "failed to load drivers", err)
		return
	}

	breakdown := report.DriverBreakdown(orders, names)
	if h.export(c, report.RevenueReport, start, end, report.DriverBreakdownTable(breakdown)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": report.RevenueStats(orders),
		"drivers": breakdown,
	})
}
