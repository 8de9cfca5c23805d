package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/deliverypro/internal/report"
	"github.com/lalith-99/deliverypro/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatsHandler serves the platform admin's overview cards.
type StatsHandler struct {
	stats  repository.StatsRepository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

func NewStatsHandler(stats repository.StatsRepository, loc *time.Location, logger *zap.Logger) *StatsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsHandler{stats: stats, loc: loc, now: time.Now, logger: logger}
}

type platformStats struct {
	repository.PlatformCounts
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
}

// Platform handles GET /v1/admin/stats. "Today" and "this month" follow
// the report timezone.
func (h *StatsHandler) Platform(c *gin.Context) {
	now := h.now().In(h.loc)
	ctx := c.Request.Context()

	counts, err := h.stats.PlatformCounts(ctx, report.DayStart(now))
	if err != nil {
		internalError(c, h.logger, "failed to load platform stats", err)
		return
	}
	monthStart := report.MonthStart(now)
	paid, err := h.stats.PaidOrdersSince(ctx, monthStart)
	if err != nil {
		internalError(c, h.logger, "failed to load platform stats", err)
		return
	}

	c.JSON(http.StatusOK, platformStats{
		PlatformCounts: counts,
		MonthlyRevenue: report.MonthlyRevenue(paid, monthStart),
	})
}
