package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// parseID reads a UUID path parameter, answering 400 itself on failure.
func parseID(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " id"})
		return uuid.Nil, false
	}
	return id, true
}

// internalError logs err with the request path and answers 500 with msg.
func internalError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Error(msg,
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// dateRange parses ?start=YYYY-MM-DD&end=YYYY-MM-DD in loc. The end day is
// inclusive: the returned end is 23:59:59 on that day.
func dateRange(c *gin.Context, loc *time.Location) (start, end time.Time, ok bool) {
	if loc == nil {
		loc = time.UTC
	}
	rawStart, rawEnd := c.Query("start"), c.Query("end")
	if rawStart == "" || rawEnd == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end dates are required"})
		return time.Time{}, time.Time{}, false
	}

	start, err := time.ParseInLocation(time.DateOnly, rawStart, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	endDay, err := time.ParseInLocation(time.DateOnly, rawEnd, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	if endDay.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end is before start"})
		return time.Time{}, time.Time{}, false
	}
	end = endDay.Add(24*time.Hour - time.Second)
	return start, end, true
}
