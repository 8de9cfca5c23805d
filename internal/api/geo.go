package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type GeoHandler struct {
	geo GeoService
}

func NewGeoHandler(geo GeoService) *GeoHandler {
	return &GeoHandler{geo: geo}
}

// Postal handles GET /v1/geo/postal/:code. Lookup failures of any kind
// are reported as not found.
func (h *GeoHandler) Postal(c *gin.Context) {
	addr := h.geo.LookupPostalCode(c.Request.Context(), c.Param("code"))
	if addr == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "postal code not found"})
		return
	}
	c.JSON(http.StatusOK, addr)
}
