package locations

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"warehouse/internal/ledger"
)

type LocationHandler struct {
	Registry Registry
	Ledger   ledger.Reader
}

func NewLocationHandler(registry Registry, l ledger.Reader) *LocationHandler {
	return &LocationHandler{Registry: registry, Ledger: l}
}

func (h *LocationHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/warehouses/:warehouse_id/locations", h.GetLocations)
	router.GET("/warehouses/:warehouse_id/locations/:code", h.GetLocation)
	router.GET("/warehouses/:warehouse_id/locations/:code/movements", h.GetLocationMovements)
}

func (h *LocationHandler) GetLocations(c *gin.Context) {
	warehouseID := c.Param("warehouse_id")

	locations, err := h.Registry.List(c.Request.Context(), warehouseID)
	if err != nil {
		log.Println("Error executing SQL statement: ", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get locations", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, locations)
}

func (h *LocationHandler) GetLocation(c *gin.Context) {
	warehouseID := c.Param("warehouse_id")
	code := c.Param("code")

	location, err := h.Registry.Lookup(c.Request.Context(), warehouseID, code)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get location", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, location)
}

func (h *LocationHandler) GetLocationMovements(c *gin.Context) {
	warehouseID := c.Param("warehouse_id")
	code := c.Param("code")

	location, err := h.Registry.Lookup(c.Request.Context(), warehouseID, code)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get location", "details": err.Error()})
		return
	}

	movements, err := h.Ledger.Movements(c.Request.Context(), ledger.MovementFilter{
		WarehouseID: warehouseID,
		LocationID:  location.ID,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get movements", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"location": location, "movements": movements})
}
