package ledger

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler exposes the read side of the movement log.
type Handler struct {
	Ledger Ledger
}

func NewHandler(l Ledger) *Handler {
	return &Handler{Ledger: l}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/movements", h.GetMovements)
	router.GET("/warehouses/:warehouse_id/reconciliation", h.GetReconciliation)
}

func (h *Handler) GetMovements(c *gin.Context) {
	filter := MovementFilter{
		WarehouseID: c.Query("warehouse_id"),
		ProductID:   c.Query("product_id"),
		LocationID:  c.Query("location_id"),
		Reference:   c.Query("reference"),
	}
	if limit := c.Query("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		filter.Limit = parsed
	}

	movements, err := h.Ledger.Movements(c.Request.Context(), filter)
	if err != nil {
		log.Println("Error executing SQL statement: ", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch movements", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, movements)
}

func (h *Handler) GetReconciliation(c *gin.Context) {
	warehouseID := c.Param("warehouse_id")
	if warehouseID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Warehouse ID is required"})
		return
	}

	discrepancies, err := h.Ledger.Reconcile(c.Request.Context(), warehouseID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to reconcile ledger", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balanced": len(discrepancies) == 0, "discrepancies": discrepancies})
}
