package security

import (
	"fmt"
	"net/http"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"

	"warehouse/internal/repository"
	"warehouse/pkg/models"
)

type LoginHandler struct {
	r *repository.Repository
}

func NewLoginHandler(r *repository.Repository) *LoginHandler {
	return &LoginHandler{r: r}
}

func (h *LoginHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/auth/login", h.Login)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *LoginHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	operator, err := h.findOperator(req.Username)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !CheckPassword(operator.PasswordHash, req.Password) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := GenerateToken(*operator)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"user_id":      operator.ID,
		"role":         operator.Role,
		"warehouse_id": operator.WarehouseID,
	})
}

func (h *LoginHandler) findOperator(username string) (*models.Operator, error) {
	var operator models.Operator
	query := h.r.GoquDBWrapper.
		Select("id", "username", "password_hash", "role", "warehouse_id").
		From("operators").
		Where(goqu.Ex{"username": username})

	found, err := query.Executor().ScanStruct(&operator)
	if err != nil {
		return nil, fmt.Errorf("unable to execute SQL: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("operator %s not found", username)
	}
	return &operator, nil
}
