package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ivan2214/ecommerce/internal/service"
)

type OrderHTTP struct {
	Orders service.OrderService
}

func NewOrderHTTP(orders service.OrderService) *OrderHTTP {
	return &OrderHTTP{Orders: orders}
}

func (h *OrderHTTP) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	orders, total, err := h.Orders.ListForUser(c.Request.Context(), userID(c), page, limit)
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total})
}

func (h *OrderHTTP) Get(c *gin.Context) {
	order, err := h.Orders.GetForUser(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
