package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivan2214/ecommerce/internal/model"
	"github.com/ivan2214/ecommerce/internal/service"
)

type CartHTTP struct {
	Cart     service.CartService
	Checkout service.CheckoutService
}

func NewCartHTTP(cart service.CartService, checkout service.CheckoutService) *CartHTTP {
	return &CartHTTP{Cart: cart, Checkout: checkout}
}

func (h *CartHTTP) Get(c *gin.Context) {
	cart, err := h.Cart.Get(c.Request.Context(), userID(c))
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type addItemReq struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

func (h *CartHTTP) AddItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid cart item")
		return
	}
	if err := h.Cart.AddItem(c.Request.Context(), userID(c), req.ProductID, req.Quantity); err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type updateItemReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHTTP) UpdateItem(c *gin.Context) {
	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid quantity")
		return
	}
	if err := h.Cart.UpdateItemQuantity(c.Request.Context(), userID(c), c.Param("id"), req.Quantity); err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CartHTTP) RemoveItem(c *gin.Context) {
	if err := h.Cart.RemoveItem(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type checkoutReq struct {
	ShippingAddress string              `json:"shippingAddress" binding:"required"`
	PaymentMethod   model.PaymentMethod `json:"paymentMethod" binding:"required,oneof=CASH_ON_DELIVERY CARD TRANSFER"`
}

func (h *CartHTTP) PlaceOrder(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid checkout data")
		return
	}
	order, err := h.Checkout.PlaceOrder(c.Request.Context(), userID(c), req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}
