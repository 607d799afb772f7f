package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ivan2214/ecommerce/internal/model"
	"github.com/ivan2214/ecommerce/internal/service"
)

type AdminHTTP struct {
	Catalog service.CatalogService
	Orders  service.OrderService
}

func NewAdminHTTP(catalog service.CatalogService, orders service.OrderService) *AdminHTTP {
	return &AdminHTTP{Catalog: catalog, Orders: orders}
}

type productReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	Stock       int    `json:"stock" binding:"min=0"`
	CategoryID  string `json:"categoryId"`
	ImageURL    string `json:"imageUrl"`
	Featured    bool   `json:"featured"`
}

func (r *productReq) toInput() (service.ProductInput, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return service.ProductInput{}, err
	}
	if price.IsNegative() {
		return service.ProductInput{}, errors.New("negative price")
	}
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       price,
		Stock:       r.Stock,
		CategoryID:  r.CategoryID,
		ImageURL:    r.ImageURL,
		Featured:    r.Featured,
	}, nil
}

func (h *AdminHTTP) CreateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid product data")
		return
	}
	in, err := req.toInput()
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid price")
		return
	}
	product, err := h.Catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func (h *AdminHTTP) UpdateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid product data")
		return
	}
	in, err := req.toInput()
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid price")
		return
	}
	product, err := h.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func (h *AdminHTTP) DeleteProduct(c *gin.Context) {
	if err := h.Catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type categoryReq struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

func (h *AdminHTTP) CreateCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid category data")
		return
	}
	cat, err := h.Catalog.CreateCategory(c.Request.Context(), req.Name, req.Slug)
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "category": cat})
}

func (h *AdminHTTP) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	orders, total, err := h.Orders.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total})
}

type statusReq struct {
	Status model.OrderStatus `json:"status" binding:"required,oneof=PROCESSING SHIPPED DELIVERED CANCELLED"`
}

func (h *AdminHTTP) UpdateOrderStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid status")
		return
	}
	if err := h.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
