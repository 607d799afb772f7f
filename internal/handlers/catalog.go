package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ivan2214/ecommerce/internal/service"
)

type CatalogHTTP struct {
	Catalog   service.CatalogService
	Favorites service.FavoriteService
	Reviews   service.ReviewService
}

func NewCatalogHTTP(catalog service.CatalogService, favorites service.FavoriteService, reviews service.ReviewService) *CatalogHTTP {
	return &CatalogHTTP{Catalog: catalog, Favorites: favorites, Reviews: reviews}
}

func (h *CatalogHTTP) ListProducts(c *gin.Context) {
	f := service.ProductFilter{
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
		Sort:         c.Query("sort"),
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if v := c.Query("minPrice"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			f.MinPrice = &d
		}
	}
	if v := c.Query("maxPrice"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			f.MaxPrice = &d
		}
	}
	if v := c.Query("featured"); v != "" {
		featured := v == "true" || v == "1"
		f.Featured = &featured
	}

	products, total, err := h.Catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": total})
}

func (h *CatalogHTTP) GetProduct(c *gin.Context) {
	id := c.Param("id")
	product, err := h.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		failFrom(c, err)
		return
	}
	reviews, err := h.Reviews.ListForProduct(c.Request.Context(), id)
	if err != nil {
		failFrom(c, err)
		return
	}
	avg := 0.0
	for _, r := range reviews {
		avg += float64(r.Rating)
	}
	if len(reviews) > 0 {
		avg /= float64(len(reviews))
	}
	c.JSON(http.StatusOK, gin.H{
		"product":       product,
		"reviews":       reviews,
		"averageRating": avg,
	})
}

func (h *CatalogHTTP) ListCategories(c *gin.Context) {
	cats, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *CatalogHTTP) ToggleFavorite(c *gin.Context) {
	favorited, err := h.Favorites.Toggle(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "favorited": favorited})
}

func (h *CatalogHTTP) ListFavorites(c *gin.Context) {
	favs, err := h.Favorites.List(c.Request.Context(), userID(c))
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favs})
}

type reviewReq struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (h *CatalogHTTP) CreateReview(c *gin.Context) {
	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	review, err := h.Reviews.Upsert(c.Request.Context(), userID(c), c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
}
