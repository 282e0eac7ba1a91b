package controller

import (
	"net/http"
	"strconv"

	"storefront-service/internal/dto"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	Service *service.ProductService
}

func NewProductController(s *service.ProductService) *ProductController {
	return &ProductController{Service: s}
}

func queryFloat(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// Valores inválidos de page/limit caen al default del servicio.
func queryInt(c *gin.Context, key string) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// GET /products?category=&search=&minPrice=&maxPrice=&sort=&page=&limit=
func (ctl *ProductController) List(c *gin.Context) {
	minPrice, ok := queryFloat(c, "minPrice")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minPrice must be a number"})
		return
	}
	maxPrice, ok := queryFloat(c, "maxPrice")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxPrice must be a number"})
		return
	}

	res, err := ctl.Service.List(c.Request.Context(), repository.ProductQuery{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.Query("sort"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /products/:id: acepta id o slug
func (ctl *ProductController) Get(c *gin.Context) {
	p, err := ctl.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": p})
}

// POST /products: admin only
func (ctl *ProductController) Create(c *gin.Context) {
	var req dto.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := ctl.Service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": p})
}

// PUT /products/:id: admin only
func (ctl *ProductController) Update(c *gin.Context) {
	var req dto.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := ctl.Service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": p})
}

// DELETE /products/:id: admin only
func (ctl *ProductController) Delete(c *gin.Context) {
	if err := ctl.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "product deleted"})
}
