package controller

import (
	"net/http"

	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Service *service.AdminService
}

func NewAdminController(s *service.AdminService) *AdminController {
	return &AdminController{Service: s}
}

// GET /admin/stats
func (ctl *AdminController) Stats(c *gin.Context) {
	stats, err := ctl.Service.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
