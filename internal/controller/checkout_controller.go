package controller

import (
	"net/http"

	"storefront-service/internal/dto"
	"storefront-service/internal/middleware"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
)

const stripeSignatureHeader = "Stripe-Signature"

type CheckoutController struct {
	Service *service.CheckoutService
}

func NewCheckoutController(s *service.CheckoutService) *CheckoutController {
	return &CheckoutController{Service: s}
}

// POST /checkout/session: no crea la orden, solo la sesión de pago
func (ctl *CheckoutController) CreateSession(c *gin.Context) {
	var req dto.CheckoutSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, err := ctl.Service.InitiateCheckout(c.Request.Context(), middleware.IdentityFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutSessionResponse{SessionID: sess.ID, URL: sess.URL})
}

// POST /checkout/webhook: sin token; la autenticidad la da la firma sobre el body crudo
func (ctl *CheckoutController) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read request body"})
		return
	}

	if _, err := ctl.Service.HandleWebhook(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
