package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psd2hub/consent-cms/internal/payment/model"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
	"github.com/psd2hub/consent-cms/internal/system/utils"
)

// paymentHandler handles payment HTTP requests.
type paymentHandler struct {
	service PaymentServiceInterface
}

func newPaymentHandler(service PaymentServiceInterface) *paymentHandler {
	return &paymentHandler{service: service}
}

// createPayment handles POST /payments
func (h *paymentHandler) createPayment(c *gin.Context) {
	var req model.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	payment, svcErr := h.service.CreatePayment(c.Request.Context(), utils.GetInstanceID(c), &req)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// getPayment handles GET /payments/:paymentId
func (h *paymentHandler) getPayment(c *gin.Context) {
	payment, svcErr := h.service.GetPaymentByID(c.Request.Context(), utils.GetInstanceID(c), c.Param("paymentId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// getPaymentStatus handles GET /payments/:paymentId/status
func (h *paymentHandler) getPaymentStatus(c *gin.Context) {
	transactionStatus, svcErr := h.service.GetPaymentStatus(c.Request.Context(), utils.GetInstanceID(c), c.Param("paymentId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactionStatus": transactionStatus})
}

// updatePaymentStatus handles PUT /payments/:paymentId/status
func (h *paymentHandler) updatePaymentStatus(c *gin.Context) {
	var req struct {
		TransactionStatus status.TransactionStatus `json:"transactionStatus"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	updated, svcErr := h.service.UpdatePaymentStatus(c.Request.Context(), utils.GetInstanceID(c), c.Param("paymentId"), req.TransactionStatus)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// cancelPayment handles PUT /payments/:paymentId/cancel
func (h *paymentHandler) cancelPayment(c *gin.Context) {
	updated, svcErr := h.service.CancelPayment(c.Request.Context(), utils.GetInstanceID(c), c.Param("paymentId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// updatePsuData handles PUT /payments/:paymentId/psu-data
func (h *paymentHandler) updatePsuData(c *gin.Context) {
	var req struct {
		PsuData *psu.PsuData `json:"psuData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	updated, svcErr := h.service.UpdatePsuData(c.Request.Context(), utils.GetInstanceID(c), c.Param("paymentId"), req.PsuData)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// updateMultilevelSca handles PUT /payments/:paymentId/multilevel-sca
func (h *paymentHandler) updateMultilevelSca(c *gin.Context) {
	var req struct {
		MultilevelScaRequired bool `json:"multilevelScaRequired"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	updated, svcErr := h.service.UpdateMultilevelScaRequired(c.Request.Context(), utils.GetInstanceID(c), c.Param("paymentId"), req.MultilevelScaRequired)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
