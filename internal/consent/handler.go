package consent

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psd2hub/consent-cms/internal/consent/model"
	"github.com/psd2hub/consent-cms/internal/idcipher"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
	"github.com/psd2hub/consent-cms/internal/system/utils"
)

// consentHandler handles consent HTTP requests.
type consentHandler struct {
	service    ConsentServiceInterface
	expiration ExpirationServiceInterface
	cipher     idcipher.IDCipherInterface
}

func newConsentHandler(service ConsentServiceInterface, expiration ExpirationServiceInterface, cipher idcipher.IDCipherInterface) *consentHandler {
	return &consentHandler{
		service:    service,
		expiration: expiration,
		cipher:     cipher,
	}
}

// createConsent handles POST /consents
func (h *consentHandler) createConsent(c *gin.Context) {
	var req model.CreateConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	consent, svcErr := h.service.CreateConsent(c.Request.Context(), utils.GetInstanceID(c), &req)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, consent)
}

// getConsent handles GET /consents/:consentId
func (h *consentHandler) getConsent(c *gin.Context) {
	consent, svcErr := h.service.GetConsentByID(c.Request.Context(), utils.GetInstanceID(c), c.Param("consentId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, consent)
}

// getConsentStatus handles GET /consents/:consentId/status
func (h *consentHandler) getConsentStatus(c *gin.Context) {
	consentStatus, svcErr := h.service.GetConsentStatus(c.Request.Context(), utils.GetInstanceID(c), c.Param("consentId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consentStatus": consentStatus})
}

// updateConsentStatus handles PUT /consents/:consentId/status
func (h *consentHandler) updateConsentStatus(c *gin.Context) {
	var req struct {
		ConsentStatus status.ConsentStatus `json:"consentStatus"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	updated, svcErr := h.service.UpdateConsentStatus(c.Request.Context(), utils.GetInstanceID(c), c.Param("consentId"), req.ConsentStatus)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *consentHandler) statusAction(action func(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError)) gin.HandlerFunc {
	return func(c *gin.Context) {
		updated, svcErr := action(c.Request.Context(), utils.GetInstanceID(c), c.Param("consentId"))
		if svcErr != nil {
			utils.SendError(c, svcErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}

// terminateOldConsents handles PUT /consents/:consentId/terminate-old
func (h *consentHandler) terminateOldConsents(c *gin.Context) {
	terminated, svcErr := h.service.FindAndTerminateOldConsents(c.Request.Context(), utils.GetInstanceID(c), c.Param("consentId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"terminated": terminated})
}

// recordUsage handles POST /consents/:consentId/usages
func (h *consentHandler) recordUsage(c *gin.Context) {
	var req struct {
		ResourceID string `json:"resourceId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	response, svcErr := h.service.RecordConsentUsage(c.Request.Context(), utils.GetInstanceID(c), c.Param("consentId"), req.ResourceID)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, response)
}

// updateAccess handles PUT /consents/:consentId/access
func (h *consentHandler) updateAccess(c *gin.Context) {
	var req struct {
		Access          *model.AccountAccess `json:"access"`
		FrequencyPerDay *int                 `json:"frequencyPerDay"`
		ValidUntil      string               `json:"validUntil"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	consent, svcErr := h.service.UpdateAccountAccess(c.Request.Context(), utils.GetInstanceID(c), c.Param("consentId"), req.Access, req.FrequencyPerDay, req.ValidUntil)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, consent)
}

// updateMultilevelSca handles PUT /consents/:consentId/multilevel-sca
func (h *consentHandler) updateMultilevelSca(c *gin.Context) {
	var req struct {
		MultilevelScaRequired bool `json:"multilevelScaRequired"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	updated, svcErr := h.service.UpdateMultilevelScaRequired(c.Request.Context(), utils.GetInstanceID(c), c.Param("consentId"), req.MultilevelScaRequired)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// updatePsuData handles PUT /consents/:consentId/psu-data
func (h *consentHandler) updatePsuData(c *gin.Context) {
	var req struct {
		PsuData *psu.PsuData `json:"psuData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	updated, svcErr := h.service.UpdatePsuData(c.Request.Context(), utils.GetInstanceID(c), c.Param("consentId"), req.PsuData)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// saveNumberOfTransactions handles PUT /consents/:consentId/resources/:resourceId/transactions
func (h *consentHandler) saveNumberOfTransactions(c *gin.Context) {
	var req struct {
		NumberOfTransactions int `json:"numberOfTransactions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	saved, svcErr := h.service.SaveNumberOfTransactions(c.Request.Context(), utils.GetInstanceID(c), c.Param("consentId"), c.Param("resourceId"), req.NumberOfTransactions)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// expireOverdue handles POST /consent-sweeps/overdue
func (h *consentHandler) expireOverdue(c *gin.Context) {
	expired, err := h.expiration.ExpireOverdueConsents(c.Request.Context())
	if err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to expire overdue consents"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}

// expireNotConfirmed handles POST /consent-sweeps/not-confirmed
func (h *consentHandler) expireNotConfirmed(c *gin.Context) {
	var req struct {
		ConsentIDs []string `json:"consentIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	internalIDs := make([]string, 0, len(req.ConsentIDs))
	for _, externalID := range req.ConsentIDs {
		internalID, ok := h.cipher.DecryptID(externalID)
		if !ok {
			utils.SendError(c, serviceerror.CustomServiceError(serviceerror.TechnicalError, "Failed to decrypt consent id"))
			return
		}
		internalIDs = append(internalIDs, internalID)
	}

	expired, err := h.expiration.ExpireNotConfirmedConsents(c.Request.Context(), utils.GetInstanceID(c), internalIDs)
	if err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to expire consents"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}
