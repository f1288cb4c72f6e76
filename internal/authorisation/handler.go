package authorisation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psd2hub/consent-cms/internal/authorisation/model"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
	"github.com/psd2hub/consent-cms/internal/system/utils"
)

// authorisationHandler handles authorisation HTTP requests.
type authorisationHandler struct {
	service AuthorisationServiceInterface
}

func newAuthorisationHandler(service AuthorisationServiceInterface) *authorisationHandler {
	return &authorisationHandler{service: service}
}

// createAuthorisation handles POST on a parent's authorisations collection.
func (h *authorisationHandler) createAuthorisation(parentType model.ParentType, parentParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.CreateAuthorisationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
			return
		}
		req.ParentID = c.Param(parentParam)
		req.ParentType = parentType

		authorisation, svcErr := h.service.CreateAuthorisation(c.Request.Context(), utils.GetInstanceID(c), &req)
		if svcErr != nil {
			utils.SendError(c, svcErr)
			return
		}
		c.JSON(http.StatusCreated, authorisation)
	}
}

// listAuthorisations handles GET on a parent's authorisations collection.
func (h *authorisationHandler) listAuthorisations(parentType model.ParentType, parentParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorisations, svcErr := h.service.GetAuthorisationsByParentID(
			c.Request.Context(), utils.GetInstanceID(c), parentType, c.Param(parentParam))
		if svcErr != nil {
			utils.SendError(c, svcErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"authorisations": authorisations})
	}
}

// getAuthorisation handles GET /authorisations/:authorisationId
func (h *authorisationHandler) getAuthorisation(c *gin.Context) {
	authorisation, svcErr := h.service.GetAuthorisationByID(c.Request.Context(), utils.GetInstanceID(c), c.Param("authorisationId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, authorisation)
}

// getScaStatus handles GET /authorisations/:authorisationId/sca-status
func (h *authorisationHandler) getScaStatus(c *gin.Context) {
	scaStatus, svcErr := h.service.GetScaStatus(c.Request.Context(), utils.GetInstanceID(c), c.Param("authorisationId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scaStatus": scaStatus})
}

// updateAuthorisation handles PUT /authorisations/:authorisationId
func (h *authorisationHandler) updateAuthorisation(c *gin.Context) {
	var req model.UpdateAuthorisationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	authorisation, svcErr := h.service.UpdateAuthorisation(c.Request.Context(), utils.GetInstanceID(c), c.Param("authorisationId"), &req)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, authorisation)
}

// updateStatus handles PUT /authorisations/:authorisationId/status
func (h *authorisationHandler) updateStatus(c *gin.Context) {
	var req struct {
		ScaStatus status.ScaStatus `json:"scaStatus"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	updated, svcErr := h.service.UpdateAuthorisationStatus(c.Request.Context(), utils.GetInstanceID(c), c.Param("authorisationId"), req.ScaStatus)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// saveAuthenticationMethods handles PUT /authorisations/:authorisationId/authentication-methods
func (h *authorisationHandler) saveAuthenticationMethods(c *gin.Context) {
	var req struct {
		ScaMethods []model.ScaMethod `json:"scaMethods"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	saved, svcErr := h.service.SaveAuthenticationMethods(c.Request.Context(), utils.GetInstanceID(c), c.Param("authorisationId"), req.ScaMethods)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// updateScaApproach handles PUT /authorisations/:authorisationId/sca-approach/:scaApproach
func (h *authorisationHandler) updateScaApproach(c *gin.Context) {
	updated, svcErr := h.service.UpdateScaApproach(c.Request.Context(), utils.GetInstanceID(c), c.Param("authorisationId"), model.ScaApproach(c.Param("scaApproach")))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// getScaApproach handles GET /authorisations/:authorisationId/sca-approach
func (h *authorisationHandler) getScaApproach(c *gin.Context) {
	scaApproach, svcErr := h.service.GetScaApproach(c.Request.Context(), utils.GetInstanceID(c), c.Param("authorisationId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scaApproach": scaApproach})
}

// isMethodDecoupled handles GET /authorisations/:authorisationId/authentication-methods/:methodId/decoupled
func (h *authorisationHandler) isMethodDecoupled(c *gin.Context) {
	decoupled, svcErr := h.service.IsAuthenticationMethodDecoupled(c.Request.Context(), utils.GetInstanceID(c), c.Param("authorisationId"), c.Param("methodId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decoupled": decoupled})
}
