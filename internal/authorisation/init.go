// Package authorisation implements the SCA authorisation engine shared by
// consents and payments.
package authorisation

import (
	"github.com/gin-gonic/gin"

	"github.com/psd2hub/consent-cms/internal/authorisation/model"
	"github.com/psd2hub/consent-cms/internal/idcipher"
	"github.com/psd2hub/consent-cms/internal/profile"
)

// Initialize wires the authorisation service and registers its routes.
// The resolver is filled in by the caller once the parent modules exist.
func Initialize(
	v1 *gin.RouterGroup,
	store AuthorisationStoreInterface,
	executor TransactionExecutor,
	resolver ParentResolver,
	profileProvider profile.SettingsProviderInterface,
	cipher idcipher.IDCipherInterface,
) AuthorisationServiceInterface {
	closing := NewClosingService(store, executor)
	service := NewEncryptedService(NewAuthorisationService(store, closing, resolver, profileProvider), cipher)
	handler := newAuthorisationHandler(service)

	registerRoutes(v1, handler)
	return service
}

func registerRoutes(v1 *gin.RouterGroup, handler *authorisationHandler) {
	// Parent-scoped collections
	v1.POST("/consents/:consentId/authorisations", handler.createAuthorisation(model.ParentTypeConsent, "consentId"))
	v1.GET("/consents/:consentId/authorisations", handler.listAuthorisations(model.ParentTypeConsent, "consentId"))
	v1.POST("/payments/:paymentId/authorisations", handler.createAuthorisation(model.ParentTypePisCreation, "paymentId"))
	v1.GET("/payments/:paymentId/authorisations", handler.listAuthorisations(model.ParentTypePisCreation, "paymentId"))
	v1.POST("/payments/:paymentId/cancellation-authorisations", handler.createAuthorisation(model.ParentTypePisCancellation, "paymentId"))
	v1.GET("/payments/:paymentId/cancellation-authorisations", handler.listAuthorisations(model.ParentTypePisCancellation, "paymentId"))

	// Authorisation sub-resource
	authorisations := v1.Group("/authorisations")
	{
		authorisations.GET("/:authorisationId", handler.getAuthorisation)
		authorisations.PUT("/:authorisationId", handler.updateAuthorisation)
		authorisations.GET("/:authorisationId/sca-status", handler.getScaStatus)
		authorisations.PUT("/:authorisationId/status", handler.updateStatus)
		authorisations.PUT("/:authorisationId/authentication-methods", handler.saveAuthenticationMethods)
		authorisations.GET("/:authorisationId/authentication-methods/:methodId/decoupled", handler.isMethodDecoupled)
		authorisations.GET("/:authorisationId/sca-approach", handler.getScaApproach)
		authorisations.PUT("/:authorisationId/sca-approach/:scaApproach", handler.updateScaApproach)
	}
}
