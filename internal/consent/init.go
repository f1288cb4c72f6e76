// Package consent implements the account-information consent lifecycle:
// creation, status transitions, validity and usage based expiration and
// the one-off reconciliation rules.
package consent

import (
	"github.com/gin-gonic/gin"

	"github.com/psd2hub/consent-cms/internal/authorisation"
	"github.com/psd2hub/consent-cms/internal/idcipher"
	"github.com/psd2hub/consent-cms/internal/profile"
)

// Module bundles the consent services exposed to the rest of the server.
type Module struct {
	Service       ConsentServiceInterface
	Expiration    ExpirationServiceInterface
	ParentService authorisation.ParentServiceInterface
}

// Initialize wires the consent services and registers the consent routes.
func Initialize(
	v1 *gin.RouterGroup,
	store ConsentStoreInterface,
	executor TransactionExecutor,
	profileProvider profile.SettingsProviderInterface,
	cipher idcipher.IDCipherInterface,
) *Module {
	expiration := NewExpirationService(store, profileProvider)
	oneOff := NewOneOffExpirationService(store, profileProvider)
	service := NewEncryptedService(NewConsentService(store, expiration, oneOff, executor, profileProvider), cipher)
	handler := newConsentHandler(service, expiration, cipher)

	registerRoutes(v1, handler)

	return &Module{
		Service:       service,
		Expiration:    expiration,
		ParentService: NewParentAdapter(store, expiration),
	}
}

func registerRoutes(v1 *gin.RouterGroup, handler *consentHandler) {
	consents := v1.Group("/consents")
	{
		consents.POST("", handler.createConsent)
		consents.GET("/:consentId", handler.getConsent)
		consents.GET("/:consentId/status", handler.getConsentStatus)
		consents.PUT("/:consentId/status", handler.updateConsentStatus)
		consents.PUT("/:consentId/confirm", handler.statusAction(handler.service.ConfirmConsent))
		consents.PUT("/:consentId/reject", handler.statusAction(handler.service.RejectConsent))
		consents.PUT("/:consentId/revoke", handler.statusAction(handler.service.RevokeConsent))
		consents.PUT("/:consentId/authorise-partially", handler.statusAction(handler.service.AuthorisePartiallyConsent))
		consents.PUT("/:consentId/terminate-old", handler.terminateOldConsents)
		consents.POST("/:consentId/usages", handler.recordUsage)
		consents.PUT("/:consentId/access", handler.updateAccess)
		consents.PUT("/:consentId/multilevel-sca", handler.updateMultilevelSca)
		consents.PUT("/:consentId/psu-data", handler.updatePsuData)
		consents.PUT("/:consentId/resources/:resourceId/transactions", handler.saveNumberOfTransactions)
	}

	// Batch sweeps are kept off the /consents subtree so the static paths
	// cannot collide with the :consentId wildcard.
	sweeps := v1.Group("/consent-sweeps")
	{
		sweeps.POST("/overdue", handler.expireOverdue)
		sweeps.POST("/not-confirmed", handler.expireNotConfirmed)
	}
}
