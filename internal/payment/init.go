// Package payment implements the PIS payment records that SCA
// authorisations and cancellation authorisations attach to.
package payment

import (
	"github.com/gin-gonic/gin"

	"github.com/psd2hub/consent-cms/internal/authorisation"
	"github.com/psd2hub/consent-cms/internal/idcipher"
	"github.com/psd2hub/consent-cms/internal/profile"
)

// Module bundles the payment services exposed to the rest of the server.
type Module struct {
	Service       PaymentServiceInterface
	ParentService authorisation.ParentServiceInterface
}

// Initialize wires the payment services and registers the payment routes.
func Initialize(
	v1 *gin.RouterGroup,
	store PaymentStoreInterface,
	profileProvider profile.SettingsProviderInterface,
	cipher idcipher.IDCipherInterface,
) *Module {
	service := NewEncryptedService(NewPaymentService(store, profileProvider), cipher)
	handler := newPaymentHandler(service)

	registerRoutes(v1, handler)

	return &Module{
		Service:       service,
		ParentService: NewParentAdapter(store, profileProvider),
	}
}

func registerRoutes(v1 *gin.RouterGroup, handler *paymentHandler) {
	payments := v1.Group("/payments")
	{
		payments.POST("", handler.createPayment)
		payments.GET("/:paymentId", handler.getPayment)
		payments.GET("/:paymentId/status", handler.getPaymentStatus)
		payments.PUT("/:paymentId/status", handler.updatePaymentStatus)
		payments.PUT("/:paymentId/cancel", handler.cancelPayment)
		payments.PUT("/:paymentId/psu-data", handler.updatePsuData)
		payments.PUT("/:paymentId/multilevel-sca", handler.updateMultilevelSca)
	}
}
