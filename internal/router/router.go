// Package router assembles the gin engine: middleware, operational
// endpoints and the versioned consent, payment and authorisation APIs.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psd2hub/consent-cms/internal/authorisation"
	authmodel "github.com/psd2hub/consent-cms/internal/authorisation/model"
	"github.com/psd2hub/consent-cms/internal/consent"
	"github.com/psd2hub/consent-cms/internal/idcipher"
	"github.com/psd2hub/consent-cms/internal/payment"
	"github.com/psd2hub/consent-cms/internal/profile"
	"github.com/psd2hub/consent-cms/internal/system/config"
	"github.com/psd2hub/consent-cms/internal/system/constants"
	"github.com/psd2hub/consent-cms/internal/system/middleware"
	"github.com/psd2hub/consent-cms/internal/system/stores"
)

// Dependencies carries everything the router needs to wire the modules.
type Dependencies struct {
	ConsentStore       consent.ConsentStoreInterface
	AuthorisationStore authorisation.AuthorisationStoreInterface
	PaymentStore       payment.PaymentStoreInterface
	Registry           *stores.StoreRegistry
	ProfileProvider    profile.SettingsProviderInterface
	Cipher             idcipher.IDCipherInterface
	CORS               *config.CORSConfig
}

// SetupRouter configures middleware, operational endpoints and all API routes.
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationIDMiddleware())
	if deps.CORS != nil && deps.CORS.Enabled {
		router.Use(middleware.CORSMiddleware(middleware.CORSOptionsFromConfig(deps.CORS)))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group(constants.APIBasePath)

	consentModule := consent.Initialize(v1, deps.ConsentStore, deps.Registry, deps.ProfileProvider, deps.Cipher)
	paymentModule := payment.Initialize(v1, deps.PaymentStore, deps.ProfileProvider, deps.Cipher)

	resolver := authorisation.ParentResolver{
		authmodel.ParentTypeConsent:         consentModule.ParentService,
		authmodel.ParentTypePisCreation:     paymentModule.ParentService,
		authmodel.ParentTypePisCancellation: paymentModule.ParentService,
	}
	authorisation.Initialize(v1, deps.AuthorisationStore, deps.Registry, resolver, deps.ProfileProvider, deps.Cipher)

	return router
}
