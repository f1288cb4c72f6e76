// Package profile exposes the ASPSP profile settings the lifecycle engine
// consumes, with per-bank-instance overrides.
package profile

import (
	"github.com/psd2hub/consent-cms/internal/system/config"
)

// Booking statuses a bank may advertise for transaction reads. A global
// one-off consent only reconciles per-resource usage when ALL or BOTH is
// available; otherwise it is spent after the first read.
const (
	BookingStatusAll  = "ALL"
	BookingStatusBoth = "BOTH"
)

// SettingsProviderInterface resolves the profile settings for an instance.
type SettingsProviderInterface interface {
	Get(instanceID string) config.ProfileSettings
}

type settingsProvider struct {
	defaults  config.ProfileSettings
	instances map[string]config.ProfileSettings
}

// NewSettingsProvider creates a provider over the deployment profile config.
func NewSettingsProvider(cfg *config.ProfileConfig) SettingsProviderInterface {
	return &settingsProvider{
		defaults:  cfg.Default,
		instances: cfg.Instances,
	}
}

// Get returns the settings for the given instance, falling back to the
// default profile when no override exists.
func (p *settingsProvider) Get(instanceID string) config.ProfileSettings {
	if settings, ok := p.instances[instanceID]; ok {
		return settings
	}
	return p.defaults
}

// SupportsGlobalUsageReconciliation reports whether the profile advertises a
// booking status that lets a global one-off consent track per-resource usage.
func SupportsGlobalUsageReconciliation(settings config.ProfileSettings) bool {
	for _, bookingStatus := range settings.AvailableBookingStatuses {
		if bookingStatus == BookingStatusAll || bookingStatus == BookingStatusBoth {
			return true
		}
	}
	return false
}
