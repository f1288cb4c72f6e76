// Package metrics provides observability for the consent lifecycle engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks lifecycle transitions driven by the engine rather than by
// explicit client calls, so operators can see expiry churn directly.
type Metrics struct {
	ConsentsCreated       prometheus.Counter
	ConsentsExpired       *prometheus.CounterVec
	ConsentsTerminated    prometheus.Counter
	AuthorisationsClosed  prometheus.Counter
	AuthorisationsExpired prometheus.Counter
	PaymentsRejected      prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics instance, registering the collectors
// on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			ConsentsCreated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "cms_consents_created_total",
				Help: "Total number of consents created",
			}),
			ConsentsExpired: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "cms_consents_expired_total",
				Help: "Total number of consents moved to EXPIRED, by cause",
			}, []string{"cause"}),
			ConsentsTerminated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "cms_consents_terminated_total",
				Help: "Total number of old consents terminated by a newer one",
			}),
			AuthorisationsClosed: promauto.NewCounter(prometheus.CounterOpts{
				Name: "cms_authorisations_closed_total",
				Help: "Total number of sibling authorisations closed as FAILED",
			}),
			AuthorisationsExpired: promauto.NewCounter(prometheus.CounterOpts{
				Name: "cms_authorisations_expired_total",
				Help: "Total number of authorisations expired by the confirmation window",
			}),
			PaymentsRejected: promauto.NewCounter(prometheus.CounterOpts{
				Name: "cms_payments_rejected_total",
				Help: "Total number of payments rejected on confirmation expiration",
			}),
		}
	})
	return instance
}

// IncrementConsentsExpired records a consent expiration with its cause
// (validity_date, confirmation_window or usage_exhausted).
func (m *Metrics) IncrementConsentsExpired(cause string) {
	m.ConsentsExpired.WithLabelValues(cause).Inc()
}
