package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess     = "success"
	outcomeInvalid     = "invalid_credentials"
	outcomeThrottled   = "throttled"
	outcomeUnavailable = "unavailable"
)

var (
	loginAttempts = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "partdesk_login_attempts_total",
			Help: "Number of login attempts, differentiated by outcome.",
		},
		[]string{"outcome"},
	)

	authzDenied = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "partdesk_authz_denied_total",
			Help: "Number of denied authorization decisions, differentiated by surface and reason.",
		},
		[]string{"surface", "reason"},
	)
)

func observeLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

func observeDenied(surface, reason string) {
	authzDenied.WithLabelValues(surface, reason).Inc()
}
