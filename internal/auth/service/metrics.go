package service

import (
	"errors"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for authentication decisions.
var (
	// loginAttempts counts logins by outcome label.
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// refreshAttempts counts refresh token exchanges by outcome label.
	refreshAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_refresh_attempts_total",
		Help: "Total number of refresh token exchanges by outcome",
	}, []string{"outcome"})

	// apiKeyChecks counts API key authentications by outcome label.
	apiKeyChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_key_checks_total",
		Help: "Total number of API key authentications by outcome",
	}, []string{"outcome"})
)

var outcomeSentinels = []error{
	ErrCredentialNotFound,
	ErrPasswordMismatch,
	ErrPasswordExpired,
	ErrAccountInactive,
	ErrRoleInactive,
	ErrTokenExpired,
	ErrTokenInvalid,
	ErrAPIKeyMissing,
	ErrAPIKeyMalformed,
	ErrAPIKeySchemaInvalid,
	ErrAPIKeyNotFound,
	ErrAPIKeyInactive,
	ErrAPIKeyInvalid,
}

// outcome maps err onto a bounded label value.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	for _, s := range outcomeSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "error"
}

// loginOutcome labels a soft password-expired login separately from a
// clean one.
func loginOutcome(res *domain.LoginResult, err error) string {
	if err == nil && res != nil && res.Outcome == domain.LoginPasswordExpired {
		return ErrPasswordExpired.Error()
	}
	return outcome(err)
}
