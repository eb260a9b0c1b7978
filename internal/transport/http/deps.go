package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/token-check-api/internal/application/checker"
	"github.com/token-check-api/internal/audit"
	jwtinfra "github.com/token-check-api/internal/infrastructure/jwt"
	"github.com/token-check-api/internal/metrics"
)

// Deps holds all infrastructure dependencies for the router.
// Archive, Metrics, Registry and JWTProvider may be nil.
type Deps struct {
	Verifier    checker.TokenVerifier
	TokenRepo   checker.TokenStore
	Audit       audit.Recorder
	Archive     checker.ReportArchive
	Metrics     *metrics.Collector
	Registry    *prometheus.Registry
	JWTProvider *jwtinfra.Provider
}
