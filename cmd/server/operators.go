package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"backoffice/internal/adapters/marketplace"
	operatorStore "backoffice/internal/adapters/storage/operator"
	"backoffice/internal/config"
	operatorDomain "backoffice/internal/domain/operator"
	"backoffice/internal/domain/session"
)

type sessionRevoker interface {
	DeleteForOperator(ctx context.Context, email string) (int64, error)
}

// syncOperators applies the configured operator list and signs out every
// operator who was removed or whose role changed.
// POST: no stored session outlives its operator's configured role
func syncOperators(ctx context.Context, operators operatorStore.Store, sessions sessionRevoker, configured []operatorDomain.Operator, logger *zap.Logger) error {
	current, err := operators.List(ctx)
	if err != nil {
		return fmt.Errorf("list operators: %w", err)
	}
	roles := make(map[string]session.Role, len(configured))
	for _, o := range configured {
		roles[strings.ToLower(strings.TrimSpace(o.Email))] = o.Role
	}
	if err := operators.Sync(ctx, configured); err != nil {
		return fmt.Errorf("sync operators: %w", err)
	}

	for _, o := range current {
		role, kept := roles[strings.ToLower(o.Email)]
		if kept && role == o.Role {
			continue
		}
		n, err := sessions.DeleteForOperator(ctx, o.Email)
		if err != nil {
			return fmt.Errorf("revoke sessions of %s: %w", o.Email, err)
		}
		if n > 0 {
			logger.Info("operator_sessions_revoked",
				zap.String("email", o.Email),
				zap.Bool("removed", !kept),
				zap.Int64("sessions", n))
		}
	}
	return nil
}

// tokenSource picks how upstream calls authenticate: signed per-operator
// tokens, a fixed bearer token, or none.
func tokenSource(cfg *config.Config, logger *zap.Logger) marketplace.TokenSource {
	switch {
	case cfg.Marketplace.TokenSecret != "":
		return marketplace.SignedTokens{
			Secret: []byte(cfg.Marketplace.TokenSecret),
			Issuer: cfg.Marketplace.TokenIssuer,
			TTL:    cfg.GetTokenTTL(),
		}
	case cfg.Marketplace.Token != "":
		return marketplace.StaticToken(cfg.Marketplace.Token)
	}
	logger.Warn("marketplace token is not set; upstream calls are unauthenticated")
	return nil
}
