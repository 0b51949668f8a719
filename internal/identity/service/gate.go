package service

import (
	"context"

	identitydomain "authcore/internal/identity/domain"
	policyengine "authcore/internal/policy/engine"
)

// SignUpPolicy is the static sign-up configuration, built once at startup.
type SignUpPolicy struct {
	// Enabled allows self-service sign-up once the first account exists.
	Enabled bool
}

// FlagStore reports whether any account has ever been created.
type FlagStore interface {
	UserCreated(ctx context.Context) (bool, error)
}

// SignUpEvaluator evaluates admission policies configured by operators. Optional.
type SignUpEvaluator interface {
	EvaluateSignUp(ctx context.Context, in policyengine.SignUpInput) (policyengine.Decision, error)
}

// gate decides whether a sign-up may proceed. Rules run in order and the first violation wins:
// sign-up disabled after the first account, then invitation-only platforms, then admission policies.
type gate struct {
	policy    SignUpPolicy
	flags     FlagStore
	evaluator SignUpEvaluator
}

func (g *gate) check(ctx context.Context, req identitydomain.SignUpRequest, federated bool) error {
	if !g.policy.Enabled {
		created, err := g.flags.UserCreated(ctx)
		if err != nil {
			return err
		}
		if created {
			return ErrSignUpDisabled
		}
	}
	if req.PlatformID != "" {
		return ErrInvitationOnlySignUp
	}
	if g.evaluator == nil {
		return nil
	}
	decision, err := g.evaluator.EvaluateSignUp(ctx, policyengine.SignUpInput{
		Email:           req.Email,
		PlatformID:      req.PlatformID,
		Status:          string(req.Status),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Federated:       federated,
		ReferringUserID: req.ReferringUserID,
	})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &SignUpRejectedError{Reasons: decision.Reasons}
	}
	return nil
}
