package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"authcore/internal/policy/domain"
)

// SignUpQuery is the Rego query whose result lists the reasons a sign-up is refused.
const SignUpQuery = "data.authcore.signup.deny"

// ExamplePolicy restricts sign-up to one email domain. Used by HealthCheck and as a seed template.
const ExamplePolicy = `package authcore.signup

deny contains msg if {
	not endswith(input.email, "@example.com")
	msg := sprintf("email domain %s is not allowed", [input.email_domain])
}
`

// SignUpInput is the document policies see as input.
type SignUpInput struct {
	Email           string
	PlatformID      string
	Status          string
	FirstName       string
	LastName        string
	Federated       bool
	ReferringUserID string
}

// Decision is the outcome of sign-up policy evaluation. Reasons is sorted and empty when allowed.
type Decision struct {
	Allowed bool
	Reasons []string
}

// PolicySource lists enabled sign-up policies.
type PolicySource interface {
	ListEnabled(ctx context.Context) ([]*domain.Policy, error)
}

// OPAEvaluator evaluates sign-up admission policies using OPA Rego.
type OPAEvaluator struct {
	policies PolicySource
}

// NewOPAEvaluator returns an OPA-based sign-up evaluator.
func NewOPAEvaluator(policies PolicySource) *OPAEvaluator {
	return &OPAEvaluator{policies: policies}
}

// HealthCheck verifies that the in-process engine can compile and evaluate ExamplePolicy.
// Does not call the policy store.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	d, err := evaluate(ctx, []string{ExamplePolicy}, buildInput(SignUpInput{Email: "healthcheck@invalid.test"}))
	if err != nil {
		return err
	}
	if d.Allowed {
		return fmt.Errorf("example policy did not deny a foreign domain")
	}
	return nil
}

// EvaluateSignUp runs all enabled policies against in. With no enabled policies the
// sign-up is allowed without invoking the engine. Load, compile and evaluation
// failures are returned so the caller can refuse the sign-up.
func (e *OPAEvaluator) EvaluateSignUp(ctx context.Context, in SignUpInput) (Decision, error) {
	if e.policies == nil {
		return Decision{Allowed: true}, nil
	}
	list, err := e.policies.ListEnabled(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("load policies: %w", err)
	}
	var modules []string
	for _, p := range list {
		if p.Enabled && strings.TrimSpace(p.Rules) != "" {
			modules = append(modules, p.Rules)
		}
	}
	if len(modules) == 0 {
		return Decision{Allowed: true}, nil
	}
	return evaluate(ctx, modules, buildInput(in))
}

func buildInput(in SignUpInput) map[string]interface{} {
	domainPart := ""
	if i := strings.LastIndex(in.Email, "@"); i >= 0 {
		domainPart = in.Email[i+1:]
	}
	return map[string]interface{}{
		"email":             in.Email,
		"email_domain":      domainPart,
		"platform_id":       in.PlatformID,
		"status":            in.Status,
		"first_name":        in.FirstName,
		"last_name":         in.LastName,
		"federated":         in.Federated,
		"referring_user_id": in.ReferringUserID,
	}
}

func evaluate(ctx context.Context, policies []string, input map[string]interface{}) (Decision, error) {
	modules := make(map[string]string, len(policies))
	for i, p := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = p
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return Decision{}, fmt.Errorf("compile policies: %w", err)
	}
	rs, err := rego.New(
		rego.Query(SignUpQuery),
		rego.Compiler(compiler),
		rego.Input(input),
	).Eval(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("eval policies: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		// deny undefined in every module
		return Decision{Allowed: true}, nil
	}

	var reasons []string
	switch v := rs[0].Expressions[0].Value.(type) {
	case []interface{}:
		for _, r := range v {
			if s, ok := r.(string); ok {
				reasons = append(reasons, s)
			} else {
				reasons = append(reasons, fmt.Sprint(r))
			}
		}
	case bool:
		if v {
			reasons = append(reasons, "denied by policy")
		}
	default:
		return Decision{}, fmt.Errorf("%s: unexpected result type %T", SignUpQuery, v)
	}
	if len(reasons) == 0 {
		return Decision{Allowed: true}, nil
	}
	sort.Strings(reasons)
	return Decision{Allowed: false, Reasons: reasons}, nil
}
