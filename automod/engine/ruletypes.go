package engine

// A single heuristic contributing approval and/or rejection reasons for a join decision.
//
// Evaluate may be called concurrently for different members, and concurrently with other validators in the same RuleSet. Implementations must not retain the context.
type Validator interface {
	Name() string
	Evaluate(c *MemberContext) (Verdict, error)
}

// Reasons emitted by one validator for one member. Empty strings are treated as absent and dropped.
type Verdict struct {
	Approvals  []string
	Rejections []string
}

func (v *Verdict) Approve(reason string) {
	v.Approvals = append(v.Approvals, reason)
}

func (v *Verdict) Reject(reason string) {
	v.Rejections = append(v.Rejections, reason)
}

func (v Verdict) Empty() bool {
	return len(v.Approvals) == 0 && len(v.Rejections) == 0
}

type validatorFunc struct {
	name string
	fn   func(c *MemberContext) (Verdict, error)
}

// Adapts a plain function into a Validator.
func ValidatorFunc(name string, fn func(c *MemberContext) (Verdict, error)) Validator {
	return validatorFunc{name: name, fn: fn}
}

func (v validatorFunc) Name() string { return v.name }

func (v validatorFunc) Evaluate(c *MemberContext) (Verdict, error) { return v.fn(c) }
