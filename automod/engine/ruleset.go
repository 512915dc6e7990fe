package engine

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// default bound on validators evaluated at once in a single pass: one at a time, in chain order
const DefaultRuleConcurrency = 1

// Ordered chain of validators. Order is significant: later approvals override earlier rejections.
type RuleSet struct {
	Validators []Validator
	// max validators evaluated in parallel; zero means DefaultRuleConcurrency. Values above one are only safe when every validator is free of side effects.
	Concurrency int
}

type ruleOutcome struct {
	verdict Verdict
	err     error
}

// Evaluates every validator and folds the verdicts in chain order. With Concurrency above one, validators overlap, but the result is the same as walking the chain sequentially. A failing validator (error or panic) is logged and counted, and its verdict dropped; it never aborts the pass.
func (r *RuleSet) CallValidators(c *MemberContext) *Effects {
	eff := &Effects{Logger: c.Logger}
	outcomes := make([]ruleOutcome, len(r.Validators))

	var g errgroup.Group
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultRuleConcurrency
	}
	g.SetLimit(limit)
	for i, v := range r.Validators {
		g.Go(func() error {
			outcomes[i] = evaluate(c, v)
			return nil
		})
	}
	_ = g.Wait()

	for i, v := range r.Validators {
		out := outcomes[i]
		if out.err != nil {
			c.Logger.Error("validator failed", "validator", v.Name(), "err", out.err)
			validatorErrorCount.WithLabelValues(v.Name()).Inc()
			eff.Failed = append(eff.Failed, v.Name())
			continue
		}
		eff.Apply(v.Name(), out.verdict)
	}
	return eff
}

func evaluate(c *MemberContext, v Validator) (out ruleOutcome) {
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if rec := recover(); rec != nil {
			c.Logger.Debug("validator panic stack", "validator", v.Name(), "stack", string(debug.Stack()))
			out = ruleOutcome{err: fmt.Errorf("validator panic: %v", rec)}
		}
	}()
	verdict, err := v.Evaluate(c)
	if err != nil {
		return ruleOutcome{err: err}
	}
	return ruleOutcome{verdict: verdict}
}
