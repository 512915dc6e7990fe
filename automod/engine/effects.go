package engine

import (
	"log/slog"
)

// Outcome of one validation pass.
type Decision int

const (
	// no validator has emitted a reason yet
	Undetermined Decision = iota
	Approved
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	default:
		return "undetermined"
	}
}

// Human-readable justification, tagged with the validator that produced it.
type Reason struct {
	Text   string
	Source string
}

// Mutable container for the outcome of running the validator chain over one member.
//
// Verdicts are folded in chain order. Every rejection moves the decision to Rejected, and every approval moves it to Approved, so the last reason to arrive wins. Both reason lists are always kept in full, even once a later approval has overridden earlier rejections.
type Effects struct {
	Logger *slog.Logger

	Decision   Decision
	Approvals  []Reason
	Rejections []Reason
	// names of validators which failed or panicked during this pass; their verdicts are not included
	Failed []string
}

// Folds one validator's verdict. Rejections are applied before approvals.
func (e *Effects) Apply(source string, v Verdict) {
	for _, text := range v.Rejections {
		e.Reject(source, text)
	}
	for _, text := range v.Approvals {
		e.Approve(source, text)
	}
}

func (e *Effects) Reject(source, text string) {
	if text == "" {
		return
	}
	e.Rejections = append(e.Rejections, Reason{Text: text, Source: source})
	e.Decision = Rejected
}

func (e *Effects) Approve(source, text string) {
	if text == "" {
		return
	}
	e.Approvals = append(e.Approvals, Reason{Text: text, Source: source})
	e.Decision = Approved
}

// Final boolean decision. A pass where no validator said anything counts as approved.
func (e *Effects) IsApproved() bool {
	return e.Decision != Rejected
}

func (e *Effects) ApprovalTexts() []string {
	return reasonTexts(e.Approvals)
}

func (e *Effects) RejectionTexts() []string {
	return reasonTexts(e.Rejections)
}

func reasonTexts(reasons []Reason) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = r.Text
	}
	return out
}

func (e *Effects) CanonicalLogLine() {
	if e.Logger == nil {
		return
	}
	e.Logger.Info("canonical-validation-line",
		"decision", e.Decision.String(),
		"approved", e.IsApproved(),
		"approvals", len(e.Approvals),
		"rejections", len(e.Rejections),
		"failed", e.Failed,
	)
}
