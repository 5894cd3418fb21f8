package domain

// OutcomeKind enumerates terminal dispositions for one dispatched item.
type OutcomeKind string

const (
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeReplied OutcomeKind = "replied"
	OutcomeFailed  OutcomeKind = "failed"
)

// Reason refines an outcome with why it happened.
type Reason string

const (
	ReasonAlreadyHandled  Reason = "already_handled"
	ReasonSelfAuthored    Reason = "self_authored"
	ReasonNoContent       Reason = "no_content"
	ReasonGenerationEmpty Reason = "generation_empty"
	ReasonNotFound        Reason = "not_found"
	ReasonForbidden       Reason = "forbidden"
	ReasonTransient       Reason = "transient"
	ReasonUnexpected      Reason = "unexpected"
)

// Outcome is the tagged result of dispatching one timeline item. Mutated
// reports whether the processed-id store changed, Errored whether the item
// counts against the iteration error tally.
type Outcome struct {
	Kind    OutcomeKind
	Reason  Reason
	Mutated bool
	Errored bool
}

// Counters is the per-iteration tally, logged once at end of pass.
type Counters struct {
	Considered int
	Replied    int
	Errored    int
}
