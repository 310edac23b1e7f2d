package domain

// TransitionReason identifies why a lifecycle transition happened.
type TransitionReason string

const (
	ReasonActivationThresholdMet TransitionReason = "activation_threshold_met"
	ReasonLowScore               TransitionReason = "low_score"
	ReasonLowActivity            TransitionReason = "low_activity"
	ReasonInitialTimeout         TransitionReason = "initial_timeout"
)

// StatusTransition is an audit record of one lifecycle transition.
// Corresponds to status_transitions table in PostgreSQL. Append-only, never mutated.
type StatusTransition struct {
	TokenAddress string
	FromStatus   Status
	ToStatus     Status
	TimestampMs  int64
	Reason       TransitionReason
}
