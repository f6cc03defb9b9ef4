// Package orchestrator drives each accepted post through the fixed
// stage sequence, persisting a StageRun, cost entries, and audit events
// at every transition, one post fully to completion before starting the
// next.
package orchestrator

import "github.com/postforge/postforge/internal/types"

// outcome is what one stage attempt produced, expressed independently
// of which stage ran it, so transition can be a single pure function.
type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeGateFailed
	outcomeVerifyFailedRetryable
	outcomeVerifyFailedExhausted
	outcomeTerminalError
	outcomeCostExhausted
)

// minSpecConfidence and minSpecDeliverables are the spec stage's two
// numeric rejection gates, alongside build=false: confidence below 70
// (on the model's 0..100 scale) or fewer than three deliverables reject
// the post rather than carrying it forward.
const (
	minSpecConfidence   = 70
	minSpecDeliverables = 3
)

// transition is the explicit state-machine function named in the
// design notes: given the current state and what the last stage
// attempt produced, what state does the post move to next. Keeping this
// as one pure function (rather than scattering if/else across the
// driving loop) is what makes the fourteen states/six off-ramps
// exhaustively testable.
func transition(current types.PostState, o outcome) types.PostState {
	if o == outcomeCostExhausted {
		return types.StateCostExhausted
	}
	if o == outcomeTerminalError {
		return types.StateFailed
	}

	switch current {
	case types.StateNew:
		if o == outcomeSucceeded {
			return types.StateIngested
		}
	case types.StateIngested:
		if o == outcomeGateFailed {
			return types.StateDiscarded
		}
		if o == outcomeSucceeded {
			return types.StateProblemOK
		}
	case types.StateProblemOK:
		if o == outcomeGateFailed {
			return types.StateRejected
		}
		if o == outcomeSucceeded {
			return types.StateSpecOK
		}
	case types.StateSpecOK:
		if o == outcomeSucceeded {
			return types.StateContentOK
		}
	case types.StateContentOK:
		if o == outcomeSucceeded {
			return types.StateVerified
		}
		if o == outcomeVerifyFailedRetryable {
			return types.StateRegenerate
		}
		if o == outcomeVerifyFailedExhausted {
			return types.StateHardDiscard
		}
	case types.StateRegenerate:
		// Looping back to CONTENT_OK's predecessor: regeneration
		// re-runs the content stage, landing back at CONTENT_OK on
		// success so it can be re-verified.
		if o == outcomeSucceeded {
			return types.StateContentOK
		}
	case types.StateVerified:
		if o == outcomeSucceeded {
			return types.StateListed
		}
	case types.StateListed:
		if o == outcomeSucceeded {
			return types.StateUploaded
		}
	}

	return current
}
