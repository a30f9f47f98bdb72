package session

import "github.com/trestlehq/coordinator/pkg/types"

// Hooks are the session's explicit typed callbacks, each a single
// function value owned by the session — no registry of listeners. A
// nil hook is valid and silently dropped.
type Hooks struct {
	// OnStateChange observes every protocol state transition.
	OnStateChange func(types.ProtocolState)

	// OnAuthFailed fires exactly once when the panel rejects auth.
	OnAuthFailed func()

	// OnInputEvent fires for inbound input_event messages.
	OnInputEvent func(bindingID, action string, value any)

	// OnStateRequest answers a state_request for one binding id; the
	// returned (state, ok) pair becomes one entry of the snapshot sent
	// back, or is omitted when ok is false.
	OnStateRequest func(bindingID string) (state any, ok bool)

	// OnLayoutApplied fires when the panel confirms a layout.
	OnLayoutApplied func(layoutID string)
}

func (h Hooks) stateChange(s types.ProtocolState) {
	if h.OnStateChange != nil {
		h.OnStateChange(s)
	}
}

func (h Hooks) authFailed() {
	if h.OnAuthFailed != nil {
		h.OnAuthFailed()
	}
}

func (h Hooks) inputEvent(bindingID, action string, value any) {
	if h.OnInputEvent != nil {
		h.OnInputEvent(bindingID, action, value)
	}
}

func (h Hooks) stateRequest(bindingID string) (any, bool) {
	if h.OnStateRequest == nil {
		return nil, false
	}
	return h.OnStateRequest(bindingID)
}

func (h Hooks) layoutApplied(layoutID string) {
	if h.OnLayoutApplied != nil {
		h.OnLayoutApplied(layoutID)
	}
}
