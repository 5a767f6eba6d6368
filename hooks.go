package jsonsmith

// Hook observes the oracle calls a session makes. Attach with
// [Session.WithHook]; hooks fire synchronously around every call, including
// retries and array probes.
type Hook interface {
	// BeforeOracleCall fires before the oracle is invoked with the exact
	// prompt and settings it will receive.
	BeforeOracleCall(prompt string, settings GenerationSettings)

	// AfterOracleCall fires after the call's stream has been consumed.
	// result is the truncated token (or the final snapshot when no stopping
	// pattern applied); err is the acquisition error, if any.
	AfterOracleCall(prompt string, result string, err error)
}

// HookFuncs adapts plain functions to the Hook interface. Nil fields are
// skipped.
type HookFuncs struct {
	Before func(prompt string, settings GenerationSettings)
	After  func(prompt string, result string, err error)
}

// BeforeOracleCall implements Hook.
func (h HookFuncs) BeforeOracleCall(prompt string, settings GenerationSettings) {
	if h.Before != nil {
		h.Before(prompt, settings)
	}
}

// AfterOracleCall implements Hook.
func (h HookFuncs) AfterOracleCall(prompt string, result string, err error) {
	if h.After != nil {
		h.After(prompt, result, err)
	}
}

// Compile-time check.
var _ Hook = HookFuncs{}
