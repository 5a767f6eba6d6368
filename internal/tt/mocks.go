// Package tt provides shared test infrastructure: a scripted oracle and
// assertion helpers.
package tt

import (
	"context"

	"github.com/rickchristie/jsonsmith"
)

// -----------------------------------------------------------------------------
// ScriptedOracle - implements jsonsmith.Oracle with queued responses
// -----------------------------------------------------------------------------

// scriptedCall is one queued oracle response.
type scriptedCall struct {
	snapshots []string
	err       error
}

// ScriptedOracle is a configurable mock that implements jsonsmith.Oracle.
// Each Generate call consumes the next queued response and streams it as
// cumulative snapshots, the same shape a real streaming backend produces.
type ScriptedOracle struct {
	calls       []scriptedCall
	fallback    []string
	hasFallback bool
	callCount   int

	// CapturedPrompts stores the prompt of every Generate call, in order.
	// Populated automatically.
	CapturedPrompts []string

	// CapturedSettings stores the settings of every Generate call, in order.
	CapturedSettings []jsonsmith.GenerationSettings
}

// NewScriptedOracle creates an oracle with an empty script. A call past the
// end of the script yields an empty stream (no snapshots), which reads as a
// stopping-pattern failure to the engine, unless a fallback is set.
func NewScriptedOracle() *ScriptedOracle {
	return &ScriptedOracle{}
}

// AddResponse queues a response streamed as rune-by-rune cumulative
// snapshots of text, mimicking token-at-a-time generation.
func (o *ScriptedOracle) AddResponse(text string) *ScriptedOracle {
	o.calls = append(o.calls, scriptedCall{snapshots: cumulative(text)})
	return o
}

// AddResponses queues several responses in order.
func (o *ScriptedOracle) AddResponses(texts ...string) *ScriptedOracle {
	for _, text := range texts {
		o.AddResponse(text)
	}
	return o
}

// AddSnapshots queues a response with explicit snapshots. Use this when the
// exact snapshot boundaries matter (e.g. a marker arriving in one burst).
func (o *ScriptedOracle) AddSnapshots(snapshots ...string) *ScriptedOracle {
	o.calls = append(o.calls, scriptedCall{snapshots: snapshots})
	return o
}

// AddError queues a failing call.
func (o *ScriptedOracle) AddError(err error) *ScriptedOracle {
	o.calls = append(o.calls, scriptedCall{err: err})
	return o
}

// WithFallbackResponse makes every call past the end of the script stream
// text, instead of an empty stream. Use it to model an oracle that only
// ever produces the same (possibly useless) output.
func (o *ScriptedOracle) WithFallbackResponse(text string) *ScriptedOracle {
	o.fallback = cumulative(text)
	o.hasFallback = true
	return o
}

// CallCount returns how many times Generate has been called.
func (o *ScriptedOracle) CallCount() int {
	return o.callCount
}

// Generate implements jsonsmith.Oracle.
func (o *ScriptedOracle) Generate(
	_ context.Context,
	prompt string,
	settings jsonsmith.GenerationSettings,
) (jsonsmith.TextStream, error) {
	idx := o.callCount
	o.callCount++
	o.CapturedPrompts = append(o.CapturedPrompts, prompt)
	o.CapturedSettings = append(o.CapturedSettings, settings)

	call := scriptedCall{}
	if idx < len(o.calls) {
		call = o.calls[idx]
	} else if o.hasFallback {
		call.snapshots = o.fallback
	}

	stream := jsonsmith.NewStreamBuffer()
	go func() {
		if call.err != nil {
			stream.Complete("", call.err)
			return
		}
		var last string
		for _, snapshot := range call.snapshots {
			last = snapshot
			stream.Send(snapshot)
		}
		stream.Complete(last, nil)
	}()
	return stream, nil
}

// cumulative splits text into rune-by-rune growing prefixes.
func cumulative(text string) []string {
	runes := []rune(text)
	snapshots := make([]string, 0, len(runes))
	for i := range runes {
		snapshots = append(snapshots, string(runes[:i+1]))
	}
	return snapshots
}

// Compile-time check that ScriptedOracle implements jsonsmith.Oracle.
var _ jsonsmith.Oracle = (*ScriptedOracle)(nil)
