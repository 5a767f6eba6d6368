package jsonsmith

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/rickchristie/jsonsmith/schema"
)

const (
	// DefaultMaxArrayLength bounds generated arrays when the session does
	// not override it.
	DefaultMaxArrayLength = 10

	// DefaultTemperature is the base sampling temperature when the session
	// does not override it.
	DefaultTemperature = 0.7

	// RandomSeed tells the session to choose a random seed and lock it for
	// the whole run. The seed stays fixed across every oracle call the run
	// makes; re-randomizing per call would make the sub-generations drift.
	RandomSeed int64 = -1
)

// Session configures and drives one schema-constrained generation run.
//
//	node, err := schema.ParseString(schemaText)
//	if err != nil { ... }
//
//	session := jsonsmith.NewSession(oracle, node, "Describe the user Ann.").
//	    WithTemperature(0.6).
//	    WithGuidedPrompt()
//
//	stream := session.Run(ctx)
//	for snapshot := range stream.Snapshots() {
//	    display(snapshot) // partial JSON, grows monotonically
//	}
//	result, err := stream.Result()
//
// A Session is configuration plus an oracle; each Run gets fresh buffer and
// indentation state, so independent runs do not share mutable state. Runs of
// one Session must not overlap in time.
type Session struct {
	oracle         Oracle
	root           *schema.Node
	prompt         string
	temperature    float64
	manualPrompt   bool
	maxArrayLength int
	seed           int64
	hooks          []Hook
}

// NewSession creates a session generating against the given schema root.
// prompt is the caller's instruction text. Defaults: manual prompt mode,
// temperature [DefaultTemperature], array bound [DefaultMaxArrayLength],
// random locked seed.
func NewSession(oracle Oracle, root *schema.Node, prompt string) *Session {
	return &Session{
		oracle:         oracle,
		root:           root,
		prompt:         prompt,
		temperature:    DefaultTemperature,
		manualPrompt:   true,
		maxArrayLength: DefaultMaxArrayLength,
		seed:           RandomSeed,
	}
}

// WithTemperature sets the base sampling temperature. Leaf generators
// escalate from this value on retries without changing it.
func (s *Session) WithTemperature(temperature float64) *Session {
	s.temperature = temperature
	return s
}

// WithManualPrompt selects manual prompt mode: the prompt is sent as-is plus
// the buffer so far, and the caller is responsible for having told the model
// about the schema.
func (s *Session) WithManualPrompt() *Session {
	s.manualPrompt = true
	return s
}

// WithGuidedPrompt selects guided prompt mode: the serialized schema and a
// fixed guidance sentence are appended to the prompt before the buffer.
func (s *Session) WithGuidedPrompt() *Session {
	s.manualPrompt = false
	return s
}

// WithMaxArrayLength bounds the number of elements in generated arrays.
// A non-empty array always carries its first element, so values below 1 are
// clamped to 1.
func (s *Session) WithMaxArrayLength(n int) *Session {
	if n < 1 {
		n = 1
	}
	s.maxArrayLength = n
	return s
}

// WithSeed locks the sampling seed for the run. Pass [RandomSeed] to have
// the session pick one at Run and hold it fixed.
func (s *Session) WithSeed(seed int64) *Session {
	s.seed = seed
	return s
}

// WithHook attaches an oracle-call observer.
func (s *Session) WithHook(h Hook) *Session {
	s.hooks = append(s.hooks, h)
	return s
}

// Run validates the schema and starts the generation, returning a lazy,
// single-pass stream of buffer snapshots (one per atomic append). The stream
// completes with the final buffer; on cancellation of ctx it completes early
// with whatever was buffered and a nil error.
func (s *Session) Run(ctx context.Context) RunStream {
	out := NewStreamBuffer()
	go s.runTo(ctx, out)
	return out
}

// Generate runs to completion, discarding intermediate snapshots, and
// returns the final JSON text.
func (s *Session) Generate(ctx context.Context) (string, error) {
	stream := s.Run(ctx)
	for range stream.Snapshots() {
	}
	return stream.Result()
}

func (s *Session) runTo(ctx context.Context, out *StreamBuffer) {
	if err := s.root.Validate(); err != nil {
		out.Complete("", err)
		return
	}

	seed := s.seed
	if seed == RandomSeed {
		seed = 1 + rand.Int64N(1<<31-1)
	}

	r := &run{session: s, seed: seed, out: out, ctx: ctx}
	err := r.generateValue(ctx, s.root, "")
	if ctx.Err() != nil {
		// Cooperative shutdown: the truncated buffer is the result.
		out.Complete(r.progress.String(), nil)
		return
	}
	out.Complete(r.progress.String(), err)
}

// run is the single-owner mutable state of one generation run.
type run struct {
	session *Session
	seed    int64
	out     *StreamBuffer
	ctx     context.Context

	progress strings.Builder
	indent   int
}

// append adds text to the output buffer and emits a snapshot. Once
// cancellation is observed the buffer is frozen: the run unwinds through the
// remaining generator frames without appending the structural characters
// they would otherwise emit, so the caller receives the buffer exactly as of
// the last snapshot.
func (r *run) append(text string) {
	if r.ctx.Err() != nil {
		return
	}
	r.progress.WriteString(text)
	r.out.Send(r.progress.String())
}

func (r *run) appendNewline() {
	r.append("\n")
}

func (r *run) appendIndent() {
	r.append(strings.Repeat(" ", r.indent))
}

// appendKey emits indentation followed by `"key": `.
func (r *run) appendKey(key string) {
	r.appendIndent()
	r.append(`"` + key + `": `)
}

// buildPrompt derives the prompt for the next oracle call from the
// instruction text, the prompt mode, and the buffer so far.
func (r *run) buildPrompt() string {
	if r.session.manualPrompt {
		return r.session.prompt + "\n" + r.progress.String()
	}
	var b strings.Builder
	b.WriteString(r.session.prompt)
	b.WriteString("\nOutput result in the following JSON schema format:\n")
	b.Write(r.session.root.JSON())
	b.WriteString("\nConsider carefully when to populate arrays and when to leave them empty. " +
		"Remember empty arrays are often appropriate based on the request.\nResult: ")
	b.WriteString(r.progress.String())
	return b.String()
}
