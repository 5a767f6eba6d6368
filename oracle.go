package jsonsmith

import "context"

// Oracle is the generation backend the engine drives. It has no notion of
// JSON or schemas: it receives a prompt and sampling settings and produces a
// stream of cumulative response snapshots.
//
// Each snapshot on the returned stream is the full response so far, not a
// delta. The stream may be effectively infinite; the engine stops consuming
// as soon as a stopping condition is met and calls Close to release it.
//
// Implementations should stop producing when ctx is cancelled, but the engine
// does not rely on it: it polls ctx itself after every call.
type Oracle interface {
	Generate(ctx context.Context, prompt string, settings GenerationSettings) (TextStream, error)
}

// GenerationSettings are the sampling settings for a single oracle call.
type GenerationSettings struct {
	// Temperature is the sampling temperature. The engine escalates this
	// locally on retries; the session's base value is never mutated.
	Temperature float64

	// MaxNewTokens bounds the response length. Zero means no bound.
	// The engine sets small bounds for probe calls (boolean, array probes).
	MaxNewTokens int

	// Seed is the sampling seed, held fixed across every oracle call of one
	// session so that repeated sub-generations stay coherent.
	Seed int64
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, prompt string, settings GenerationSettings) (TextStream, error)

// Generate implements Oracle.
func (f OracleFunc) Generate(
	ctx context.Context,
	prompt string,
	settings GenerationSettings,
) (TextStream, error) {
	return f(ctx, prompt, settings)
}
