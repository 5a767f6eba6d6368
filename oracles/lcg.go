// Package oracles provides generation oracle implementations.
package oracles

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/rickchristie/jsonsmith"
)

// LCG adapts a LangChainGo llms.Model to the jsonsmith Oracle interface.
//
// Streaming deltas from the model are accumulated into the cumulative
// snapshots the engine expects; sampling settings map onto the model's call
// options (temperature, max tokens, seed). The seed option is passed on
// every call, which is what keeps a session's repeated sub-generations
// mutually coherent on providers that honor it.
//
//	llm, err := openai.New(openai.WithToken(apiKey))
//	if err != nil { ... }
//	oracle := oracles.NewLCG(llm)
//	session := jsonsmith.NewSession(oracle, node, prompt)
type LCG struct {
	model   llms.Model
	options []llms.CallOption
}

// NewLCG creates an oracle backed by the given model.
func NewLCG(model llms.Model) *LCG {
	return &LCG{model: model}
}

// WithOptions adds base call options applied to every call, after the
// settings-derived options so they can override them. Returns the oracle for
// chaining.
func (o *LCG) WithOptions(options ...llms.CallOption) *LCG {
	o.options = append(o.options, options...)
	return o
}

// Unwrap returns the underlying llms.Model.
func (o *LCG) Unwrap() llms.Model {
	return o.model
}

// Generate implements jsonsmith.Oracle.
//
// The returned stream never blocks the model's callback: snapshots are
// buffered unboundedly, and once the engine closes the stream further
// snapshots are discarded. Providers without streaming support yield a
// single snapshot carrying the whole response.
func (o *LCG) Generate(
	ctx context.Context,
	prompt string,
	settings jsonsmith.GenerationSettings,
) (jsonsmith.TextStream, error) {
	stream := jsonsmith.NewStreamBuffer()

	// cumulative is only touched by the streaming callback and the
	// completion goroutine below, which run sequentially.
	var cumulative strings.Builder
	callback := llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		cumulative.Write(chunk)
		stream.Send(cumulative.String())
		return nil
	})

	opts := make([]llms.CallOption, 0, len(o.options)+4)
	opts = append(opts, llms.WithTemperature(settings.Temperature))
	if settings.MaxNewTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(settings.MaxNewTokens))
	}
	if settings.Seed != 0 {
		opts = append(opts, llms.WithSeed(int(settings.Seed)))
	}
	opts = append(opts, o.options...)
	opts = append(opts, callback)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	go func() {
		response, err := o.model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			stream.Complete("", err)
			return
		}

		final := cumulative.String()
		if final == "" && len(response.Choices) > 0 {
			// Non-streaming provider: deliver the whole response as the one
			// and only snapshot.
			final = response.Choices[0].Content
			stream.Send(final)
		}
		stream.Complete(final, nil)
	}()

	return stream, nil
}

// Compile-time check that LCG implements jsonsmith.Oracle.
var _ jsonsmith.Oracle = (*LCG)(nil)
