package jsonsmith

import (
	"context"
	"fmt"
	"strings"
)

// degeneratePattern is the literal empty-string marker. When it shows up in
// a response the model has stopped emitting one string at a time and the
// acquisition is unsalvageable.
const degeneratePattern = `""`

// nextTokens performs one oracle call and truncates its cumulative output.
//
// Each snapshot of the stream is checked for the degenerate `""` marker
// (ErrProtocol) and, when stop is non-nil, matched against the anchored
// stopping pattern; the first match returns the designated capture group and
// abandons the stream. Cancellation returns "" with no error. A stream that
// ends without matching a required pattern is ErrStoppingPattern; with no
// pattern the final snapshot is returned whole.
//
// promptOverride, when non-empty, replaces the session-derived prompt. The
// array continuation probe uses it to re-prompt against a stripped buffer.
func (r *run) nextTokens(
	ctx context.Context,
	settings GenerationSettings,
	stop *StoppingPattern,
	promptOverride string,
) (string, error) {
	if ctx.Err() != nil {
		return "", nil
	}

	prompt := promptOverride
	if prompt == "" {
		prompt = r.buildPrompt()
	}
	settings.Seed = r.seed

	for _, h := range r.session.hooks {
		h.BeforeOracleCall(prompt, settings)
	}

	result, err := r.consume(ctx, prompt, settings, stop)

	for _, h := range r.session.hooks {
		h.AfterOracleCall(prompt, result, err)
	}
	return result, err
}

func (r *run) consume(
	ctx context.Context,
	prompt string,
	settings GenerationSettings,
	stop *StoppingPattern,
) (string, error) {
	stream, err := r.session.oracle.Generate(ctx, prompt, settings)
	if err != nil {
		return "", fmt.Errorf("oracle call failed: %w", err)
	}
	defer stream.Close()

	var last string
	for snapshot := range stream.Snapshots() {
		last = snapshot
		if strings.Contains(snapshot, degeneratePattern) {
			return "", ErrProtocol
		}
		if stop != nil {
			if token, ok := stop.Match(snapshot); ok {
				return token, nil
			}
		}
		if ctx.Err() != nil {
			return "", nil
		}
	}

	if ctx.Err() != nil {
		return "", nil
	}
	// Streams that carry a completion result (e.g. StreamBuffer) surface the
	// producer's error; a failed call should read as a failed acquisition,
	// not as a short but well-formed stream.
	if rs, ok := stream.(RunStream); ok {
		if _, resultErr := rs.Result(); resultErr != nil {
			return "", fmt.Errorf("oracle call failed: %w", resultErr)
		}
	}
	if stop != nil {
		return "", fmt.Errorf("%w: /%s/", ErrStoppingPattern, stop)
	}
	return last, nil
}
